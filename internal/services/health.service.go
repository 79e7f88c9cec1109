package services

import (
	"context"

	"github.com/crewpay/payroll-ledger/pkg/pg"
)

type HealthService struct {
	db *pg.DB
}

func NewHealthService(db *pg.DB) *HealthService {
	return &HealthService{
		db: db,
	}
}

// Get reports whether the backing store is reachable.
func (s *HealthService) Get() error {
	sqlDB, err := s.db.Read(context.Background()).DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
