package repository

import (
	"context"
	"errors"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
)

type EmployeeRepository struct {
	*pg.DB
}

func NewEmployeeRepository(db *pg.DB) *EmployeeRepository {
	return &EmployeeRepository{
		db,
	}
}

func (r *EmployeeRepository) Get(ctx context.Context, empNo string) (*model.Employee, error) {
	var entity EmployeeEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("emp_no = ?", empNo).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}

	return toEmployeeModel(&entity), nil
}

func (r *EmployeeRepository) List(ctx context.Context) ([]*model.Employee, error) {
	var entities []*EmployeeEntity

	err := r.Read(ctx).WithContext(ctx).
		Order("emp_no ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	employees := make([]*model.Employee, len(entities))
	for i, e := range entities {
		employees[i] = toEmployeeModel(e)
	}
	return employees, nil
}

func (r *EmployeeRepository) ListTrades(ctx context.Context) ([]*model.Trade, error) {
	var entities []*TradeEntity

	err := r.Read(ctx).WithContext(ctx).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	trades := make([]*model.Trade, len(entities))
	for i, e := range entities {
		trades[i] = toTradeModel(e)
	}
	return trades, nil
}
