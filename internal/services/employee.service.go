package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/internal/repository"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type EmployeeRepository interface {
	Get(ctx context.Context, empNo string) (*model.Employee, error)
	List(ctx context.Context) ([]*model.Employee, error)
	ListTrades(ctx context.Context) ([]*model.Trade, error)
}

// EmployeeService is a read-only view over the employee directory. The
// directory itself is owned by HR systems; the ledger only consumes it.
type EmployeeService struct {
	employees EmployeeRepository
}

func NewEmployeeService(employees EmployeeRepository) *EmployeeService {
	return &EmployeeService{
		employees: employees,
	}
}

func (s *EmployeeService) Get(ctx context.Context, empNo string) (*model.Employee, error) {
	emp, err := s.employees.Get(ctx, empNo)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	return emp, nil
}

func (s *EmployeeService) List(ctx context.Context) ([]*model.Employee, error) {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	return employees, nil
}

func (s *EmployeeService) ListTrades(ctx context.Context) ([]*model.Trade, error) {
	trades, err := s.employees.ListTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	return trades, nil
}
