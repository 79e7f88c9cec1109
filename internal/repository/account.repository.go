package repository

import (
	"context"
	"errors"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound = errors.New("advance account not found")
)

type AccountRepository struct {
	*pg.DB
}

func NewAccountRepository(db *pg.DB) *AccountRepository {
	return &AccountRepository{
		db,
	}
}

// GetForUpdate loads the account row under a SELECT FOR UPDATE lock.
// Every read-modify-write sequence against an account must go through
// this inside WithinTransaction so concurrent operations on the same
// account serialize instead of both passing a stale balance check.
func (r *AccountRepository) GetForUpdate(ctx context.Context, empNo string) (*model.AdvanceAccount, error) {
	var entity AdvanceAccountEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("emp_no = ?", empNo).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return toAccountModel(&entity), nil
}

func (r *AccountRepository) Get(ctx context.Context, empNo string) (*model.AdvanceAccount, error) {
	var entity AdvanceAccountEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("emp_no = ?", empNo).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return toAccountModel(&entity), nil
}

func (r *AccountRepository) Create(ctx context.Context, acc *model.AdvanceAccount) (*model.AdvanceAccount, error) {
	entity := toAccountEntity(acc)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toAccountModel(entity), nil
}

// UpdateBalance rewrites the materialized balance projection. Callers
// must hold the account lock and must pass the freshly recomputed sum.
func (r *AccountRepository) UpdateBalance(ctx context.Context, empNo string, balance decimal.Decimal) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&AdvanceAccountEntity{}).
		Where("emp_no = ?", empNo).
		Update("balance", balance)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateInstallment(ctx context.Context, empNo string, installment decimal.Decimal) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&AdvanceAccountEntity{}).
		Where("emp_no = ?", empNo).
		Update("monthly_installment", installment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListPositiveBalance returns the accounts the deduction pass considers.
// The balance and installment are re-checked per account under lock, so
// staleness here only costs a skip, never a wrong write.
func (r *AccountRepository) ListPositiveBalance(ctx context.Context) ([]*model.AdvanceAccount, error) {
	var entities []*AdvanceAccountEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("balance > ?", decimal.Zero).
		Order("emp_no ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	accounts := make([]*model.AdvanceAccount, len(entities))
	for i, e := range entities {
		accounts[i] = toAccountModel(e)
	}
	return accounts, nil
}

func (r *AccountRepository) ListAll(ctx context.Context) ([]*model.AccountBalance, error) {
	var entities []*AdvanceAccountEntity

	err := r.Read(ctx).WithContext(ctx).
		Order("emp_no ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	balances := make([]*model.AccountBalance, len(entities))
	for i, e := range entities {
		balances[i] = &model.AccountBalance{
			EmpNo:              e.EmpNo,
			Balance:            e.Balance,
			MonthlyInstallment: e.MonthlyInstallment,
		}
	}
	return balances, nil
}
