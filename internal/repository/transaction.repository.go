package repository

import (
	"context"
	"errors"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("advance transaction not found")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.AdvanceTransaction) (*model.AdvanceTransaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTransactionModel(entity), nil
}

// FindPayment returns the single Payment row for (empNo, period), or
// ErrTransactionNotFound. This is the idempotency probe: at most one
// Payment may ever exist per account per period.
func (r *TransactionRepository) FindPayment(ctx context.Context, empNo, period string) (*model.AdvanceTransaction, error) {
	var entity AdvanceTransactionEntity

	err := r.Write(ctx).WithContext(ctx).
		Where("emp_no = ? AND period = ? AND kind = ?", empNo, period, string(model.TxnKindPayment)).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	return toTransactionModel(&entity), nil
}

func (r *TransactionRepository) HasDefer(ctx context.Context, empNo, period string) (bool, error) {
	var count int64

	err := r.Write(ctx).WithContext(ctx).
		Model(&AdvanceTransactionEntity{}).
		Where("emp_no = ? AND period = ? AND kind = ?", empNo, period, string(model.TxnKindDefer)).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// AmendPayment is the one controlled mutation of the otherwise
// append-only log: it rewrites amount and note of an existing Payment
// row. Kind, owner and period are never touched.
func (r *TransactionRepository) AmendPayment(ctx context.Context, id int64, amount decimal.Decimal, note string) error {
	updates := map[string]interface{}{
		"amount": amount,
	}
	if note != "" {
		updates["note"] = note
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&AdvanceTransactionEntity{}).
		Where("id = ? AND kind = ?", id, string(model.TxnKindPayment)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// SumAmounts recomputes the balance projection. It reads through the
// write handle so a transaction appended earlier in the same unit of
// work is already visible to the sum.
func (r *TransactionRepository) SumAmounts(ctx context.Context, empNo string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := r.Write(ctx).WithContext(ctx).
		Model(&AdvanceTransactionEntity{}).
		Where("emp_no = ?", empNo).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).
		Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}

	return sum.Decimal, nil
}

// ListByEmployee returns the full history, newest first. Same-day rows
// tie-break on the monotonically increasing id, i.e. insertion order.
func (r *TransactionRepository) ListByEmployee(ctx context.Context, empNo string) ([]*model.AdvanceTransaction, error) {
	var entities []*AdvanceTransactionEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("emp_no = ?", empNo).
		Order("occurred_on DESC").
		Order("id DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) CountByEmployee(ctx context.Context, empNo string) (int64, error) {
	var count int64

	err := r.Read(ctx).WithContext(ctx).
		Model(&AdvanceTransactionEntity{}).
		Where("emp_no = ?", empNo).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
