package repository

import (
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type AdvanceTransactionEntity struct {
	ID         int64           `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	EmpNo      string          `db:"emp_no"      gorm:"column:emp_no;size:20;not null;index;index:idx_advance_txn_emp_period,priority:1"`
	OccurredOn time.Time       `db:"occurred_on" gorm:"column:occurred_on;not null"`
	Period     string          `db:"period"      gorm:"column:period;size:7;not null;index:idx_advance_txn_emp_period,priority:2;index:idx_advance_txn_period_kind,priority:1"`
	Kind       string          `db:"kind"        gorm:"column:kind;size:10;not null;index:idx_advance_txn_period_kind,priority:2"`
	Amount     decimal.Decimal `db:"amount"      gorm:"column:amount;type:decimal(12,2);not null"`
	Note       string          `db:"note"        gorm:"column:note;type:text"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (AdvanceTransactionEntity) TableName() string {
	return "advance_transactions"
}

func toTransactionEntity(m *model.AdvanceTransaction) *AdvanceTransactionEntity {
	if m == nil {
		return nil
	}
	return &AdvanceTransactionEntity{
		ID:         m.ID,
		EmpNo:      m.EmpNo,
		OccurredOn: m.OccurredOn,
		Period:     m.Period,
		Kind:       string(m.Kind),
		Amount:     m.Amount,
		Note:       m.Note,
		CreatedAt:  m.CreatedAt,
	}
}

func toTransactionModel(e *AdvanceTransactionEntity) *model.AdvanceTransaction {
	if e == nil {
		return nil
	}
	return &model.AdvanceTransaction{
		ID:         e.ID,
		EmpNo:      e.EmpNo,
		OccurredOn: e.OccurredOn,
		Period:     e.Period,
		Kind:       model.TxnKind(e.Kind),
		Amount:     e.Amount,
		Note:       e.Note,
		CreatedAt:  e.CreatedAt,
	}
}

func toTransactionModels(entities []*AdvanceTransactionEntity) []*model.AdvanceTransaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.AdvanceTransaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
