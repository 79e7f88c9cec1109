package repository

import (
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type AdvanceAccountEntity struct {
	EmpNo              string          `db:"emp_no"              gorm:"primaryKey;column:emp_no;size:20"`
	Balance            decimal.Decimal `db:"balance"             gorm:"column:balance;type:decimal(12,2);not null"`
	MonthlyInstallment decimal.Decimal `db:"monthly_installment" gorm:"column:monthly_installment;type:decimal(12,2);not null"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

func (AdvanceAccountEntity) TableName() string {
	return "advance_accounts"
}

func toAccountEntity(m *model.AdvanceAccount) *AdvanceAccountEntity {
	if m == nil {
		return nil
	}
	return &AdvanceAccountEntity{
		EmpNo:              m.EmpNo,
		Balance:            m.Balance,
		MonthlyInstallment: m.MonthlyInstallment,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toAccountModel(e *AdvanceAccountEntity) *model.AdvanceAccount {
	if e == nil {
		return nil
	}
	return &model.AdvanceAccount{
		EmpNo:              e.EmpNo,
		Balance:            e.Balance,
		MonthlyInstallment: e.MonthlyInstallment,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}
