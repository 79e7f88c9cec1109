package repository

import (
	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type EmployeeEntity struct {
	EmpNo   string          `db:"emp_no"   gorm:"primaryKey;column:emp_no;size:20"`
	Name    string          `db:"name"     gorm:"column:name;size:100;uniqueIndex;not null"`
	BasePay decimal.Decimal `db:"base_pay" gorm:"column:base_pay;type:decimal(10,2);not null"`
}

func (EmployeeEntity) TableName() string {
	return "employees"
}

type TradeEntity struct {
	ID        int64  `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	TradeName string `db:"trade_name" gorm:"column:trade_name;size:50;uniqueIndex;not null"`
}

func (TradeEntity) TableName() string {
	return "trades"
}

func toEmployeeModel(e *EmployeeEntity) *model.Employee {
	if e == nil {
		return nil
	}
	return &model.Employee{
		EmpNo:   e.EmpNo,
		Name:    e.Name,
		BasePay: e.BasePay,
	}
}

func toTradeModel(e *TradeEntity) *model.Trade {
	if e == nil {
		return nil
	}
	return &model.Trade{
		ID:        e.ID,
		TradeName: e.TradeName,
	}
}
