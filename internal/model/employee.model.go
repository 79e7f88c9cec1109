package model

import "github.com/shopspring/decimal"

// Employee comes from the employee directory. The ledger trusts the
// emp_no values it is handed and does not validate existence itself.
type Employee struct {
	EmpNo   string          `json:"emp_no"   db:"emp_no"`
	Name    string          `json:"name"     db:"name"`
	BasePay decimal.Decimal `json:"base_pay" db:"base_pay"`
}

type Trade struct {
	ID        int64  `json:"id"         db:"id"`
	TradeName string `json:"trade_name" db:"trade_name"`
}
