package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxnKind classifies a row in the advance ledger.
type TxnKind string

const (
	// TxnKindAdvance is money handed to the employee; increases the balance.
	TxnKindAdvance TxnKind = "ADVANCE"
	// TxnKindIncrease is a top-up of an existing advance; increases the balance.
	TxnKindIncrease TxnKind = "INCREASE"
	// TxnKindPayment is a deduction; stored with a non-positive amount.
	TxnKindPayment TxnKind = "PAYMENT"
	// TxnKindDefer is a zero-amount audit marker for an intentionally
	// skipped period.
	TxnKindDefer TxnKind = "DEFER"
)

// PeriodLayout is the year-month bucket format for ledger rows.
// The period is derived once at write time and stored, never recomputed
// from the raw date at query time.
const PeriodLayout = "2006-01"

func PeriodOf(t time.Time) string {
	return t.Format(PeriodLayout)
}

func CurrentPeriod() string {
	return PeriodOf(time.Now())
}

// PeriodStart returns the first day of the given "YYYY-MM" period.
func PeriodStart(period string) (time.Time, error) {
	return time.Parse(PeriodLayout, period)
}

// AdvanceAccount is the per-employee summary row. Balance is a
// materialized projection: it always equals the sum of the account's
// transaction amounts and is rewritten inside the same unit of work as
// every ledger write.
type AdvanceAccount struct {
	EmpNo              string          `json:"emp_no"              db:"emp_no"`
	Balance            decimal.Decimal `json:"balance"             db:"balance"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment" db:"monthly_installment"`
	CreatedAt          time.Time       `json:"created_at"          db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"          db:"updated_at"`
}

// AdvanceTransaction is one append-only ledger event. The only allowed
// in-place mutation is amending amount/note of an existing Payment row
// for a period, which goes through TransactionRepository.AmendPayment.
type AdvanceTransaction struct {
	ID         int64           `json:"id"          db:"id"`
	EmpNo      string          `json:"emp_no"      db:"emp_no"`
	OccurredOn time.Time       `json:"occurred_on" db:"occurred_on"`
	Period     string          `json:"period"      db:"period"`
	Kind       TxnKind         `json:"kind"        db:"kind"`
	Amount     decimal.Decimal `json:"amount"      db:"amount"`
	Note       string          `json:"note"        db:"note"`
	CreatedAt  time.Time       `json:"created_at"  db:"created_at"`
}

type GrantAdvanceRequest struct {
	EmpNo              string          `json:"emp_no"`
	Amount             decimal.Decimal `json:"amount"`
	OccurredOn         time.Time       `json:"occurred_on"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Note               string          `json:"note"`
}

type GrantAdvanceResult struct {
	EmpNo           string          `json:"emp_no"`
	Balance         decimal.Decimal `json:"balance"`
	PaymentInserted bool            `json:"payment_inserted"`
}

type IncreaseAdvanceRequest struct {
	EmpNo      string          `json:"emp_no"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredOn time.Time       `json:"occurred_on"`
	Note       string          `json:"note"`
}

type SetPaymentRequest struct {
	EmpNo  string          `json:"emp_no"`
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"` // <= 0; zero means defer
	Note   string          `json:"note"`
}

type SetPaymentResult struct {
	EmpNo    string          `json:"emp_no"`
	Period   string          `json:"period"`
	Created  bool            `json:"created"`
	Deferred bool            `json:"deferred"`
	Balance  decimal.Decimal `json:"balance"`
}

type UpdateInstallmentRequest struct {
	EmpNo              string          `json:"emp_no"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Period             string          `json:"period"`         // defaults to current
	ApplyToMonth       bool            `json:"apply_to_month"` // defaults to true
	Note               string          `json:"note"`
}

type UpdateInstallmentResult struct {
	EmpNo              string          `json:"emp_no"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Period             string          `json:"period"`
	PaymentAdjusted    bool            `json:"payment_adjusted"`
	Balance            decimal.Decimal `json:"balance"`
}

// AccountBalance is the read-side row for balance listings.
type AccountBalance struct {
	EmpNo              string          `json:"emp_no"`
	Balance            decimal.Decimal `json:"balance"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
}
