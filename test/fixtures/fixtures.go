package fixtures

import (
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/shopspring/decimal"
)

var (
	TestEmployee1 = model.Employee{
		EmpNo:   "E001",
		Name:    "Aung Kyaw",
		BasePay: decimal.NewFromInt(1800),
	}

	TestEmployee2 = model.Employee{
		EmpNo:   "E002",
		Name:    "Min Thu",
		BasePay: decimal.NewFromInt(1650),
	}
)

func NewGrantAdvanceRequest(empNo string, amount, installment int64) model.GrantAdvanceRequest {
	return model.GrantAdvanceRequest{
		EmpNo:              empNo,
		Amount:             decimal.NewFromInt(amount),
		MonthlyInstallment: decimal.NewFromInt(installment),
	}
}

func NewSetPaymentRequest(empNo, period string, amount int64) model.SetPaymentRequest {
	return model.SetPaymentRequest{
		EmpNo:  empNo,
		Period: period,
		Amount: decimal.NewFromInt(amount),
	}
}

func NewTimesheet(date time.Time, sheetNo string, entries ...*model.TimesheetEntry) *model.Timesheet {
	return &model.Timesheet{
		Date:    date,
		JobNo:   "J-100",
		Ship:    "MV Orion",
		Site:    "Dock 2",
		SheetNo: sheetNo,
		Entries: entries,
	}
}

func NewTimesheetEntry(empNo, from, to string, breakMinutes int, hours int64) *model.TimesheetEntry {
	return &model.TimesheetEntry{
		EmpNo:        empNo,
		FromTime:     from,
		ToTime:       to,
		BreakMinutes: breakMinutes,
		TotalHours:   decimal.NewFromInt(hours),
	}
}
