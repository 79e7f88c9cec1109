package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeOfDayLayout is how entry times travel over the wire and are stored.
const TimeOfDayLayout = "15:04"

type Timesheet struct {
	ID           int64             `json:"id"            db:"id"`
	Date         time.Time         `json:"date"          db:"date"`
	JobNo        string            `json:"job_no"        db:"job_no"`
	Ship         string            `json:"ship"          db:"ship"`
	Site         string            `json:"site"          db:"site"`
	SheetNo      string            `json:"sheet_no"      db:"sheet_no"`
	CheckedBy    string            `json:"checked_by"    db:"checked_by"`
	AuthorizedBy string            `json:"authorized_by" db:"authorized_by"`
	ForCompany   string            `json:"for_company"   db:"for_company"`
	Entries      []*TimesheetEntry `json:"entries"`
}

type TimesheetEntry struct {
	ID           int64           `json:"id"            db:"id"`
	TimesheetID  int64           `json:"timesheet_id"  db:"timesheet_id"`
	EmpNo        string          `json:"emp_no"        db:"emp_no"`
	EmployeeName string          `json:"employee_name,omitempty"`
	TradeID      *int64          `json:"trade_id"      db:"trade_id"`
	TradeName    string          `json:"trade_name,omitempty"`
	FromTime     string          `json:"from_time"     db:"from_time"` // "15:04"
	ToTime       string          `json:"to_time"       db:"to_time"`
	BreakMinutes int             `json:"break_minutes" db:"break_minutes"`
	TotalHours   decimal.Decimal `json:"total_hours"   db:"total_hours"`
	Remarks      string          `json:"remarks"       db:"remarks"`
}

type TimesheetEntryUpdate struct {
	EmpNo        *string          `json:"emp_no"`
	TradeID      *int64           `json:"trade_id"`
	FromTime     *string          `json:"from_time"`
	ToTime       *string          `json:"to_time"`
	BreakMinutes *int             `json:"break_minutes"`
	TotalHours   *decimal.Decimal `json:"total_hours"`
	Remarks      *string          `json:"remarks"`
}

type TimesheetUpdate struct {
	Date         *time.Time `json:"date"`
	JobNo        *string    `json:"job_no"`
	Ship         *string    `json:"ship"`
	Site         *string    `json:"site"`
	SheetNo      *string    `json:"sheet_no"`
	CheckedBy    *string    `json:"checked_by"`
	AuthorizedBy *string    `json:"authorized_by"`
	ForCompany   *string    `json:"for_company"`
}

// DaySummary is one cell of the per-employee report grid.
type DaySummary struct {
	TotalHours   decimal.Decimal `json:"total_hours"`
	TimesheetIDs []int64         `json:"timesheet_ids"`
}

// EmployeeSummary aggregates an employee's hours over a date range.
// Sunday hours count as holiday overtime; weekday hours beyond eight in
// a day count as normal overtime.
type EmployeeSummary struct {
	EmpNo         string                 `json:"emp_no"`
	EmployeeName  string                 `json:"employee_name"`
	EntriesByDate map[string]*DaySummary `json:"entries_by_date"` // keyed "2006-01-02"
	TotalHours    decimal.Decimal        `json:"total_hours"`
	HolidayOT     decimal.Decimal        `json:"holiday_ot"`
	NormalOT      decimal.Decimal        `json:"normal_ot"`
}
