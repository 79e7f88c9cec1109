package repository

import (
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type TimesheetEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	Date         time.Time `db:"date"          gorm:"column:date;not null;index"`
	JobNo        string    `db:"job_no"        gorm:"column:job_no;size:50"`
	Ship         string    `db:"ship"          gorm:"column:ship;size:100"`
	Site         string    `db:"site"          gorm:"column:site;size:100"`
	SheetNo      string    `db:"sheet_no"      gorm:"column:sheet_no;size:50"`
	CheckedBy    string    `db:"checked_by"    gorm:"column:checked_by;size:100"`
	AuthorizedBy string    `db:"authorized_by" gorm:"column:authorized_by;size:100"`
	ForCompany   string    `db:"for_company"   gorm:"column:for_company;size:100"`
}

func (TimesheetEntity) TableName() string {
	return "timesheets"
}

type TimesheetEntryEntity struct {
	ID           int64           `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	TimesheetID  int64           `db:"timesheet_id"  gorm:"column:timesheet_id;not null;index"`
	Timesheet    *TimesheetEntity `db:"-"            gorm:"foreignKey:TimesheetID;references:ID;constraint:OnDelete:CASCADE"`
	EmpNo        string          `db:"emp_no"        gorm:"column:emp_no;size:20;not null;index"`
	TradeID      *int64          `db:"trade_id"      gorm:"column:trade_id"`
	FromTime     string          `db:"from_time"     gorm:"column:from_time;size:5;not null"`
	ToTime       string          `db:"to_time"       gorm:"column:to_time;size:5;not null"`
	BreakMinutes int             `db:"break_minutes" gorm:"column:break_minutes;default:0"`
	TotalHours   decimal.Decimal `db:"total_hours"   gorm:"column:total_hours;type:decimal(5,2)"`
	Remarks      string          `db:"remarks"       gorm:"column:remarks;type:text"`
}

func (TimesheetEntryEntity) TableName() string {
	return "timesheet_entries"
}

func toTimesheetEntity(m *model.Timesheet) *TimesheetEntity {
	if m == nil {
		return nil
	}
	return &TimesheetEntity{
		ID:           m.ID,
		Date:         m.Date,
		JobNo:        m.JobNo,
		Ship:         m.Ship,
		Site:         m.Site,
		SheetNo:      m.SheetNo,
		CheckedBy:    m.CheckedBy,
		AuthorizedBy: m.AuthorizedBy,
		ForCompany:   m.ForCompany,
	}
}

func toTimesheetModel(e *TimesheetEntity) *model.Timesheet {
	if e == nil {
		return nil
	}
	return &model.Timesheet{
		ID:           e.ID,
		Date:         e.Date,
		JobNo:        e.JobNo,
		Ship:         e.Ship,
		Site:         e.Site,
		SheetNo:      e.SheetNo,
		CheckedBy:    e.CheckedBy,
		AuthorizedBy: e.AuthorizedBy,
		ForCompany:   e.ForCompany,
	}
}

func toEntryEntity(m *model.TimesheetEntry) *TimesheetEntryEntity {
	if m == nil {
		return nil
	}
	return &TimesheetEntryEntity{
		ID:           m.ID,
		TimesheetID:  m.TimesheetID,
		EmpNo:        m.EmpNo,
		TradeID:      m.TradeID,
		FromTime:     m.FromTime,
		ToTime:       m.ToTime,
		BreakMinutes: m.BreakMinutes,
		TotalHours:   m.TotalHours,
		Remarks:      m.Remarks,
	}
}

func toEntryModel(e *TimesheetEntryEntity) *model.TimesheetEntry {
	if e == nil {
		return nil
	}
	return &model.TimesheetEntry{
		ID:           e.ID,
		TimesheetID:  e.TimesheetID,
		EmpNo:        e.EmpNo,
		TradeID:      e.TradeID,
		FromTime:     e.FromTime,
		ToTime:       e.ToTime,
		BreakMinutes: e.BreakMinutes,
		TotalHours:   e.TotalHours,
		Remarks:      e.Remarks,
	}
}

func toEntryModels(entities []*TimesheetEntryEntity) []*model.TimesheetEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.TimesheetEntry, len(entities))
	for i, e := range entities {
		models[i] = toEntryModel(e)
	}
	return models
}
