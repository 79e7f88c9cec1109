package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrTimesheetNotFound = errors.New("timesheet not found")
	ErrEntryNotFound     = errors.New("timesheet entry not found")
	ErrInvalidTime       = errors.New("invalid time of day, expected HH:MM")
	ErrDayLimitExceeded  = errors.New("total hours for employee on a day exceed 24")
)

const endOfDay = "23:59"

var twentyFour = decimal.NewFromInt(24)

type TimesheetRepository interface {
	Create(ctx context.Context, ts *model.Timesheet) (*model.Timesheet, error)
	CreateEntry(ctx context.Context, entry *model.TimesheetEntry) (*model.TimesheetEntry, error)
	Get(ctx context.Context, id int64) (*model.Timesheet, error)
	List(ctx context.Context) ([]*model.Timesheet, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]*model.Timesheet, error)
	ListEntries(ctx context.Context, timesheetID int64) ([]*model.TimesheetEntry, error)
	ListEntriesForTimesheets(ctx context.Context, timesheetIDs []int64) ([]*model.TimesheetEntry, error)
	SumHoursForDay(ctx context.Context, empNo string, day time.Time) (decimal.Decimal, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateEntry(ctx context.Context, id int64, updates map[string]interface{}) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TimesheetService struct {
	sheets    TimesheetRepository
	employees EmployeeRepository
}

func NewTimesheetService(sheets TimesheetRepository, employees EmployeeRepository) *TimesheetService {
	return &TimesheetService{
		sheets:    sheets,
		employees: employees,
	}
}

// pendingEntry is an entry staged for insertion along with the day it
// books hours against, so the 24-hour cap can be checked request-wide.
type pendingEntry struct {
	day   time.Time
	entry *model.TimesheetEntry
}

// Create stores a timesheet with its entries. An overnight entry
// (from_time past to_time) is split: part one runs to 23:59 on the
// sheet's day and carries the whole break, part two runs from 00:00 on
// a synthesized next-day sheet with the same metadata. No employee may
// exceed 24 booked hours on any calendar day.
func (s *TimesheetService) Create(ctx context.Context, ts *model.Timesheet) ([]*model.Timesheet, error) {
	for _, e := range ts.Entries {
		if _, err := parseTimeOfDay(e.FromTime); err != nil {
			return nil, err
		}
		if _, err := parseTimeOfDay(e.ToTime); err != nil {
			return nil, err
		}
	}

	var created []*model.Timesheet
	err := s.sheets.WithinTransaction(ctx, func(ctx context.Context) error {
		head, err := s.sheets.Create(ctx, &model.Timesheet{
			Date:         ts.Date,
			JobNo:        ts.JobNo,
			Ship:         ts.Ship,
			Site:         ts.Site,
			SheetNo:      ts.SheetNo,
			CheckedBy:    ts.CheckedBy,
			AuthorizedBy: ts.AuthorizedBy,
			ForCompany:   ts.ForCompany,
		})
		if err != nil {
			return fmt.Errorf("create timesheet: %w", err)
		}
		created = append(created, head)

		var nextDay *model.Timesheet
		var pending []pendingEntry

		for _, e := range ts.Entries {
			from, _ := parseTimeOfDay(e.FromTime)
			to, _ := parseTimeOfDay(e.ToTime)

			if from > to {
				// Overnight shift: full break lands on part one.
				firstMinutes := minutesOfDay(endOfDay) - from - e.BreakMinutes
				pending = append(pending, pendingEntry{
					day: head.Date,
					entry: &model.TimesheetEntry{
						TimesheetID:  head.ID,
						EmpNo:        e.EmpNo,
						TradeID:      e.TradeID,
						FromTime:     e.FromTime,
						ToTime:       endOfDay,
						BreakMinutes: e.BreakMinutes,
						TotalHours:   hoursFromMinutes(firstMinutes),
						Remarks:      "Split overnight entry (Part 1)",
					},
				})

				if nextDay == nil {
					nextDay, err = s.sheets.Create(ctx, &model.Timesheet{
						Date:         ts.Date.AddDate(0, 0, 1),
						JobNo:        ts.JobNo,
						Ship:         ts.Ship,
						Site:         ts.Site,
						SheetNo:      ts.SheetNo,
						CheckedBy:    ts.CheckedBy,
						AuthorizedBy: ts.AuthorizedBy,
						ForCompany:   ts.ForCompany,
					})
					if err != nil {
						return fmt.Errorf("create next-day timesheet: %w", err)
					}
					created = append(created, nextDay)
				}

				pending = append(pending, pendingEntry{
					day: nextDay.Date,
					entry: &model.TimesheetEntry{
						TimesheetID:  nextDay.ID,
						EmpNo:        e.EmpNo,
						TradeID:      e.TradeID,
						FromTime:     "00:00",
						ToTime:       e.ToTime,
						BreakMinutes: 0,
						TotalHours:   hoursFromMinutes(to),
						Remarks:      fmt.Sprintf("Split overnight entry (Part 2 from timesheet %s)", ts.SheetNo),
					},
				})
			} else {
				pending = append(pending, pendingEntry{
					day: head.Date,
					entry: &model.TimesheetEntry{
						TimesheetID:  head.ID,
						EmpNo:        e.EmpNo,
						TradeID:      e.TradeID,
						FromTime:     e.FromTime,
						ToTime:       e.ToTime,
						BreakMinutes: e.BreakMinutes,
						TotalHours:   e.TotalHours,
						Remarks:      e.Remarks,
					},
				})
			}
		}

		// Per-employee per-day cap, counting what this request has
		// already staged for the same day.
		staged := make(map[string]decimal.Decimal)
		for _, p := range pending {
			key := p.entry.EmpNo + "|" + p.day.Format("2006-01-02")
			booked, err := s.sheets.SumHoursForDay(ctx, p.entry.EmpNo, p.day)
			if err != nil {
				return fmt.Errorf("sum day hours: %w", err)
			}
			total := booked.Add(staged[key]).Add(p.entry.TotalHours)
			if total.GreaterThan(twentyFour) {
				return fmt.Errorf("%w: employee %s on %s",
					ErrDayLimitExceeded, p.entry.EmpNo, p.day.Format("2006-01-02"))
			}
			staged[key] = staged[key].Add(p.entry.TotalHours)

			if _, err := s.sheets.CreateEntry(ctx, p.entry); err != nil {
				return fmt.Errorf("create entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.classify(err)
	}
	return created, nil
}

// Get returns a timesheet with its entries enriched with the employee
// name and trade name.
func (s *TimesheetService) Get(ctx context.Context, id int64) (*model.Timesheet, error) {
	ts, err := s.sheets.Get(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}

	entries, err := s.sheets.ListEntries(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	if err := s.enrich(ctx, entries); err != nil {
		return nil, s.classify(err)
	}

	ts.Entries = entries
	return ts, nil
}

func (s *TimesheetService) List(ctx context.Context) ([]*model.Timesheet, error) {
	sheets, err := s.sheets.List(ctx)
	if err != nil {
		return nil, s.classify(err)
	}
	for _, ts := range sheets {
		entries, err := s.sheets.ListEntries(ctx, ts.ID)
		if err != nil {
			return nil, s.classify(err)
		}
		ts.Entries = entries
	}
	return sheets, nil
}

func (s *TimesheetService) Update(ctx context.Context, id int64, upd model.TimesheetUpdate) error {
	updates := map[string]interface{}{}
	if upd.Date != nil {
		updates["date"] = *upd.Date
	}
	if upd.JobNo != nil {
		updates["job_no"] = *upd.JobNo
	}
	if upd.Ship != nil {
		updates["ship"] = *upd.Ship
	}
	if upd.Site != nil {
		updates["site"] = *upd.Site
	}
	if upd.SheetNo != nil {
		updates["sheet_no"] = *upd.SheetNo
	}
	if upd.CheckedBy != nil {
		updates["checked_by"] = *upd.CheckedBy
	}
	if upd.AuthorizedBy != nil {
		updates["authorized_by"] = *upd.AuthorizedBy
	}
	if upd.ForCompany != nil {
		updates["for_company"] = *upd.ForCompany
	}
	return s.classify(s.sheets.Update(ctx, id, updates))
}

func (s *TimesheetService) UpdateEntry(ctx context.Context, id int64, upd model.TimesheetEntryUpdate) error {
	updates := map[string]interface{}{}
	if upd.EmpNo != nil {
		updates["emp_no"] = *upd.EmpNo
	}
	if upd.TradeID != nil {
		updates["trade_id"] = *upd.TradeID
	}
	if upd.FromTime != nil {
		if _, err := parseTimeOfDay(*upd.FromTime); err != nil {
			return err
		}
		updates["from_time"] = *upd.FromTime
	}
	if upd.ToTime != nil {
		if _, err := parseTimeOfDay(*upd.ToTime); err != nil {
			return err
		}
		updates["to_time"] = *upd.ToTime
	}
	if upd.BreakMinutes != nil {
		updates["break_minutes"] = *upd.BreakMinutes
	}
	if upd.TotalHours != nil {
		updates["total_hours"] = *upd.TotalHours
	}
	if upd.Remarks != nil {
		updates["remarks"] = *upd.Remarks
	}
	return s.classify(s.sheets.UpdateEntry(ctx, id, updates))
}

// Summary aggregates hours per employee per day over [start, end].
// Sunday hours count as holiday overtime; weekday hours beyond eight in
// one day count as normal overtime.
func (s *TimesheetService) Summary(ctx context.Context, start, end time.Time) ([]*model.EmployeeSummary, error) {
	sheets, err := s.sheets.ListBetween(ctx, start, end)
	if err != nil {
		return nil, s.classify(err)
	}

	sheetDates := make(map[int64]time.Time, len(sheets))
	ids := make([]int64, 0, len(sheets))
	for _, ts := range sheets {
		sheetDates[ts.ID] = ts.Date
		ids = append(ids, ts.ID)
	}

	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, s.classify(err)
	}

	report := make([]*model.EmployeeSummary, 0, len(employees))
	byEmp := make(map[string]*model.EmployeeSummary, len(employees))
	for _, emp := range employees {
		summary := &model.EmployeeSummary{
			EmpNo:         emp.EmpNo,
			EmployeeName:  emp.Name,
			EntriesByDate: make(map[string]*model.DaySummary),
		}
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			summary.EntriesByDate[day.Format("2006-01-02")] = &model.DaySummary{}
		}
		byEmp[emp.EmpNo] = summary
		report = append(report, summary)
	}

	entries, err := s.sheets.ListEntriesForTimesheets(ctx, ids)
	if err != nil {
		return nil, s.classify(err)
	}
	for _, e := range entries {
		summary, ok := byEmp[e.EmpNo]
		if !ok {
			continue
		}
		day, ok := summary.EntriesByDate[sheetDates[e.TimesheetID].Format("2006-01-02")]
		if !ok {
			continue
		}
		day.TotalHours = day.TotalHours.Add(e.TotalHours)
		day.TimesheetIDs = append(day.TimesheetIDs, e.TimesheetID)
	}

	eight := decimal.NewFromInt(8)
	for _, summary := range report {
		for dateStr, day := range summary.EntriesByDate {
			summary.TotalHours = summary.TotalHours.Add(day.TotalHours)
			dt, _ := time.Parse("2006-01-02", dateStr)
			if dt.Weekday() == time.Sunday {
				summary.HolidayOT = summary.HolidayOT.Add(day.TotalHours)
			} else if day.TotalHours.GreaterThan(eight) {
				summary.NormalOT = summary.NormalOT.Add(day.TotalHours.Sub(eight))
			}
		}
	}

	return report, nil
}

// enrich fills employee and trade display names on entries, with "N/A"
// when the trade is unset.
func (s *TimesheetService) enrich(ctx context.Context, entries []*model.TimesheetEntry) error {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(employees))
	for _, emp := range employees {
		names[emp.EmpNo] = emp.Name
	}

	trades, err := s.employees.ListTrades(ctx)
	if err != nil {
		return err
	}
	tradeNames := make(map[int64]string, len(trades))
	for _, tr := range trades {
		tradeNames[tr.ID] = tr.TradeName
	}

	for _, e := range entries {
		e.EmployeeName = names[e.EmpNo]
		e.TradeName = "N/A"
		if e.TradeID != nil {
			if name, ok := tradeNames[*e.TradeID]; ok {
				e.TradeName = name
			}
		}
	}
	return nil
}

func (s *TimesheetService) classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrTimesheetNotFound):
		return ErrTimesheetNotFound
	case errors.Is(err, repository.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, ErrInvalidTime), errors.Is(err, ErrDayLimitExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
}

// parseTimeOfDay converts "HH:MM" into minutes since midnight.
func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(model.TimeOfDayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutesOfDay(s string) int {
	m, _ := parseTimeOfDay(s)
	return m
}

func hoursFromMinutes(minutes int) decimal.Decimal {
	if minutes < 0 {
		minutes = 0
	}
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}
