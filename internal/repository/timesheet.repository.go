package repository

import (
	"context"
	"errors"
	"time"

	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrTimesheetNotFound = errors.New("timesheet not found")
	ErrEntryNotFound     = errors.New("timesheet entry not found")
)

type TimesheetRepository struct {
	*pg.DB
}

func NewTimesheetRepository(db *pg.DB) *TimesheetRepository {
	return &TimesheetRepository{
		db,
	}
}

func (r *TimesheetRepository) Create(ctx context.Context, ts *model.Timesheet) (*model.Timesheet, error) {
	entity := toTimesheetEntity(ts)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toTimesheetModel(entity), nil
}

func (r *TimesheetRepository) CreateEntry(ctx context.Context, entry *model.TimesheetEntry) (*model.TimesheetEntry, error) {
	entity := toEntryEntity(entry)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toEntryModel(entity), nil
}

func (r *TimesheetRepository) Get(ctx context.Context, id int64) (*model.Timesheet, error) {
	var entity TimesheetEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimesheetNotFound
		}
		return nil, err
	}

	return toTimesheetModel(&entity), nil
}

func (r *TimesheetRepository) List(ctx context.Context) ([]*model.Timesheet, error) {
	var entities []*TimesheetEntity

	err := r.Read(ctx).WithContext(ctx).
		Order("date DESC").
		Order("id DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	sheets := make([]*model.Timesheet, len(entities))
	for i, e := range entities {
		sheets[i] = toTimesheetModel(e)
	}
	return sheets, nil
}

func (r *TimesheetRepository) ListBetween(ctx context.Context, start, end time.Time) ([]*model.Timesheet, error) {
	var entities []*TimesheetEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("date >= ? AND date <= ?", start, end).
		Order("date ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	sheets := make([]*model.Timesheet, len(entities))
	for i, e := range entities {
		sheets[i] = toTimesheetModel(e)
	}
	return sheets, nil
}

func (r *TimesheetRepository) ListEntries(ctx context.Context, timesheetID int64) ([]*model.TimesheetEntry, error) {
	var entities []*TimesheetEntryEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("timesheet_id = ?", timesheetID).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	return toEntryModels(entities), nil
}

func (r *TimesheetRepository) ListEntriesForTimesheets(ctx context.Context, timesheetIDs []int64) ([]*model.TimesheetEntry, error) {
	if len(timesheetIDs) == 0 {
		return nil, nil
	}

	var entities []*TimesheetEntryEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("timesheet_id IN ?", timesheetIDs).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	return toEntryModels(entities), nil
}

// SumHoursForDay totals an employee's booked hours across every
// timesheet dated that day. The 24-hour cap check runs against this.
func (r *TimesheetRepository) SumHoursForDay(ctx context.Context, empNo string, day time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal

	err := r.Write(ctx).WithContext(ctx).
		Model(&TimesheetEntryEntity{}).
		Joins("JOIN timesheets ON timesheets.id = timesheet_entries.timesheet_id").
		Where("timesheets.date = ? AND timesheet_entries.emp_no = ?", day, empNo).
		Select("COALESCE(SUM(timesheet_entries.total_hours), 0)").
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

func (r *TimesheetRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&TimesheetEntity{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTimesheetNotFound
	}
	return nil
}

func (r *TimesheetRepository) UpdateEntry(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&TimesheetEntryEntity{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
