package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/crewpay/payroll-ledger/internal/model"
	xhttp "github.com/crewpay/payroll-ledger/pkg/http"
	"github.com/shopspring/decimal"
)

type TimesheetService interface {
	Create(ctx context.Context, ts *model.Timesheet) ([]*model.Timesheet, error)
	Get(ctx context.Context, id int64) (*model.Timesheet, error)
	List(ctx context.Context) ([]*model.Timesheet, error)
	Update(ctx context.Context, id int64, upd model.TimesheetUpdate) error
	UpdateEntry(ctx context.Context, id int64, upd model.TimesheetEntryUpdate) error
	Summary(ctx context.Context, start, end time.Time) ([]*model.EmployeeSummary, error)
}

type TimesheetHandler struct {
	svc TimesheetService
}

func RegisterTimesheetRoutes(e *router.Group, h *TimesheetHandler) {
	e.POST("/timesheets", h.CreateTimesheet)
	e.GET("/timesheets", h.ListTimesheets)
	e.GET("/timesheets/summary", h.Summary)
	e.GET("/timesheets/{id}", h.GetTimesheet)
	e.PUT("/timesheets/{id}", h.UpdateTimesheet)
	e.PUT("/timesheets/entries/{id}", h.UpdateEntry)
}

func NewTimesheetHandler(timesheetService TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{
		svc: timesheetService,
	}
}

type createEntryRequest struct {
	EmpNo        string          `json:"emp_no"`
	TradeID      *int64          `json:"trade_id"`
	FromTime     string          `json:"from_time"`
	ToTime       string          `json:"to_time"`
	BreakMinutes int             `json:"break_minutes"`
	TotalHours   decimal.Decimal `json:"total_hours"`
	Remarks      string          `json:"remarks"`
}

type createTimesheetRequest struct {
	Date         string               `json:"date"`
	JobNo        string               `json:"job_no"`
	Ship         string               `json:"ship"`
	Site         string               `json:"site"`
	SheetNo      string               `json:"sheet_no"`
	CheckedBy    string               `json:"checked_by"`
	AuthorizedBy string               `json:"authorized_by"`
	ForCompany   string               `json:"for_company"`
	Entries      []createEntryRequest `json:"entries"`
}

type timesheetListResponse struct {
	Items []*model.Timesheet `json:"items"`
	Total int                `json:"total"`
}

type summaryResponse struct {
	Start string                   `json:"start"`
	End   string                   `json:"end"`
	Items []*model.EmployeeSummary `json:"items"`
}

func (h *TimesheetHandler) CreateTimesheet(ctx *xhttp.RequestCtx) {
	var req createTimesheetRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	date, err := parseTime(req.Date)
	if err != nil {
		writeError(ctx, 400, "invalid date: "+req.Date)
		return
	}

	ts := &model.Timesheet{
		Date:         date,
		JobNo:        req.JobNo,
		Ship:         req.Ship,
		Site:         req.Site,
		SheetNo:      req.SheetNo,
		CheckedBy:    req.CheckedBy,
		AuthorizedBy: req.AuthorizedBy,
		ForCompany:   req.ForCompany,
	}
	for _, e := range req.Entries {
		ts.Entries = append(ts.Entries, &model.TimesheetEntry{
			EmpNo:        e.EmpNo,
			TradeID:      e.TradeID,
			FromTime:     e.FromTime,
			ToTime:       e.ToTime,
			BreakMinutes: e.BreakMinutes,
			TotalHours:   e.TotalHours,
			Remarks:      e.Remarks,
		})
	}

	created, err := h.svc.Create(ctx, ts)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, timesheetListResponse{Items: created, Total: len(created)})
}

func (h *TimesheetHandler) GetTimesheet(ctx *xhttp.RequestCtx) {
	id, err := paramID(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid timesheet id")
		return
	}

	ts, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, ts)
}

func (h *TimesheetHandler) ListTimesheets(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, timesheetListResponse{Items: items, Total: len(items)})
}

func (h *TimesheetHandler) UpdateTimesheet(ctx *xhttp.RequestCtx) {
	id, err := paramID(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid timesheet id")
		return
	}

	var upd model.TimesheetUpdate
	if err := readJSON(ctx, &upd); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.Update(ctx, id, upd); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "updated"})
}

func (h *TimesheetHandler) UpdateEntry(ctx *xhttp.RequestCtx) {
	id, err := paramID(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid entry id")
		return
	}

	var upd model.TimesheetEntryUpdate
	if err := readJSON(ctx, &upd); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.UpdateEntry(ctx, id, upd); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"status": "updated"})
}

func (h *TimesheetHandler) Summary(ctx *xhttp.RequestCtx) {
	start, err := parseTime(query(ctx, "start"))
	if err != nil {
		writeError(ctx, 400, "invalid start date")
		return
	}
	end, err := parseTime(query(ctx, "end"))
	if err != nil {
		writeError(ctx, 400, "invalid end date")
		return
	}
	if end.Before(start) {
		writeError(ctx, 400, "end date before start date")
		return
	}

	items, err := h.svc.Summary(ctx, start, end)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, summaryResponse{
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
		Items: items,
	})
}

func paramID(ctx *xhttp.RequestCtx, name string) (int64, error) {
	return strconv.ParseInt(param(ctx, name), 10, 64)
}
