package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fasthttp/router"
	"github.com/crewpay/payroll-ledger/internal/deduction"
	"github.com/crewpay/payroll-ledger/internal/model"
	"github.com/crewpay/payroll-ledger/internal/services"
	xhttp "github.com/crewpay/payroll-ledger/pkg/http"
	"github.com/shopspring/decimal"
)

type LedgerService interface {
	GrantAdvance(ctx context.Context, req model.GrantAdvanceRequest) (*model.GrantAdvanceResult, error)
	IncreaseAdvance(ctx context.Context, req model.IncreaseAdvanceRequest) (decimal.Decimal, error)
	SetPayment(ctx context.Context, req model.SetPaymentRequest) (*model.SetPaymentResult, error)
	UpdateInstallment(ctx context.Context, req model.UpdateInstallmentRequest) (*model.UpdateInstallmentResult, error)
	GetBalance(ctx context.Context, empNo string) (*model.AccountBalance, error)
	GetHistory(ctx context.Context, empNo string) ([]*model.AdvanceTransaction, error)
	GetAllBalances(ctx context.Context) ([]*model.AccountBalance, error)
}

type DeductionRunner interface {
	Trigger(ctx context.Context) (int, error)
}

type LedgerHandler struct {
	svc    LedgerService
	runner DeductionRunner
}

func RegisterLedgerRoutes(e *router.Group, h *LedgerHandler) {
	e.POST("/advances", h.GrantAdvance)
	e.POST("/advances/increase", h.IncreaseAdvance)
	e.GET("/advances/balances", h.ListBalances)
	e.GET("/advances/{emp_no}/balance", h.GetBalance)
	e.GET("/advances/{emp_no}/history", h.GetHistory)
	e.PUT("/advances/{emp_no}/installment", h.UpdateInstallment)
	e.PUT("/payments/{emp_no}/{ym}", h.SetPayment)
	e.POST("/deductions/run", h.RunDeductions)
}

func NewLedgerHandler(ledgerService LedgerService, runner DeductionRunner) *LedgerHandler {
	return &LedgerHandler{
		svc:    ledgerService,
		runner: runner,
	}
}

type grantAdvanceRequest struct {
	EmpNo              string          `json:"emp_no"`
	Amount             decimal.Decimal `json:"amount"`
	Date               string          `json:"date"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Note               string          `json:"note"`
}

type increaseAdvanceRequest struct {
	EmpNo  string          `json:"emp_no"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Note   string          `json:"note"`
}

type setPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type updateInstallmentRequest struct {
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Period             string          `json:"period"`
	ApplyToMonth       *bool           `json:"apply_to_month"`
	Note               string          `json:"note"`
}

type balanceListResponse struct {
	Items []*model.AccountBalance `json:"items"`
	Total int                     `json:"total"`
}

type historyResponse struct {
	Items []*model.AdvanceTransaction `json:"items"`
	Total int                         `json:"total"`
}

type deductionRunResponse struct {
	Deducted int `json:"deducted"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *LedgerHandler) GrantAdvance(ctx *xhttp.RequestCtx) {
	var req grantAdvanceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	p := model.GrantAdvanceRequest{
		EmpNo:              req.EmpNo,
		Amount:             req.Amount,
		MonthlyInstallment: req.MonthlyInstallment,
		Note:               req.Note,
	}
	if req.Date != "" {
		t, err := parseTime(req.Date)
		if err != nil {
			writeError(ctx, 400, "invalid date: "+req.Date)
			return
		}
		p.OccurredOn = t
	}

	result, err := h.svc.GrantAdvance(ctx, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, result)
}

func (h *LedgerHandler) IncreaseAdvance(ctx *xhttp.RequestCtx) {
	var req increaseAdvanceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	p := model.IncreaseAdvanceRequest{
		EmpNo:  req.EmpNo,
		Amount: req.Amount,
		Note:   req.Note,
	}
	if req.Date != "" {
		t, err := parseTime(req.Date)
		if err != nil {
			writeError(ctx, 400, "invalid date: "+req.Date)
			return
		}
		p.OccurredOn = t
	}

	balance, err := h.svc.IncreaseAdvance(ctx, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]any{"emp_no": req.EmpNo, "balance": balance})
}

func (h *LedgerHandler) SetPayment(ctx *xhttp.RequestCtx) {
	var req setPaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.svc.SetPayment(ctx, model.SetPaymentRequest{
		EmpNo:  param(ctx, "emp_no"),
		Period: param(ctx, "ym"),
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	status := 200
	if result.Created {
		status = 201
	}
	writeJSON(ctx, status, result)
}

func (h *LedgerHandler) UpdateInstallment(ctx *xhttp.RequestCtx) {
	var req updateInstallmentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	// The current month's payment follows the new installment unless the
	// caller opts out.
	applyToMonth := true
	if req.ApplyToMonth != nil {
		applyToMonth = *req.ApplyToMonth
	}

	result, err := h.svc.UpdateInstallment(ctx, model.UpdateInstallmentRequest{
		EmpNo:              param(ctx, "emp_no"),
		MonthlyInstallment: req.MonthlyInstallment,
		Period:             req.Period,
		ApplyToMonth:       applyToMonth,
		Note:               req.Note,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, result)
}

func (h *LedgerHandler) GetBalance(ctx *xhttp.RequestCtx) {
	balance, err := h.svc.GetBalance(ctx, param(ctx, "emp_no"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, balance)
}

func (h *LedgerHandler) GetHistory(ctx *xhttp.RequestCtx) {
	items, err := h.svc.GetHistory(ctx, param(ctx, "emp_no"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, historyResponse{Items: items, Total: len(items)})
}

func (h *LedgerHandler) ListBalances(ctx *xhttp.RequestCtx) {
	items, err := h.svc.GetAllBalances(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, balanceListResponse{Items: items, Total: len(items)})
}

func (h *LedgerHandler) RunDeductions(ctx *xhttp.RequestCtx) {
	deducted, err := h.runner.Trigger(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, deductionRunResponse{Deducted: deducted})
}

/* --------------------------------- Helpers ----------------------------------- */

func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	writeError(ctx, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrNoTransactions),
		errors.Is(err, services.ErrTimesheetNotFound),
		errors.Is(err, services.ErrEntryNotFound),
		errors.Is(err, services.ErrEmployeeNotFound):
		return 404
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidPeriod),
		errors.Is(err, services.ErrOverpaymentRejected),
		errors.Is(err, services.ErrInvalidTime),
		errors.Is(err, services.ErrDayLimitExceeded):
		return 400
	case errors.Is(err, deduction.ErrRunInProgress):
		return 409
	case errors.Is(err, services.ErrTransientStore):
		return 503
	default:
		return 500
	}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func param(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
