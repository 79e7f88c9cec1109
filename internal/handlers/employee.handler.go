package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/crewpay/payroll-ledger/internal/model"
	xhttp "github.com/crewpay/payroll-ledger/pkg/http"
)

type EmployeeService interface {
	Get(ctx context.Context, empNo string) (*model.Employee, error)
	List(ctx context.Context) ([]*model.Employee, error)
	ListTrades(ctx context.Context) ([]*model.Trade, error)
}

type EmployeeHandler struct {
	svc EmployeeService
}

func RegisterEmployeeRoutes(e *router.Group, h *EmployeeHandler) {
	e.GET("/employees", h.ListEmployees)
	e.GET("/employees/{emp_no}", h.GetEmployee)
	e.GET("/trades", h.ListTrades)
}

func NewEmployeeHandler(employeeService EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{
		svc: employeeService,
	}
}

type employeeListResponse struct {
	Items []*model.Employee `json:"items"`
	Total int               `json:"total"`
}

type tradeListResponse struct {
	Items []*model.Trade `json:"items"`
	Total int            `json:"total"`
}

func (h *EmployeeHandler) ListEmployees(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, employeeListResponse{Items: items, Total: len(items)})
}

func (h *EmployeeHandler) GetEmployee(ctx *xhttp.RequestCtx) {
	emp, err := h.svc.Get(ctx, param(ctx, "emp_no"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, emp)
}

func (h *EmployeeHandler) ListTrades(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListTrades(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tradeListResponse{Items: items, Total: len(items)})
}
