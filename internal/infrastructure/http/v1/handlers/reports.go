package handlers

import (
	"github.com/gin-gonic/gin"

	"tradebook/internal/core/apperror"
	"tradebook/internal/domain/reports"
	"tradebook/internal/infrastructure/export"
	"tradebook/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for management reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// SalesSummary handles GET /reports/sales-summary.
// Per-branch sale and return totals over a period.
func (h *ReportsHandler) SalesSummary(c *gin.Context) {
	var req dto.PeriodRequest
	if !h.BindQuery(c, &req) {
		return
	}

	summary, err := h.service.SalesSummary(c.Request.Context(), req.ToPeriod())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// Profit handles GET /reports/profit.
func (h *ReportsHandler) Profit(c *gin.Context) {
	var req dto.PeriodRequest
	if !h.BindQuery(c, &req) {
		return
	}

	report, err := h.service.Profit(c.Request.Context(), req.ToPeriod())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// ExportProfit handles GET /reports/profit/export.
func (h *ReportsHandler) ExportProfit(c *gin.Context) {
	var req dto.PeriodRequest
	if !h.BindQuery(c, &req) {
		return
	}

	report, err := h.service.Profit(c.Request.Context(), req.ToPeriod())
	if err != nil {
		h.Error(c, err)
		return
	}

	buf, err := export.ProfitWorkbook(report)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	h.XLSX(c, "profit.xlsx", buf.Bytes())
}

// CashFlow handles GET /reports/cash-flow.
func (h *ReportsHandler) CashFlow(c *gin.Context) {
	var req dto.PeriodRequest
	if !h.BindQuery(c, &req) {
		return
	}

	totals, err := h.service.CashFlow(c.Request.Context(), req.ToPeriod())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"in":  totals.In,
		"out": totals.Out,
		"net": totals.Net(),
	})
}
