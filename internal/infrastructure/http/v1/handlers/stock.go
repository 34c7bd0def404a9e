package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/registers/stock"
	"tradebook/internal/infrastructure/export"
)

// StockHandler handles HTTP requests for stock balances and movements.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// Counters handles GET /registers/stock/products/:id.
// Returns the per-branch counters of one product.
func (h *StockHandler) Counters(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	counters, err := h.service.Counters(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, counters)
}

// BranchStock handles GET /registers/stock/branches/:branch.
func (h *StockHandler) BranchStock(c *gin.Context) {
	b, err := branch.Parse(c.Param("branch"))
	if err != nil {
		h.Error(c, err)
		return
	}

	balances, err := h.service.BranchStock(c.Request.Context(), b)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, balances)
}

// ExportBranchStock handles GET /registers/stock/branches/:branch/export.
func (h *StockHandler) ExportBranchStock(c *gin.Context) {
	b, err := branch.Parse(c.Param("branch"))
	if err != nil {
		h.Error(c, err)
		return
	}

	balances, err := h.service.BranchStock(c.Request.Context(), b)
	if err != nil {
		h.Error(c, err)
		return
	}

	buf, err := export.StockWorkbook(balances)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	h.XLSX(c, "stock-"+b.String()+".xlsx", buf.Bytes())
}

// Movements handles GET /registers/stock/products/:id/movements.
func (h *StockHandler) Movements(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	filter := stock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if branchName := c.Query("branch"); branchName != "" {
		b, err := branch.Parse(branchName)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.Branch = &b
	}

	if recordType := c.Query("recordType"); recordType != "" {
		rt := stock.RecordType(recordType)
		filter.RecordType = &rt
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.FromDate = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.ToDate = &parsed
		}
	}

	movements, err := h.service.MovementHistory(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, movements)
}

// Turnover handles GET /registers/stock/turnover.
func (h *StockHandler) Turnover(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		h.Error(c, apperror.NewValidation("from and to are required"))
		return
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid from date").WithDetail("error", err.Error()))
		return
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid to date").WithDetail("error", err.Error()))
		return
	}

	filter := stock.TurnoverFilter{
		FromDate: from,
		ToDate:   to.AddDate(0, 0, 1),
	}

	if branchName := c.Query("branch"); branchName != "" {
		b, err := branch.Parse(branchName)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.Branch = &b
	}

	if productIDStr := c.Query("productId"); productIDStr != "" {
		productID, err := id.Parse(productIDStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId"))
			return
		}
		filter.ProductID = &productID
	}

	turnover, err := h.service.GetTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, turnover)
}
