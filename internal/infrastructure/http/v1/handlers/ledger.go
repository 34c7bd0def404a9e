package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tradebook/internal/core/apperror"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/infrastructure/export"
)

// LedgerHandler handles HTTP requests for the financial ledger.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

func (h *LedgerHandler) buildFilter(c *gin.Context) (ledger.Filter, bool) {
	filter := ledger.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if entryType := c.Query("type"); entryType != "" {
		t := ledger.EntryType(entryType)
		filter.Type = &t
	}

	if branchName := c.Query("branch"); branchName != "" {
		b, err := branch.Parse(branchName)
		if err != nil {
			h.Error(c, err)
			return filter, false
		}
		filter.Branch = &b
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

	return filter, true
}

// List handles GET /registers/ledger.
func (h *LedgerHandler) List(c *gin.Context) {
	filter, ok := h.buildFilter(c)
	if !ok {
		return
	}

	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entries)
}

// EntriesFor handles GET /registers/ledger/source/:id.
// Returns all entries written for one document, reversal included.
func (h *LedgerHandler) EntriesFor(c *gin.Context) {
	sourceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	entries, err := h.service.EntriesFor(c.Request.Context(), sourceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entries)
}

// Totals handles GET /registers/ledger/totals.
func (h *LedgerHandler) Totals(c *gin.Context) {
	filter, ok := h.buildFilter(c)
	if !ok {
		return
	}

	totals, err := h.service.Totals(c.Request.Context(), filter)
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

// Export handles GET /registers/ledger/export.
func (h *LedgerHandler) Export(c *gin.Context) {
	filter, ok := h.buildFilter(c)
	if !ok {
		return
	}

	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	buf, err := export.LedgerWorkbook(entries)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}

	h.XLSX(c, "ledger.xlsx", buf.Bytes())
}
