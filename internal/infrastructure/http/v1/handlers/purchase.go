package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradebook/internal/core/apperror"
	"tradebook/internal/domain"
	"tradebook/internal/domain/documents/purchase"
	"tradebook/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles HTTP requests for purchase orders.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase order handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Create handles POST /documents/purchase-orders.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Create(c.Request.Context(), order); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// Get handles GET /documents/purchase-orders/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Update handles PUT /documents/purchase-orders/:id (pending orders only).
func (h *PurchaseHandler) Update(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(order); err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("error", err.Error()))
		return
	}

	if err := h.service.Update(c.Request.Context(), order); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Receive handles POST /documents/purchase-orders/:id/receive.
// Puts the ordered goods on stock at the chosen branch and closes the
// order; a second receive attempt is rejected.
func (h *PurchaseHandler) Receive(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReceivePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	confirmed, err := req.ConfirmedByProduct()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id in confirmed quantities").WithDetail("error", err.Error()))
		return
	}

	order, err := h.service.Receive(c.Request.Context(), orderID, confirmed, req.DestinationBranch)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, order)
}

// Cancel handles POST /documents/purchase-orders/:id/cancel.
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "order cancelled")
}

// List handles GET /documents/purchase-orders.
func (h *PurchaseHandler) List(c *gin.Context) {
	filter := purchase.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.Supplier = c.Query("supplier")

	if status := c.Query("status"); status != "" {
		s := purchase.Status(status)
		filter.Status = &s
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromListResult(result))
}
