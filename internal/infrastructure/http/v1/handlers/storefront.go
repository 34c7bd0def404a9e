package handlers

import (
	"github.com/gin-gonic/gin"

	"tradebook/internal/domain/storefront"
)

// StorefrontHandler serves the public product availability listing.
type StorefrontHandler struct {
	*BaseHandler
	service *storefront.Service
}

// NewStorefrontHandler creates a new storefront handler.
func NewStorefrontHandler(base *BaseHandler, service *storefront.Service) *StorefrontHandler {
	return &StorefrontHandler{BaseHandler: base, service: service}
}

// List handles GET /storefront/availability.
// Public endpoint, served from cache when warm.
func (h *StorefrontHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, items)
}
