package dto

import (
	"tradebook/internal/core/types"
	"tradebook/internal/domain/catalogs/product"
)

// CreateProductRequest represents a request to create a product.
type CreateProductRequest struct {
	SKU           string      `json:"sku" binding:"required"`
	Name          string      `json:"name" binding:"required"`
	PurchasePrice types.Money `json:"purchasePrice"`
	SellingPrice  types.Money `json:"sellingPrice"`
}

// ToEntity converts request to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	return product.New(r.SKU, r.Name, r.PurchasePrice, r.SellingPrice)
}

// UpdateProductRequest represents a request to update a product.
type UpdateProductRequest struct {
	SKU           *string      `json:"sku,omitempty"`
	Name          *string      `json:"name,omitempty"`
	PurchasePrice *types.Money `json:"purchasePrice,omitempty"`
	SellingPrice  *types.Money `json:"sellingPrice,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.SKU != nil {
		p.SKU = *r.SKU
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.PurchasePrice != nil {
		p.PurchasePrice = *r.PurchasePrice
	}
	if r.SellingPrice != nil {
		p.SellingPrice = *r.SellingPrice
	}
}
