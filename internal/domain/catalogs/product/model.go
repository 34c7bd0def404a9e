// Package product provides the product catalog.
package product

import (
	"context"
	"time"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
)

// Product is a catalog item the business buys and sells.
type Product struct {
	ID id.ID `db:"id" json:"id"`

	// SKU is the human-entered article, unique across the catalog
	SKU  string `db:"sku" json:"sku"`
	Name string `db:"name" json:"name"`

	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`
	SellingPrice  types.Money `db:"selling_price" json:"sellingPrice"`

	// DeletionMark indicates a soft-deleted product
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a product with a generated ID.
func New(sku, name string, purchasePrice, sellingPrice types.Money) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:            id.New(),
		SKU:           sku,
		Name:          name,
		PurchasePrice: purchasePrice,
		SellingPrice:  sellingPrice,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Touch updates the timestamp and bumps the version.
func (p *Product) Touch() {
	p.UpdatedAt = time.Now().UTC()
	p.Version++
}

// Validate checks product invariants.
func (p *Product) Validate(ctx context.Context) error {
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.PurchasePrice.IsNegative() {
		return apperror.NewValidation("purchase price must not be negative").
			WithDetail("field", "purchasePrice")
	}
	if p.SellingPrice.IsNegative() {
		return apperror.NewValidation("selling price must not be negative").
			WithDetail("field", "sellingPrice")
	}
	return nil
}
