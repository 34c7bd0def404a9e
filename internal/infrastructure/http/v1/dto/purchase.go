package dto

import (
	"time"

	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/documents/purchase"
)

// CreatePurchaseOrderRequest represents a request to create a purchase order.
type CreatePurchaseOrderRequest struct {
	Date     time.Time                  `json:"date" binding:"required"`
	Supplier string                     `json:"supplier" binding:"required"`
	Comment  string                     `json:"comment,omitempty"`
	Lines    []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseOrderLineRequest represents a line in a create/update request.
type PurchaseOrderLineRequest struct {
	ProductID     string         `json:"productId" binding:"required"`
	Quantity      types.Quantity `json:"quantity" binding:"required"`
	PurchasePrice types.Money    `json:"purchasePrice"`
}

// ToEntity converts request to domain entity.
func (r *CreatePurchaseOrderRequest) ToEntity() (*purchase.Order, error) {
	order := purchase.New(r.Supplier, r.Date)
	order.Comment = r.Comment

	for _, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		order.AddLine(productID, line.Quantity, line.PurchasePrice)
	}

	return order, nil
}

// UpdatePurchaseOrderRequest represents a request to edit a pending order.
type UpdatePurchaseOrderRequest struct {
	Date     *time.Time                 `json:"date,omitempty"`
	Supplier *string                    `json:"supplier,omitempty"`
	Comment  *string                    `json:"comment,omitempty"`
	Lines    []PurchaseOrderLineRequest `json:"lines,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdatePurchaseOrderRequest) ApplyTo(order *purchase.Order) error {
	if r.Date != nil {
		order.Date = *r.Date
	}
	if r.Supplier != nil {
		order.Supplier = *r.Supplier
	}
	if r.Comment != nil {
		order.Comment = *r.Comment
	}

	if r.Lines != nil {
		order.Lines = order.Lines[:0]
		for _, line := range r.Lines {
			productID, err := id.Parse(line.ProductID)
			if err != nil {
				return err
			}
			order.AddLine(productID, line.Quantity, line.PurchasePrice)
		}
	}
	return nil
}

// ReceivePurchaseOrderRequest confirms receipt of a pending order.
// Confirmed quantities override the ordered ones per line; lines absent
// from the map are received as ordered, zero skips the line entirely.
type ReceivePurchaseOrderRequest struct {
	DestinationBranch branch.Branch             `json:"destinationBranch" binding:"required"`
	Confirmed         map[string]types.Quantity `json:"confirmed,omitempty"`
}

// ConfirmedByProduct converts the string-keyed map into id-keyed form.
func (r *ReceivePurchaseOrderRequest) ConfirmedByProduct() (map[id.ID]types.Quantity, error) {
	if r.Confirmed == nil {
		return nil, nil
	}
	confirmed := make(map[id.ID]types.Quantity, len(r.Confirmed))
	for key, qty := range r.Confirmed {
		productID, err := id.Parse(key)
		if err != nil {
			return nil, err
		}
		confirmed[productID] = qty
	}
	return confirmed, nil
}
