package dto

import (
	"time"

	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/documents/sale"
)

// CreateSaleRequest represents a request to record a sale transaction.
type CreateSaleRequest struct {
	Date      time.Time         `json:"date" binding:"required"`
	Direction sale.Direction    `json:"direction" binding:"required"`
	Branch    branch.Branch     `json:"branch" binding:"required"`
	Comment   string            `json:"comment,omitempty"`
	Lines     []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// SaleLineRequest represents a line in create/update request.
type SaleLineRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// ToEntity converts request to domain entity.
func (r *CreateSaleRequest) ToEntity() (*sale.Sale, error) {
	doc := sale.New(r.Direction, r.Branch, r.Date)
	doc.Comment = r.Comment

	for _, line := range r.Lines {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		doc.AddLine(productID, line.Quantity, line.UnitPrice)
	}

	return doc, nil
}

// UpdateSaleRequest represents a request to edit a sale transaction.
// The stock effect of the previous revision is reverted and the new
// effect applied; branch and direction may change between revisions.
type UpdateSaleRequest struct {
	Date      *time.Time        `json:"date,omitempty"`
	Direction *sale.Direction   `json:"direction,omitempty"`
	Branch    *branch.Branch    `json:"branch,omitempty"`
	Comment   *string           `json:"comment,omitempty"`
	Lines     []SaleLineRequest `json:"lines,omitempty"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateSaleRequest) ApplyTo(doc *sale.Sale) error {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Direction != nil {
		doc.Direction = *r.Direction
	}
	if r.Branch != nil {
		doc.Branch = *r.Branch
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}

	if r.Lines != nil {
		doc.SetLines(nil)
		for _, line := range r.Lines {
			productID, err := id.Parse(line.ProductID)
			if err != nil {
				return err
			}
			doc.AddLine(productID, line.Quantity, line.UnitPrice)
		}
	}
	return nil
}
