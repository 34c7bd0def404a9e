// Package purchase provides the purchase order document.
package purchase

import (
	"context"
	"time"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
)

// DocumentType is the source-type tag written to registers.
const DocumentType = "PurchaseOrder"

// Status is the purchase order lifecycle state.
type Status string

const (
	// StatusPending accepts edits, receipt and cancellation
	StatusPending Status = "pending"
	// StatusCompleted is terminal; set once at receipt
	StatusCompleted Status = "completed"
	// StatusCancelled is terminal; no stock effect
	StatusCancelled Status = "cancelled"
)

// Order is a purchase order to a supplier. Its stock effect is applied
// exactly once, when the order is received; the destination branch is
// chosen at receipt time, not at creation.
type Order struct {
	ID     id.ID  `db:"id" json:"id"`
	Number string `db:"number" json:"number"`

	Date     time.Time `db:"date" json:"date"`
	Supplier string    `db:"supplier" json:"supplier"`

	Status Status `db:"status" json:"status"`

	// TotalAmount is computed from lines
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	// DestinationBranch is assigned when the order is received
	DestinationBranch *branch.Branch `db:"destination_branch" json:"destinationBranch,omitempty"`
	ReceivedAt        *time.Time     `db:"received_at" json:"receivedAt,omitempty"`

	Comment string `db:"comment" json:"comment,omitempty"`
	Version int    `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one ordered item. ReceivedQuantity is filled at receipt and
// may differ from the ordered quantity (partial or adjusted receipt).
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID        id.ID          `db:"product_id" json:"productId"`
	Quantity         types.Quantity `db:"quantity" json:"quantity"`
	PurchasePrice    types.Money    `db:"purchase_price" json:"purchasePrice"`
	Amount           types.Money    `db:"amount" json:"amount"`
	ReceivedQuantity types.Quantity `db:"received_quantity" json:"receivedQuantity"`
}

// New creates a pending purchase order.
func New(supplier string, date time.Time) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        id.New(),
		Date:      date,
		Supplier:  supplier,
		Status:    StatusPending,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Lines:     make([]Line, 0),
	}
}

// AddLine appends a line and recalculates totals.
func (o *Order) AddLine(productID id.ID, quantity types.Quantity, purchasePrice types.Money) {
	line := Line{
		LineID:        id.New(),
		LineNo:        len(o.Lines) + 1,
		ProductID:     productID,
		Quantity:      quantity,
		PurchasePrice: purchasePrice,
		Amount:        purchasePrice.Mul(quantity.Decimal()),
	}
	o.Lines = append(o.Lines, line)
	o.recalculateTotals()
}

func (o *Order) recalculateTotals() {
	total := types.ZeroMoney()
	for i := range o.Lines {
		o.Lines[i].Amount = o.Lines[i].PurchasePrice.Mul(o.Lines[i].Quantity.Decimal())
		total = total.Add(o.Lines[i].Amount)
	}
	o.TotalAmount = total
}

// Touch updates the timestamp and bumps the version.
func (o *Order) Touch() {
	o.UpdatedAt = time.Now().UTC()
	o.Version++
}

// Validate checks order invariants.
func (o *Order) Validate(ctx context.Context) error {
	if o.Supplier == "" {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplier")
	}
	if o.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if len(o.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, line := range o.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.PurchasePrice.IsNegative() {
			return apperror.NewValidation("purchase price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// CanModify rejects edits on terminal orders. An order becomes immutable
// once received or cancelled.
func (o *Order) CanModify() error {
	if o.Status != StatusPending {
		return apperror.NewOrderClosed(o.ID.String(), string(o.Status))
	}
	return nil
}

// MarkReceived transitions the order to its terminal completed state.
func (o *Order) MarkReceived(dest branch.Branch, at time.Time) {
	o.Status = StatusCompleted
	o.DestinationBranch = &dest
	o.ReceivedAt = &at
	o.Touch()
}

// MarkCancelled transitions the order to cancelled.
func (o *Order) MarkCancelled() {
	o.Status = StatusCancelled
	o.Touch()
}

// ReceivedTotal sums confirmed quantity times purchase price.
func (o *Order) ReceivedTotal() types.Money {
	total := types.ZeroMoney()
	for _, line := range o.Lines {
		total = total.Add(line.PurchasePrice.Mul(line.ReceivedQuantity.Decimal()))
	}
	return total
}
