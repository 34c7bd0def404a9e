// Package sale provides the sale document and its stock/ledger effects.
package sale

import (
	"context"
	"fmt"
	"time"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
)

// DocumentType is the source-type tag written to registers.
const DocumentType = "Sale"

// Direction is the semantic type of a sale record.
type Direction string

const (
	// DirectionSale moves stock out of the branch
	DirectionSale Direction = "sale"
	// DirectionReturn moves stock back into the branch
	DirectionReturn Direction = "return"
	// DirectionExchange is recorded with no stock or ledger effect
	DirectionExchange Direction = "exchange"
	// DirectionWarranty is recorded with no stock or ledger effect
	DirectionWarranty Direction = "warranty"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case DirectionSale, DirectionReturn, DirectionExchange, DirectionWarranty:
		return true
	}
	return false
}

// StockSign returns the per-unit stock effect: -1 for sale, +1 for
// return, 0 for exchange and warranty (extension point, intentionally
// unwired).
func (d Direction) StockSign() int {
	switch d {
	case DirectionSale:
		return -1
	case DirectionReturn:
		return +1
	}
	return 0
}

// Sale is a sale record: one customer transaction at one branch.
type Sale struct {
	ID id.ID `db:"id" json:"id"`

	// Number is the invoice number (YYYYMMDD + same-day sequence)
	Number string `db:"number" json:"number"`

	// Date is the business date of the sale
	Date time.Time `db:"date" json:"date"`

	Direction Direction     `db:"direction" json:"direction"`
	Branch    branch.Branch `db:"branch" json:"branch"`

	// TotalAmount is computed from lines at save time, never entered
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Comment string `db:"comment" json:"comment,omitempty"`

	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`
	Version      int  `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`

	// Table part
	Lines []Line `db:"-" json:"lines"`
}

// Line is one line item of a sale.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Amount    types.Money    `db:"amount" json:"amount"`
}

// New creates a sale record.
func New(direction Direction, b branch.Branch, date time.Time) *Sale {
	now := time.Now().UTC()
	return &Sale{
		ID:        id.New(),
		Date:      date,
		Direction: direction,
		Branch:    b,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Lines:     make([]Line, 0),
	}
}

// AddLine appends a line and recalculates totals.
func (s *Sale) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.Money) {
	line := Line{
		LineID:    id.New(),
		LineNo:    len(s.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    unitPrice.Mul(quantity.Decimal()),
	}
	s.Lines = append(s.Lines, line)
	s.recalculateTotals()
}

// SetLines replaces the table part and recalculates totals.
func (s *Sale) SetLines(lines []Line) {
	s.Lines = make([]Line, 0, len(lines))
	for _, l := range lines {
		s.AddLine(l.ProductID, l.Quantity, l.UnitPrice)
	}
}

func (s *Sale) recalculateTotals() {
	total := types.ZeroMoney()
	for i := range s.Lines {
		s.Lines[i].Amount = s.Lines[i].UnitPrice.Mul(s.Lines[i].Quantity.Decimal())
		total = total.Add(s.Lines[i].Amount)
	}
	s.TotalAmount = total
}

// Touch updates the timestamp and bumps the version.
func (s *Sale) Touch() {
	s.UpdatedAt = time.Now().UTC()
	s.Version++
}

// Validate checks sale invariants.
func (s *Sale) Validate(ctx context.Context) error {
	if !s.Direction.Valid() {
		return apperror.NewValidation("unknown direction").
			WithDetail("direction", string(s.Direction))
	}
	if !s.Branch.Valid() {
		return apperror.NewValidation("unknown branch").
			WithDetail("branch", string(s.Branch))
	}
	if s.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if len(s.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	for i, line := range s.Lines {
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
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// CanModify checks whether the record accepts edits.
func (s *Sale) CanModify() error {
	if s.DeletionMark {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Cannot modify a deleted sale.",
		).WithDetail("sale_id", s.ID.String())
	}
	return nil
}

// StockAdjustments returns the signed register deltas of this record.
// sign = +1 applies the record, sign = -1 reverts it.
func (s *Sale) StockAdjustments(sign int) []stock.Adjustment {
	dirSign := s.Direction.StockSign()
	if dirSign == 0 || sign == 0 {
		return nil
	}

	adjustments := make([]stock.Adjustment, 0, len(s.Lines))
	for _, line := range s.Lines {
		adjustments = append(adjustments, stock.Adjustment{
			ProductID:  line.ProductID,
			Branch:     s.Branch,
			Delta:      types.Quantity(int64(dirSign*sign) * line.Quantity.Int64()),
			SourceID:   s.ID,
			SourceType: DocumentType,
			Period:     s.Date,
		})
	}
	return adjustments
}

// StockRequirements returns the availability checks for this record.
// Only direction=sale checks a ceiling; returns may push stock
// arbitrarily high.
func (s *Sale) StockRequirements() []stock.Requirement {
	if s.Direction != DirectionSale {
		return nil
	}
	reqs := make([]stock.Requirement, 0, len(s.Lines))
	for _, line := range s.Lines {
		reqs = append(reqs, stock.Requirement{
			ProductID: line.ProductID,
			Branch:    s.Branch,
			Quantity:  line.Quantity,
		})
	}
	return reqs
}

// LedgerEntry builds the financial entry recorded with this sale, or nil
// for directions with no defined financial effect.
func (s *Sale) LedgerEntry() *ledger.Entry {
	switch s.Direction {
	case DirectionSale:
		return ledger.NewInbound(
			ledger.EntryTypeSale,
			s.Date,
			fmt.Sprintf("Sale %s", s.Number),
			s.TotalAmount,
			s.Branch,
		).WithSource(s.ID, DocumentType)
	case DirectionReturn:
		return ledger.NewOutbound(
			ledger.EntryTypeSaleReturn,
			s.Date,
			fmt.Sprintf("Return %s", s.Number),
			s.TotalAmount,
			s.Branch,
		).WithSource(s.ID, DocumentType)
	}
	return nil
}

// ReversalEntry builds the reversing financial entry appended when the
// record is deleted: the opposite direction of the original entry. The
// original entry stays in the ledger untouched.
func (s *Sale) ReversalEntry() *ledger.Entry {
	switch s.Direction {
	case DirectionSale:
		return ledger.NewOutbound(
			ledger.EntryTypeSaleReversal,
			time.Now().UTC(),
			fmt.Sprintf("Reversal of sale %s", s.Number),
			s.TotalAmount,
			s.Branch,
		).WithSource(s.ID, DocumentType)
	case DirectionReturn:
		return ledger.NewInbound(
			ledger.EntryTypeSaleReversal,
			time.Now().UTC(),
			fmt.Sprintf("Reversal of return %s", s.Number),
			s.TotalAmount,
			s.Branch,
		).WithSource(s.ID, DocumentType)
	}
	return nil
}
