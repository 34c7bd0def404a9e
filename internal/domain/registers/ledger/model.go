// Package ledger provides the financial ledger: an append-only log of
// cash-in/cash-out entries. Entries are never updated or deleted;
// corrections are recorded as reversing entries.
package ledger

import (
	"context"
	"time"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
)

// EntryType tags the business origin of an entry.
type EntryType string

const (
	EntryTypeSale         EntryType = "sale"
	EntryTypeSaleReturn   EntryType = "sale_return"
	EntryTypeSaleReversal EntryType = "sale_reversal"
	EntryTypePurchase     EntryType = "purchase"
	EntryTypeExpense      EntryType = "expense"
)

// Entry is one row of the financial ledger. Each entry moves money in
// exactly one direction: AmountIn and AmountOut are mutually exclusive.
type Entry struct {
	ID          id.ID     `db:"id" json:"id"`
	Date        time.Time `db:"date" json:"date"`
	Type        EntryType `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`

	AmountIn  types.Money `db:"amount_in" json:"amountIn"`
	AmountOut types.Money `db:"amount_out" json:"amountOut"`

	// Branch the cash moved at, for per-branch reporting
	Branch branch.Branch `db:"branch" json:"branch,omitempty"`

	// Back-reference to the originating document, if any
	SourceID   *id.ID `db:"source_id" json:"sourceId,omitempty"`
	SourceType string `db:"source_type" json:"sourceType,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewInbound creates a cash-in entry.
func NewInbound(entryType EntryType, date time.Time, description string, amount types.Money, b branch.Branch) *Entry {
	return &Entry{
		ID:          id.New(),
		Date:        date,
		Type:        entryType,
		Description: description,
		AmountIn:    amount,
		AmountOut:   types.ZeroMoney(),
		Branch:      b,
		CreatedAt:   time.Now().UTC(),
	}
}

// NewOutbound creates a cash-out entry.
func NewOutbound(entryType EntryType, date time.Time, description string, amount types.Money, b branch.Branch) *Entry {
	return &Entry{
		ID:          id.New(),
		Date:        date,
		Type:        entryType,
		Description: description,
		AmountIn:    types.ZeroMoney(),
		AmountOut:   amount,
		Branch:      b,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithSource attaches the originating document reference.
func (e *Entry) WithSource(sourceID id.ID, sourceType string) *Entry {
	e.SourceID = &sourceID
	e.SourceType = sourceType
	return e
}

// Validate checks entry invariants.
func (e *Entry) Validate(ctx context.Context) error {
	if e.Type == "" {
		return apperror.NewValidation("entry type is required").
			WithDetail("field", "type")
	}
	if e.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	if e.AmountIn.IsNegative() || e.AmountOut.IsNegative() {
		return apperror.NewValidation("amounts must not be negative")
	}
	if e.AmountIn.IsPositive() && e.AmountOut.IsPositive() {
		return apperror.NewValidation("entry must move money in exactly one direction")
	}
	return nil
}
