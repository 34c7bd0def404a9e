// Package stock provides the per-branch stock register: the authoritative
// quantity of every product at every branch, plus the movement journal the
// balances are derived from.
package stock

import (
	"time"

	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
)

// RecordType defines movement direction.
type RecordType string

const (
	// RecordTypeReceipt increases the branch counter
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases the branch counter
	RecordTypeExpense RecordType = "expense"
)

// Movement is one immutable journal row. Movements are never updated;
// corrections are written as new movements in the opposite direction.
type Movement struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	// SourceID is the document that caused this movement
	SourceID   id.ID  `db:"source_id" json:"sourceId"`
	SourceType string `db:"source_type" json:"sourceType"`

	// Period is the business date of the movement
	Period time.Time `db:"period" json:"period"`

	RecordType RecordType    `db:"record_type" json:"recordType"`
	Branch     branch.Branch `db:"branch" json:"branch"`
	ProductID  id.ID         `db:"product_id" json:"productId"`

	// Quantity is always positive; direction comes from RecordType
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a journal row for a signed delta.
func NewMovement(sourceID id.ID, sourceType string, period time.Time, b branch.Branch, productID id.ID, delta types.Quantity) Movement {
	recordType := RecordTypeReceipt
	if delta.IsNegative() {
		recordType = RecordTypeExpense
	}
	return Movement{
		LineID:     id.New(),
		SourceID:   sourceID,
		SourceType: sourceType,
		Period:     period,
		RecordType: recordType,
		Branch:     b,
		ProductID:  productID,
		Quantity:   delta.Abs(),
		CreatedAt:  time.Now().UTC(),
	}
}

// SignedQuantity returns quantity with sign applied.
func (m *Movement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Balance is the current counter for one (product, branch) pair.
type Balance struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Branch    branch.Branch  `db:"branch" json:"branch"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Counters holds the four named branch counters of one product.
type Counters struct {
	Main    types.Quantity `json:"main"`
	Branch1 types.Quantity `json:"branch1"`
	Branch2 types.Quantity `json:"branch2"`
	Branch3 types.Quantity `json:"branch3"`
}

// At returns the counter for the named branch.
func (c Counters) At(b branch.Branch) types.Quantity {
	switch b {
	case branch.Main:
		return c.Main
	case branch.Branch1:
		return c.Branch1
	case branch.Branch2:
		return c.Branch2
	case branch.Branch3:
		return c.Branch3
	}
	return 0
}

// Total sums all four counters.
func (c Counters) Total() types.Quantity {
	return c.Main + c.Branch1 + c.Branch2 + c.Branch3
}
