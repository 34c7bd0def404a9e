package ledger

import (
	"context"
	"time"

	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
)

// Repository defines storage operations for the financial ledger.
// The interface deliberately has no update or delete: the log is
// append-only.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error

	List(ctx context.Context, filter Filter) ([]Entry, error)

	// GetBySource returns entries back-referencing a document.
	GetBySource(ctx context.Context, sourceID id.ID) ([]Entry, error)

	// GetTotals sums cash in and out over the filtered entries.
	GetTotals(ctx context.Context, filter Filter) (Totals, error)
}

// Filter for ledger queries.
type Filter struct {
	Type     *EntryType
	Branch   *branch.Branch
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Totals holds aggregated cash movement.
type Totals struct {
	In  types.Money `json:"in"`
	Out types.Money `json:"out"`
}

// Net returns In minus Out.
func (t Totals) Net() types.Money {
	return t.In.Sub(t.Out)
}
