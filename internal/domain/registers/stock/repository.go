package stock

import (
	"context"
	"time"

	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
)

// Repository defines storage operations for the stock register.
type Repository interface {
	// AdjustBalance unconditionally adds delta (positive or negative) to
	// the (product, branch) counter. No floor is enforced.
	AdjustBalance(ctx context.Context, productID id.ID, b branch.Branch, delta types.Quantity) error

	// CreateMovements appends journal rows. Called in the same
	// transaction as the matching AdjustBalance calls.
	CreateMovements(ctx context.Context, movements []Movement) error

	// GetBalance returns the current counter; missing rows read as zero.
	GetBalance(ctx context.Context, productID id.ID, b branch.Branch) (Balance, error)

	// GetBalanceForUpdate returns the counter with a row lock, for
	// availability checks inside a transaction.
	GetBalanceForUpdate(ctx context.Context, productID id.ID, b branch.Branch) (Balance, error)

	// GetBalancesByProduct returns the non-zero counters of a product.
	GetBalancesByProduct(ctx context.Context, productID id.ID) ([]Balance, error)

	// GetBalancesByBranch returns non-zero counters for a branch.
	GetBalancesByBranch(ctx context.Context, b branch.Branch) ([]Balance, error)

	// GetMovements returns the journal for a product, newest first.
	GetMovements(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)

	// GetTurnover calculates receipt and expense totals for a period.
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)
}

// MovementFilter for filtering the journal.
type MovementFilter struct {
	Branch     *branch.Branch
	RecordType *RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// TurnoverFilter for turnover reports.
type TurnoverFilter struct {
	Branch    *branch.Branch
	ProductID *id.ID
	FromDate  time.Time
	ToDate    time.Time
}

// Turnover represents receipt/expense totals over a period.
type Turnover struct {
	Branch         branch.Branch  `json:"branch,omitempty"`
	ProductID      id.ID          `json:"productId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Expense        types.Quantity `json:"expense"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
