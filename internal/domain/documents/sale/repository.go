package sale

import (
	"context"
	"time"

	"tradebook/internal/core/id"
	"tradebook/internal/domain"
	"tradebook/internal/domain/branch"
)

// Repository defines storage operations for sale records.
type Repository interface {
	Create(ctx context.Context, doc *Sale) error
	GetByID(ctx context.Context, docID id.ID) (*Sale, error)
	GetByNumber(ctx context.Context, number string) (*Sale, error)
	Update(ctx context.Context, doc *Sale) error

	// SetDeletionMark soft-deletes the record; register effects are
	// reverted by the service, not here.
	SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}

// ListFilter for filtering sale records.
type ListFilter struct {
	domain.ListFilter

	Direction *Direction
	Branch    *branch.Branch
	DateFrom  *time.Time
	DateTo    *time.Time
}
