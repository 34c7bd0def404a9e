package purchase

import (
	"context"
	"time"

	"tradebook/internal/core/id"
	"tradebook/internal/domain"
)

// ListFilter narrows purchase order listings.
type ListFilter struct {
	domain.ListFilter

	Status   *Status
	Supplier string
	DateFrom *time.Time
	DateTo   *time.Time
}

// Repository persists purchase orders and their lines.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)

	// Update persists the header with optimistic version check.
	Update(ctx context.Context, order *Order) error

	GetLines(ctx context.Context, orderID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, orderID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)
}
