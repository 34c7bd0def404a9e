package reports

import (
	"context"
)

// Repository runs the report aggregates. Both queries exclude records
// with the deletion mark set, so a deleted sale drops out of the
// dashboards even though its ledger trail remains.
type Repository interface {
	// SalesByBranch aggregates sale and return totals per branch.
	SalesByBranch(ctx context.Context, period Period) ([]BranchSales, error)

	// ProductSales aggregates sold quantity and revenue per product,
	// net of returns.
	ProductSales(ctx context.Context, period Period) ([]ProductSales, error)
}
