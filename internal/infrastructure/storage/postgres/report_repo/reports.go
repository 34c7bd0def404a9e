// Package report_repo provides the PostgreSQL implementation for the
// report aggregates.
package report_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"tradebook/internal/domain/reports"
	"tradebook/internal/infrastructure/storage/postgres"
)

var _ reports.Repository = (*ReportRepo)(nil)

// ReportRepo implements reports.Repository with read-only aggregate
// queries. Soft-deleted records are excluded; their ledger trail is
// reported by the ledger repository instead.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

// SalesByBranch aggregates sale and return totals per branch.
func (r *ReportRepo) SalesByBranch(ctx context.Context, period reports.Period) ([]reports.BranchSales, error) {
	sql := `
		SELECT
			branch,
			COUNT(*) FILTER (WHERE direction = 'sale') AS sales_count,
			COALESCE(SUM(total_amount) FILTER (WHERE direction = 'sale'), 0) AS sales_total,
			COALESCE(SUM(total_amount) FILTER (WHERE direction = 'return'), 0) AS returns_total
		FROM doc_sales
		WHERE deletion_mark = false
		  AND direction IN ('sale', 'return')
		  AND date >= $1 AND date < $2
		GROUP BY branch
		ORDER BY branch
	`

	var rows []reports.BranchSales
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, period.From, period.To); err != nil {
		return nil, fmt.Errorf("sales by branch: %w", err)
	}
	return rows, nil
}

// ProductSales aggregates sold quantity and revenue per product, net of
// returns.
func (r *ReportRepo) ProductSales(ctx context.Context, period reports.Period) ([]reports.ProductSales, error) {
	sql := `
		SELECT
			l.product_id,
			p.name AS product_name,
			COALESCE(SUM(CASE WHEN d.direction = 'sale' THEN l.quantity ELSE -l.quantity END), 0) AS quantity_sold,
			COALESCE(SUM(CASE WHEN d.direction = 'sale' THEN l.amount ELSE -l.amount END), 0) AS revenue
		FROM doc_sale_lines l
		JOIN doc_sales d ON d.id = l.document_id
		JOIN cat_products p ON p.id = l.product_id
		WHERE d.deletion_mark = false
		  AND d.direction IN ('sale', 'return')
		  AND d.date >= $1 AND d.date < $2
		GROUP BY l.product_id, p.name
		HAVING SUM(CASE WHEN d.direction = 'sale' THEN l.quantity ELSE -l.quantity END) <> 0
		ORDER BY revenue DESC
	`

	var rows []reports.ProductSales
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, period.From, period.To); err != nil {
		return nil, fmt.Errorf("product sales: %w", err)
	}
	return rows, nil
}
