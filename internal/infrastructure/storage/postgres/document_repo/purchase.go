package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/domain"
	"tradebook/internal/domain/documents/purchase"
	"tradebook/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderLinesTable = "doc_purchase_order_lines"
)

var purchaseOrderColumns = []string{
	"id", "number", "date", "supplier", "status",
	"total_amount", "destination_branch", "received_at",
	"comment", "version", "created_at", "updated_at",
}

var _ purchase.Repository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implements purchase.Repository.
type PurchaseOrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the header.
func (r *PurchaseOrderRepo) Create(ctx context.Context, order *purchase.Order) error {
	q := r.builder.Insert(purchaseOrdersTable).
		Columns(purchaseOrderColumns...).
		Values(
			order.ID, order.Number, order.Date, order.Supplier, order.Status,
			order.TotalAmount, order.DestinationBranch, order.ReceivedAt,
			order.Comment, order.Version, order.CreatedAt, order.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}
	return nil
}

// GetByID retrieves the header.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*purchase.Order, error) {
	q := r.builder.Select(purchaseOrderColumns...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var order purchase.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", orderID)
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	return &order, nil
}

// GetByNumber retrieves the header by order number.
func (r *PurchaseOrderRepo) GetByNumber(ctx context.Context, number string) (*purchase.Order, error) {
	q := r.builder.Select(purchaseOrderColumns...).
		From(purchaseOrdersTable).
		Where(squirrel.Eq{"number": number}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var order purchase.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", number)
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	return &order, nil
}

// Update persists the header with an optimistic version check.
func (r *PurchaseOrderRepo) Update(ctx context.Context, order *purchase.Order) error {
	q := r.builder.Update(purchaseOrdersTable).
		Set("date", order.Date).
		Set("supplier", order.Supplier).
		Set("status", order.Status).
		Set("total_amount", order.TotalAmount).
		Set("destination_branch", order.DestinationBranch).
		Set("received_at", order.ReceivedAt).
		Set("comment", order.Comment).
		Set("version", order.Version).
		Set("updated_at", order.UpdatedAt).
		Where(squirrel.Eq{"id": order.ID}).
		Where(squirrel.Eq{"version": order.Version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("purchase order was modified concurrently").
			WithDetail("order_id", order.ID.String())
	}
	return nil
}

// GetLines retrieves the table part in line order.
func (r *PurchaseOrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]purchase.Line, error) {
	q := r.builder.Select(
		"line_id", "line_no", "product_id",
		"quantity", "purchase_price", "amount", "received_quantity",
	).From(purchaseOrderLinesTable).
		Where(squirrel.Eq{"document_id": orderID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchase.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces the table part.
func (r *PurchaseOrderRepo) SaveLines(ctx context.Context, orderID id.ID, lines []purchase.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + purchaseOrderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, orderID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(purchaseOrderLinesTable).
		Columns(
			"line_id", "document_id", "line_no", "product_id",
			"quantity", "purchase_price", "amount", "received_quantity",
		)
	for _, line := range lines {
		q = q.Values(
			line.LineID, orderID, line.LineNo, line.ProductID,
			line.Quantity, line.PurchasePrice, line.Amount, line.ReceivedQuantity,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// List retrieves headers with filtering and a total count.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Order], error) {
	result := domain.ListResult[*purchase.Order]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(purchaseOrderColumns...).From(purchaseOrdersTable)

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Supplier != "" {
		q = q.Where(squirrel.ILike{"supplier": "%" + filter.Supplier + "%"})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	querier := r.txManager.GetQuerier(ctx)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count purchase orders: %w", err)
	}

	orderBy := "date DESC, created_at DESC"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select purchase orders: %w", err)
	}
	return result, nil
}
