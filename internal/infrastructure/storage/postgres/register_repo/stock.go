// Package register_repo provides PostgreSQL implementations for the
// register repositories.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/registers/stock"
	"tradebook/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	stockBalancesTable  = "reg_stock_balances"
)

var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// AdjustBalance adds delta to the (product, branch) counter, creating
// the row on first touch. No floor is enforced.
func (r *StockRepo) AdjustBalance(ctx context.Context, productID id.ID, b branch.Branch, delta types.Quantity) error {
	sql := `
		INSERT INTO reg_stock_balances (product_id, branch, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, branch)
		DO UPDATE SET
			quantity = reg_stock_balances.quantity + EXCLUDED.quantity,
			updated_at = now()
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, productID, b, delta.Int64()); err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return nil
}

// CreateMovements batch inserts journal rows. Uses COPY when called
// inside a transaction, which is the normal posting path.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	columns := []string{
		"line_id", "source_id", "source_type",
		"period", "record_type",
		"branch", "product_id", "quantity", "created_at",
	}

	if r.txManager.GetTx(ctx) != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.LineID, m.SourceID, m.SourceType,
				m.Period, m.RecordType,
				m.Branch, m.ProductID, m.Quantity.Int64(), m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, columns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockMovementsTable).Columns(columns...)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.SourceID, m.SourceType,
			m.Period, m.RecordType,
			m.Branch, m.ProductID, m.Quantity.Int64(), m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// GetBalance returns the current counter; a missing row reads as zero.
func (r *StockRepo) GetBalance(ctx context.Context, productID id.ID, b branch.Branch) (stock.Balance, error) {
	var balance stock.Balance

	q := r.builder.Select("product_id", "branch", "quantity", "updated_at").
		From(stockBalancesTable).
		Where(squirrel.Eq{"product_id": productID, "branch": b}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Balance{ProductID: productID, Branch: b, Quantity: 0}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// GetBalanceForUpdate returns the counter with a row lock.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, productID id.ID, b branch.Branch) (stock.Balance, error) {
	var balance stock.Balance

	sql := `
		SELECT product_id, branch, quantity, updated_at
		FROM reg_stock_balances
		WHERE product_id = $1 AND branch = $2
		FOR UPDATE
	`

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, productID, b); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Balance{ProductID: productID, Branch: b, Quantity: 0}, nil
		}
		return balance, fmt.Errorf("get balance for update: %w", err)
	}
	return balance, nil
}

// GetBalancesByProduct returns the non-zero counters of a product.
func (r *StockRepo) GetBalancesByProduct(ctx context.Context, productID id.ID) ([]stock.Balance, error) {
	q := r.builder.Select("product_id", "branch", "quantity", "updated_at").
		From(stockBalancesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.NotEq{"quantity": int64(0)}).
		OrderBy("branch")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []stock.Balance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

// GetBalancesByBranch returns non-zero counters for a branch.
func (r *StockRepo) GetBalancesByBranch(ctx context.Context, b branch.Branch) ([]stock.Balance, error) {
	q := r.builder.Select("product_id", "branch", "quantity", "updated_at").
		From(stockBalancesTable).
		Where(squirrel.Eq{"branch": b}).
		Where(squirrel.NotEq{"quantity": int64(0)}).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []stock.Balance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

// GetMovements returns the journal for a product, newest first.
func (r *StockRepo) GetMovements(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	q := r.builder.Select(
		"line_id", "source_id", "source_type",
		"period", "record_type",
		"branch", "product_id", "quantity", "created_at",
	).From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.Branch != nil {
		q = q.Where(squirrel.Eq{"branch": *filter.Branch})
	}
	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// GetTurnover calculates receipt and expense totals for a period.
func (r *StockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	var result stock.Turnover

	args := []any{filter.FromDate, filter.ToDate}
	conditions := "period >= $1 AND period < $2"
	argIndex := 3

	if filter.Branch != nil {
		conditions += fmt.Sprintf(" AND branch = $%d", argIndex)
		args = append(args, *filter.Branch)
		result.Branch = *filter.Branch
		argIndex++
	}
	if filter.ProductID != nil {
		conditions += fmt.Sprintf(" AND product_id = $%d", argIndex)
		args = append(args, *filter.ProductID)
		result.ProductID = *filter.ProductID
	}

	sql := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE 0 END), 0) AS receipt,
			COALESCE(SUM(CASE WHEN record_type = 'expense' THEN quantity ELSE 0 END), 0) AS expense
		FROM reg_stock_movements
		WHERE %s
	`, conditions)

	querier := r.txManager.GetQuerier(ctx)
	var receipt, expense int64
	err := querier.QueryRow(ctx, sql, args...).Scan(&receipt, &expense)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}
	result.Receipt = types.Quantity(receipt)
	result.Expense = types.Quantity(expense)

	opening, err := r.balanceBefore(ctx, filter, filter.FromDate)
	if err != nil {
		return result, err
	}
	result.OpeningBalance = opening
	result.ClosingBalance = opening + result.Receipt - result.Expense

	return result, nil
}

func (r *StockRepo) balanceBefore(ctx context.Context, filter stock.TurnoverFilter, date time.Time) (types.Quantity, error) {
	args := []any{date}
	conditions := "period < $1"
	argIndex := 2

	if filter.Branch != nil {
		conditions += fmt.Sprintf(" AND branch = $%d", argIndex)
		args = append(args, *filter.Branch)
		argIndex++
	}
	if filter.ProductID != nil {
		conditions += fmt.Sprintf(" AND product_id = $%d", argIndex)
		args = append(args, *filter.ProductID)
	}

	sql := fmt.Sprintf(`
		SELECT COALESCE(
			SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END),
			0
		)
		FROM reg_stock_movements
		WHERE %s
	`, conditions)

	var balance int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, args...).Scan(&balance)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("calculate opening balance: %w", err)
	}
	return types.Quantity(balance), nil
}
