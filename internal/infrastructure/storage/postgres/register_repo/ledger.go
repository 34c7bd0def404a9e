package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"tradebook/internal/core/id"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/infrastructure/storage/postgres"
)

const ledgerEntriesTable = "reg_ledger_entries"

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository. The table has no UPDATE or
// DELETE path in this codebase; corrections arrive as new rows.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new financial ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts one entry.
func (r *LedgerRepo) Append(ctx context.Context, entry *ledger.Entry) error {
	q := r.builder.Insert(ledgerEntriesTable).
		Columns(
			"id", "date", "type", "description",
			"amount_in", "amount_out", "branch",
			"source_id", "source_type", "created_at",
		).
		Values(
			entry.ID, entry.Date, entry.Type, entry.Description,
			entry.AmountIn, entry.AmountOut, entry.Branch,
			entry.SourceID, entry.SourceType, entry.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) applyFilter(q squirrel.SelectBuilder, filter ledger.Filter) squirrel.SelectBuilder {
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Branch != nil {
		q = q.Where(squirrel.Eq{"branch": *filter.Branch})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"date": *filter.ToDate})
	}
	return q
}

// List returns entries newest first.
func (r *LedgerRepo) List(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	q := r.builder.Select(
		"id", "date", "type", "description",
		"amount_in", "amount_out", "branch",
		"source_id", "source_type", "created_at",
	).From(ledgerEntriesTable)

	q = r.applyFilter(q, filter)
	q = q.OrderBy("date DESC", "created_at DESC")

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

	var entries []ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

// GetBySource returns entries back-referencing a document, oldest first,
// so the original entry precedes its reversal.
func (r *LedgerRepo) GetBySource(ctx context.Context, sourceID id.ID) ([]ledger.Entry, error) {
	q := r.builder.Select(
		"id", "date", "type", "description",
		"amount_in", "amount_out", "branch",
		"source_id", "source_type", "created_at",
	).From(ledgerEntriesTable).
		Where(squirrel.Eq{"source_id": sourceID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

// GetTotals sums cash in and out over the filtered entries.
func (r *LedgerRepo) GetTotals(ctx context.Context, filter ledger.Filter) (ledger.Totals, error) {
	q := r.builder.Select(
		"COALESCE(SUM(amount_in), 0) AS amount_in",
		"COALESCE(SUM(amount_out), 0) AS amount_out",
	).From(ledgerEntriesTable)

	q = r.applyFilter(q, filter)

	sql, args, err := q.ToSql()
	if err != nil {
		return ledger.Totals{}, fmt.Errorf("build query: %w", err)
	}

	var in, out decimal.Decimal
	querier := r.txManager.GetQuerier(ctx)
	err = querier.QueryRow(ctx, sql, args...).Scan(&in, &out)
	if err != nil && err != pgx.ErrNoRows {
		return ledger.Totals{}, fmt.Errorf("sum entries: %w", err)
	}
	return ledger.Totals{In: in, Out: out}, nil
}
