package sale

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
)

// passthroughTx runs fn directly. The in-memory fakes have no rollback,
// so tests assert on final state after successful operations and on
// returned errors otherwise.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memStockRepo struct {
	mu        sync.Mutex
	balances  map[string]types.Quantity
	movements []stock.Movement
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{balances: make(map[string]types.Quantity)}
}

func stockKey(productID id.ID, b branch.Branch) string {
	return productID.String() + "/" + string(b)
}

func (r *memStockRepo) set(productID id.ID, b branch.Branch, qty types.Quantity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[stockKey(productID, b)] = qty
}

func (r *memStockRepo) AdjustBalance(ctx context.Context, productID id.ID, b branch.Branch, delta types.Quantity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[stockKey(productID, b)] += delta
	return nil
}

func (r *memStockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memStockRepo) GetBalance(ctx context.Context, productID id.ID, b branch.Branch) (stock.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return stock.Balance{ProductID: productID, Branch: b, Quantity: r.balances[stockKey(productID, b)]}, nil
}

func (r *memStockRepo) GetBalanceForUpdate(ctx context.Context, productID id.ID, b branch.Branch) (stock.Balance, error) {
	return r.GetBalance(ctx, productID, b)
}

func (r *memStockRepo) GetBalancesByProduct(ctx context.Context, productID id.ID) ([]stock.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []stock.Balance
	for _, b := range branch.All() {
		if qty := r.balances[stockKey(productID, b)]; !qty.IsZero() {
			result = append(result, stock.Balance{ProductID: productID, Branch: b, Quantity: qty})
		}
	}
	return result, nil
}

func (r *memStockRepo) GetBalancesByBranch(ctx context.Context, b branch.Branch) ([]stock.Balance, error) {
	return nil, nil
}

func (r *memStockRepo) GetMovements(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []stock.Movement
	for _, m := range r.movements {
		if m.ProductID == productID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *memStockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	return stock.Turnover{}, nil
}

type memLedgerRepo struct {
	mu      sync.Mutex
	entries []ledger.Entry

	// appendErr, when set, fails the next Append
	appendErr error
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{}
}

func (r *memLedgerRepo) Append(ctx context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		err := r.appendErr
		r.appendErr = nil
		return err
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memLedgerRepo) List(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ledger.Entry(nil), r.entries...), nil
}

func (r *memLedgerRepo) GetBySource(ctx context.Context, sourceID id.ID) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []ledger.Entry
	for _, e := range r.entries {
		if e.SourceID != nil && *e.SourceID == sourceID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *memLedgerRepo) GetTotals(ctx context.Context, filter ledger.Filter) (ledger.Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := ledger.Totals{In: types.ZeroMoney(), Out: types.ZeroMoney()}
	for _, e := range r.entries {
		totals.In = totals.In.Add(e.AmountIn)
		totals.Out = totals.Out.Add(e.AmountOut)
	}
	return totals, nil
}

type memSaleRepo struct {
	mu    sync.Mutex
	docs  map[id.ID]Sale
	lines map[id.ID][]Line

	// beforeMark, when set, runs before the next SetDeletionMark
	beforeMark func()
}

func newMemSaleRepo() *memSaleRepo {
	return &memSaleRepo{
		docs:  make(map[id.ID]Sale),
		lines: make(map[id.ID][]Line),
	}
}

func (r *memSaleRepo) Create(ctx context.Context, doc *Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return apperror.NewConflict("sale already exists")
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memSaleRepo) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID)
	}
	return &doc, nil
}

func (r *memSaleRepo) GetByNumber(ctx context.Context, number string) (*Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.Number == number {
			d := doc
			return &d, nil
		}
	}
	return nil, apperror.NewNotFound("sale", number)
}

func (r *memSaleRepo) Update(ctx context.Context, doc *Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("sale", doc.ID)
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memSaleRepo) SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error {
	if r.beforeMark != nil {
		hook := r.beforeMark
		r.beforeMark = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("sale", docID)
	}
	// Same guard as the SQL implementation: the mark flips only from
	// the opposite state, a repeated flip is a conflict.
	if doc.DeletionMark == marked {
		return apperror.NewConflict("sale deletion mark already set").
			WithDetail("sale_id", docID.String())
	}
	doc.DeletionMark = marked
	r.docs[docID] = doc
	return nil
}

// forceMark flips the stored mark directly, bypassing the guard.
func (r *memSaleRepo) forceMark(docID id.ID, marked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc := r.docs[docID]
	doc.DeletionMark = marked
	r.docs[docID] = doc
}

func (r *memSaleRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *memSaleRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *memSaleRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Sale
	for _, doc := range r.docs {
		if doc.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		d := doc
		items = append(items, &d)
	}
	return domain.ListResult[*Sale]{Items: items, TotalCount: int64(len(items))}, nil
}

type seqRow struct {
	val int64
}

func (r *seqRow) Scan(dest ...any) error {
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

// seqQuerier simulates the sequence table UPSERT used for numbering.
type seqQuerier struct {
	mu     sync.Mutex
	values map[string]int64
}

func newSeqQuerier() *seqQuerier {
	return &seqQuerier{values: make(map[string]int64)}
}

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()

	key, _ := args[0].(string)
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}
	q.values[key] += increment
	return &seqRow{val: q.values[key]}
}
