package purchase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain"
	"tradebook/internal/domain/branch"
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
	"tradebook/pkg/numerator"
)

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
	return nil, nil
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
}

func (r *memLedgerRepo) Append(ctx context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[id.ID]Order
	lines  map[id.ID][]Line
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders: make(map[id.ID]Order),
		lines:  make(map[id.ID][]Line),
	}
}

func (r *memOrderRepo) Create(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", orderID)
	}
	return &order, nil
}

func (r *memOrderRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.Number == number {
			o := order
			return &o, nil
		}
	}
	return nil, apperror.NewNotFound("purchase order", number)
}

func (r *memOrderRepo) Update(ctx context.Context, order *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return apperror.NewNotFound("purchase order", order.ID)
	}
	r.orders[order.ID] = *order
	return nil
}

func (r *memOrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines[orderID]...), nil
}

func (r *memOrderRepo) SaveLines(ctx context.Context, orderID id.ID, lines []Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[orderID] = append([]Line(nil), lines...)
	return nil
}

func (r *memOrderRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		o := order
		items = append(items, &o)
	}
	return domain.ListResult[*Order]{Items: items, TotalCount: int64(len(items))}, nil
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

type seqQuerier struct {
	mu     sync.Mutex
	values map[string]int64
}

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.values == nil {
		q.values = make(map[string]int64)
	}
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

type fixture struct {
	svc       *Service
	stockRepo *memStockRepo
	ledgers   *memLedgerRepo
	orders    *memOrderRepo
}

func newFixture() *fixture {
	stockRepo := newMemStockRepo()
	ledgerRepo := &memLedgerRepo{}
	orderRepo := newMemOrderRepo()

	svc := NewService(
		orderRepo,
		stock.NewService(stockRepo),
		ledger.NewService(ledgerRepo),
		numerator.New(&seqQuerier{}),
		passthroughTx{},
	)
	return &fixture{svc: svc, stockRepo: stockRepo, ledgers: ledgerRepo, orders: orderRepo}
}

func (f *fixture) balance(t *testing.T, productID id.ID, b branch.Branch) types.Quantity {
	t.Helper()
	bal, err := f.stockRepo.GetBalance(context.Background(), productID, b)
	require.NoError(t, err)
	return bal.Quantity
}

func pendingOrder(t *testing.T, f *fixture, productID id.ID, qty int64, price string) *Order {
	t.Helper()
	order := New("ACME Distribution", time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC))
	order.AddLine(productID, types.Quantity(qty), types.MustMoney(price))
	require.NoError(t, f.svc.Create(context.Background(), order))
	return order
}

func TestCreate_OrderIsPendingWithNumber(t *testing.T) {
	f := newFixture()
	productID := id.New()

	order := pendingOrder(t, f, productID, 10, "80.00")

	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, "PO-2024-00001", order.Number)
	assert.True(t, order.TotalAmount.Equal(types.MustMoney("800.00")))
	assert.Nil(t, order.DestinationBranch)

	// Creation has no stock effect.
	assert.Equal(t, types.Quantity(0), f.balance(t, productID, branch.Main))
}

func TestReceive_IncrementsStockAndClosesOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 50)

	order := pendingOrder(t, f, productID, 10, "80.00")

	received, err := f.svc.Receive(ctx, order.ID, nil, branch.Main)
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(60), f.balance(t, productID, branch.Main))
	assert.Equal(t, StatusCompleted, received.Status)
	require.NotNil(t, received.DestinationBranch)
	assert.Equal(t, branch.Main, *received.DestinationBranch)
	require.NotNil(t, received.ReceivedAt)

	entries, err := f.ledgers.GetBySource(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EntryTypePurchase, entries[0].Type)
	assert.True(t, entries[0].AmountOut.Equal(types.MustMoney("800.00")))
	assert.True(t, entries[0].AmountIn.IsZero())
}

func TestReceive_SecondReceiveRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 50)

	order := pendingOrder(t, f, productID, 10, "80.00")

	_, err := f.svc.Receive(ctx, order.ID, nil, branch.Main)
	require.NoError(t, err)

	_, err = f.svc.Receive(ctx, order.ID, nil, branch.Main)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderClosed, appErr.Code)
	assert.Equal(t, string(StatusCompleted), appErr.Details["status"])

	// The stock effect landed exactly once.
	assert.Equal(t, types.Quantity(60), f.balance(t, productID, branch.Main))
	entries, err := f.ledgers.List(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReceive_ConfirmedQuantityOverridesOrdered(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()

	order := pendingOrder(t, f, productID, 10, "80.00")

	// Only 7 of the ordered 10 arrived.
	received, err := f.svc.Receive(ctx, order.ID, map[id.ID]types.Quantity{productID: 7}, branch.Branch2)
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(7), f.balance(t, productID, branch.Branch2))
	assert.Equal(t, types.Quantity(7), received.Lines[0].ReceivedQuantity)

	// The ledger reflects what was actually received.
	entries, err := f.ledgers.GetBySource(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].AmountOut.Equal(types.MustMoney("560.00")))
}

func TestReceive_ZeroConfirmationSkipsLine(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	missing := id.New()
	delivered := id.New()

	order := New("ACME Distribution", time.Now())
	order.AddLine(missing, 5, types.MustMoney("10.00"))
	order.AddLine(delivered, 3, types.MustMoney("20.00"))
	require.NoError(t, f.svc.Create(ctx, order))

	confirmed := map[id.ID]types.Quantity{missing: 0}
	_, err := f.svc.Receive(ctx, order.ID, confirmed, branch.Main)
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(0), f.balance(t, missing, branch.Main))
	assert.Equal(t, types.Quantity(3), f.balance(t, delivered, branch.Main))

	entries, err := f.ledgers.GetBySource(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].AmountOut.Equal(types.MustMoney("60.00")))
}

func TestReceive_NegativeConfirmationRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()

	order := pendingOrder(t, f, productID, 5, "10.00")
	confirmed := map[id.ID]types.Quantity{productID: -1}

	_, err := f.svc.Receive(ctx, order.ID, confirmed, branch.Main)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestReceive_UnknownBranchRejected(t *testing.T) {
	f := newFixture()
	productID := id.New()
	order := pendingOrder(t, f, productID, 5, "10.00")

	_, err := f.svc.Receive(context.Background(), order.ID, nil, branch.Branch("warehouse9"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCancel_PendingOrderHasNoStockEffect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()

	order := pendingOrder(t, f, productID, 10, "80.00")
	require.NoError(t, f.svc.Cancel(ctx, order.ID))

	saved, err := f.svc.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, saved.Status)
	assert.Equal(t, types.Quantity(0), f.balance(t, productID, branch.Main))

	// A cancelled order cannot be received.
	_, err = f.svc.Receive(ctx, order.ID, nil, branch.Main)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderClosed, appErr.Code)
}

func TestUpdate_CompletedOrderRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()

	order := pendingOrder(t, f, productID, 10, "80.00")
	_, err := f.svc.Receive(ctx, order.ID, nil, branch.Main)
	require.NoError(t, err)

	edited := New("ACME Distribution", order.Date)
	edited.ID = order.ID
	edited.AddLine(productID, 20, types.MustMoney("80.00"))

	err = f.svc.Update(ctx, edited)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeOrderClosed, appErr.Code)
}

func TestCreate_NumbersAreSequential(t *testing.T) {
	f := newFixture()
	productID := id.New()

	first := pendingOrder(t, f, productID, 1, "10.00")
	second := pendingOrder(t, f, productID, 1, "10.00")

	assert.Equal(t, "PO-2024-00001", first.Number)
	assert.Equal(t, "PO-2024-00002", second.Number)
}
