package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebook/internal/core/apperror"
	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
)

type memRepo struct {
	balances  map[string]types.Quantity
	movements []Movement
}

func newMemRepo() *memRepo {
	return &memRepo{balances: make(map[string]types.Quantity)}
}

func (r *memRepo) key(productID id.ID, b branch.Branch) string {
	return productID.String() + "/" + b.String()
}

func (r *memRepo) AdjustBalance(ctx context.Context, productID id.ID, b branch.Branch, delta types.Quantity) error {
	r.balances[r.key(productID, b)] += delta
	return nil
}

func (r *memRepo) CreateMovements(ctx context.Context, movements []Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memRepo) GetBalance(ctx context.Context, productID id.ID, b branch.Branch) (Balance, error) {
	return Balance{ProductID: productID, Branch: b, Quantity: r.balances[r.key(productID, b)]}, nil
}

func (r *memRepo) GetBalanceForUpdate(ctx context.Context, productID id.ID, b branch.Branch) (Balance, error) {
	return r.GetBalance(ctx, productID, b)
}

func (r *memRepo) GetBalancesByProduct(ctx context.Context, productID id.ID) ([]Balance, error) {
	var out []Balance
	for _, b := range branch.All() {
		if qty := r.balances[r.key(productID, b)]; qty != 0 {
			out = append(out, Balance{ProductID: productID, Branch: b, Quantity: qty})
		}
	}
	return out, nil
}

func (r *memRepo) GetBalancesByBranch(ctx context.Context, b branch.Branch) ([]Balance, error) {
	return nil, nil
}

func (r *memRepo) GetMovements(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	return r.movements, nil
}

func (r *memRepo) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return Turnover{}, nil
}

func TestApply_JournalsEveryCounterChange(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	productID := id.New()
	sourceID := id.New()
	period := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	err := svc.Apply(context.Background(), []Adjustment{
		{ProductID: productID, Branch: branch.Main, Delta: 10, SourceID: sourceID, SourceType: "PurchaseOrder", Period: period},
		{ProductID: productID, Branch: branch.Branch2, Delta: -3, SourceID: sourceID, SourceType: "Sale", Period: period},
	})
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(10), repo.balances[repo.key(productID, branch.Main)])
	assert.Equal(t, types.Quantity(-3), repo.balances[repo.key(productID, branch.Branch2)])

	require.Len(t, repo.movements, 2)
	assert.Equal(t, RecordTypeReceipt, repo.movements[0].RecordType)
	assert.Equal(t, types.Quantity(10), repo.movements[0].Quantity)
	assert.Equal(t, RecordTypeExpense, repo.movements[1].RecordType)
	assert.Equal(t, types.Quantity(3), repo.movements[1].Quantity)
	assert.Equal(t, types.Quantity(-3), repo.movements[1].SignedQuantity())
}

func TestApply_ZeroDeltaWritesNothing(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	err := svc.Apply(context.Background(), []Adjustment{
		{ProductID: id.New(), Branch: branch.Main, Delta: 0, SourceID: id.New(), Period: time.Now()},
	})
	require.NoError(t, err)

	assert.Empty(t, repo.balances)
	assert.Empty(t, repo.movements)
}

func TestApply_RejectsUnknownBranchAndMissingSource(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	err := svc.Apply(context.Background(), []Adjustment{
		{ProductID: id.New(), Branch: "warehouse9", Delta: 1, SourceID: id.New(), Period: time.Now()},
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	err = svc.Apply(context.Background(), []Adjustment{
		{ProductID: id.New(), Branch: branch.Main, Delta: 1, Period: time.Now()},
	})
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCheckAvailability_FailsOnFirstShortage(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.balances[repo.key(productID, branch.Branch1)] = 5

	err := svc.CheckAvailability(context.Background(), []Requirement{
		{ProductID: productID, Branch: branch.Branch1, Quantity: 5},
	})
	require.NoError(t, err)

	err = svc.CheckAvailability(context.Background(), []Requirement{
		{ProductID: productID, Branch: branch.Branch1, Quantity: 6},
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(6), appErr.Details["requested"])
	assert.Equal(t, int64(5), appErr.Details["available"])
}

func TestCounters_MapsBranchesToNamedFields(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.balances[repo.key(productID, branch.Main)] = 7
	repo.balances[repo.key(productID, branch.Branch3)] = 2

	counters, err := svc.Counters(context.Background(), productID)
	require.NoError(t, err)

	assert.Equal(t, types.Quantity(7), counters.Main)
	assert.Equal(t, types.Quantity(0), counters.Branch1)
	assert.Equal(t, types.Quantity(2), counters.Branch3)
	assert.Equal(t, types.Quantity(9), counters.Total())
	assert.Equal(t, types.Quantity(2), counters.At(branch.Branch3))
}
