package sale

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
	"tradebook/internal/domain/registers/ledger"
	"tradebook/internal/domain/registers/stock"
	"tradebook/pkg/numerator"
)

type fixture struct {
	svc       *Service
	stockRepo *memStockRepo
	ledgers   *memLedgerRepo
	sales     *memSaleRepo
}

func newFixture() *fixture {
	stockRepo := newMemStockRepo()
	ledgerRepo := newMemLedgerRepo()
	saleRepo := newMemSaleRepo()

	svc := NewService(
		saleRepo,
		stock.NewService(stockRepo),
		ledger.NewService(ledgerRepo),
		numerator.New(newSeqQuerier()),
		passthroughTx{},
	)
	return &fixture{svc: svc, stockRepo: stockRepo, ledgers: ledgerRepo, sales: saleRepo}
}

func (f *fixture) balance(t *testing.T, productID id.ID, b branch.Branch) types.Quantity {
	t.Helper()
	bal, err := f.stockRepo.GetBalance(context.Background(), productID, b)
	require.NoError(t, err)
	return bal.Quantity
}

func saleDoc(direction Direction, b branch.Branch, productID id.ID, qty int64, price string) *Sale {
	doc := New(direction, b, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	doc.AddLine(productID, types.Quantity(qty), types.MustMoney(price))
	return doc
}

func TestCreate_SaleDecrementsStockAndAppendsLedger(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)

	doc := saleDoc(DirectionSale, branch.Main, productID, 3, "150.00")
	require.NoError(t, f.svc.Create(ctx, doc))

	assert.Equal(t, "20240305001", doc.Number)
	assert.Equal(t, types.Quantity(7), f.balance(t, productID, branch.Main))

	entries, err := f.ledgers.GetBySource(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EntryTypeSale, entries[0].Type)
	assert.True(t, entries[0].AmountIn.Equal(types.MustMoney("450.00")))
	assert.True(t, entries[0].AmountOut.IsZero())
}

func TestCreate_InsufficientStockRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Branch1, 5)

	doc := saleDoc(DirectionSale, branch.Branch1, productID, 6, "100.00")
	err := f.svc.Create(ctx, doc)

	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, int64(6), appErr.Details["requested"])
	assert.Equal(t, int64(5), appErr.Details["available"])

	// Nothing was written.
	assert.Equal(t, types.Quantity(5), f.balance(t, productID, branch.Branch1))
	entries, err := f.ledgers.List(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreate_AvailabilityCheckedPerBranch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()

	// Plenty at main, nothing at branch2. The check must look at the
	// selling branch only, never the chain-wide total.
	f.stockRepo.set(productID, branch.Main, 100)

	doc := saleDoc(DirectionSale, branch.Branch2, productID, 1, "50.00")
	err := f.svc.Create(ctx, doc)

	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestCreate_ReturnIncrementsStockWithoutCeiling(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()

	// Returns are accepted even when the product was never stocked at
	// the branch.
	doc := saleDoc(DirectionReturn, branch.Branch3, productID, 2, "75.50")
	require.NoError(t, f.svc.Create(ctx, doc))

	assert.Equal(t, types.Quantity(2), f.balance(t, productID, branch.Branch3))

	entries, err := f.ledgers.GetBySource(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.EntryTypeSaleReturn, entries[0].Type)
	assert.True(t, entries[0].AmountOut.Equal(types.MustMoney("151.00")))
	assert.True(t, entries[0].AmountIn.IsZero())
}

func TestCreate_ExchangeAndWarrantyHaveNoEffect(t *testing.T) {
	for _, direction := range []Direction{DirectionExchange, DirectionWarranty} {
		t.Run(string(direction), func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			productID := id.New()
			f.stockRepo.set(productID, branch.Main, 10)

			doc := saleDoc(direction, branch.Main, productID, 4, "99.99")
			require.NoError(t, f.svc.Create(ctx, doc))

			assert.Equal(t, types.Quantity(10), f.balance(t, productID, branch.Main))
			entries, err := f.ledgers.List(ctx, ledger.Filter{})
			require.NoError(t, err)
			assert.Empty(t, entries)

			// The record itself is kept.
			saved, err := f.svc.GetByID(ctx, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, direction, saved.Direction)
		})
	}
}

func TestUpdate_RevertsThenAppliesNewEffect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)

	doc := saleDoc(DirectionSale, branch.Main, productID, 3, "100.00")
	require.NoError(t, f.svc.Create(ctx, doc))
	require.Equal(t, types.Quantity(7), f.balance(t, productID, branch.Main))

	// Quantity 3 -> 5: net stock change must be -2, not -5.
	edited := saleDoc(DirectionSale, branch.Main, productID, 5, "100.00")
	edited.ID = doc.ID
	edited.Version = doc.Version
	require.NoError(t, f.svc.Update(ctx, edited))

	assert.Equal(t, types.Quantity(5), f.balance(t, productID, branch.Main))
	assert.Equal(t, doc.Number, edited.Number)

	// An edit leaves the ledger untouched.
	entries, err := f.ledgers.GetBySource(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].AmountIn.Equal(types.MustMoney("300.00")))
}

func TestUpdate_SameQuantityIsIdempotentOnStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)

	doc := saleDoc(DirectionSale, branch.Main, productID, 3, "100.00")
	require.NoError(t, f.svc.Create(ctx, doc))

	edited := saleDoc(DirectionSale, branch.Main, productID, 3, "100.00")
	edited.ID = doc.ID
	edited.Comment = "corrected comment"
	require.NoError(t, f.svc.Update(ctx, edited))

	assert.Equal(t, types.Quantity(7), f.balance(t, productID, branch.Main))
}

func TestUpdate_AvailabilityCheckedAfterRevert(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)

	// Sell all 10, then edit up to 10 again: after reverting the
	// original effect there are 10 available, so the edit passes.
	doc := saleDoc(DirectionSale, branch.Main, productID, 10, "10.00")
	require.NoError(t, f.svc.Create(ctx, doc))
	require.Equal(t, types.Quantity(0), f.balance(t, productID, branch.Main))

	edited := saleDoc(DirectionSale, branch.Main, productID, 10, "10.00")
	edited.ID = doc.ID
	require.NoError(t, f.svc.Update(ctx, edited))
	assert.Equal(t, types.Quantity(0), f.balance(t, productID, branch.Main))

	// Editing beyond the reverted balance still fails.
	tooMany := saleDoc(DirectionSale, branch.Main, productID, 11, "10.00")
	tooMany.ID = doc.ID
	err := f.svc.Update(ctx, tooMany)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestDelete_RevertsStockAndAppendsReversal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)

	doc := saleDoc(DirectionSale, branch.Main, productID, 3, "200.00")
	require.NoError(t, f.svc.Create(ctx, doc))
	require.NoError(t, f.svc.Delete(ctx, doc.ID))

	assert.Equal(t, types.Quantity(10), f.balance(t, productID, branch.Main))

	entries, err := f.ledgers.GetBySource(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.EntryTypeSale, entries[0].Type)
	assert.True(t, entries[0].AmountIn.Equal(types.MustMoney("600.00")))
	assert.Equal(t, ledger.EntryTypeSaleReversal, entries[1].Type)
	assert.True(t, entries[1].AmountOut.Equal(types.MustMoney("600.00")))

	saved, err := f.sales.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, saved.DeletionMark)
}

func TestDeleteThenRecreate_LeavesThreeLedgerEntries(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)

	doc := saleDoc(DirectionSale, branch.Main, productID, 3, "100.00")
	require.NoError(t, f.svc.Create(ctx, doc))
	require.NoError(t, f.svc.Delete(ctx, doc.ID))

	recreated := saleDoc(DirectionSale, branch.Main, productID, 3, "100.00")
	require.NoError(t, f.svc.Create(ctx, recreated))

	// Net cash is one sale, but the log keeps all three rows.
	entries, err := f.ledgers.List(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	totals, err := f.ledgers.GetTotals(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.True(t, totals.Net().Equal(types.MustMoney("300.00")))

	assert.Equal(t, types.Quantity(7), f.balance(t, productID, branch.Main))
}

func TestDelete_AlreadyDeletedRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)

	doc := saleDoc(DirectionSale, branch.Main, productID, 1, "50.00")
	require.NoError(t, f.svc.Create(ctx, doc))
	require.NoError(t, f.svc.Delete(ctx, doc.ID))

	err := f.svc.Delete(ctx, doc.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestDelete_ConcurrentDeleteLoserGetsConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)

	doc := saleDoc(DirectionSale, branch.Main, productID, 3, "50.00")
	require.NoError(t, f.svc.Create(ctx, doc))

	// Another delete commits between this one's read and its mark
	// write. The mark update must refuse the second flip so the
	// transaction rolls back instead of reverting stock twice.
	f.sales.beforeMark = func() {
		f.sales.forceMark(doc.ID, true)
	}

	err := f.svc.Delete(ctx, doc.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestCreate_LedgerFailureSurfacesAsPartialFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 10)
	f.ledgers.appendErr = assert.AnError

	doc := saleDoc(DirectionSale, branch.Main, productID, 2, "100.00")
	err := f.svc.Create(ctx, doc)

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePartialFailure, appErr.Code)
}

func TestCreate_InvoiceNumbersSequentialWithinDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 100)

	first := saleDoc(DirectionSale, branch.Main, productID, 1, "10.00")
	second := saleDoc(DirectionSale, branch.Main, productID, 1, "10.00")
	require.NoError(t, f.svc.Create(ctx, first))
	require.NoError(t, f.svc.Create(ctx, second))

	assert.Equal(t, "20240305001", first.Number)
	assert.Equal(t, "20240305002", second.Number)
}

func TestCreate_RejectedSaleDoesNotConsumeInvoiceNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	productID := id.New()
	f.stockRepo.set(productID, branch.Main, 5)

	// A create that fails the availability check must not advance the
	// daily sequence, so the first recorded sale still gets ...001.
	rejected := saleDoc(DirectionSale, branch.Main, productID, 6, "100.00")
	err := f.svc.Create(ctx, rejected)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	accepted := saleDoc(DirectionSale, branch.Main, productID, 2, "100.00")
	require.NoError(t, f.svc.Create(ctx, accepted))
	assert.Equal(t, "20240305001", accepted.Number)
}

func TestCreate_ValidationFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("no lines", func(t *testing.T) {
		doc := New(DirectionSale, branch.Main, time.Now())
		err := f.svc.Create(ctx, doc)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("unknown branch", func(t *testing.T) {
		doc := saleDoc(DirectionSale, branch.Branch("warehouse9"), id.New(), 1, "10.00")
		err := f.svc.Create(ctx, doc)
		require.Error(t, err)
	})

	t.Run("zero quantity", func(t *testing.T) {
		doc := saleDoc(DirectionSale, branch.Main, id.New(), 0, "10.00")
		err := f.svc.Create(ctx, doc)
		require.Error(t, err)
	})
}
