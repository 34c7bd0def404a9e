package ledger

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

func TestNewInbound_MovesMoneyInOnly(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entry := NewInbound(EntryTypeSale, date, "Sale 20240501001", types.MustMoney("450.00"), branch.Main)

	assert.True(t, entry.AmountIn.Equal(types.MustMoney("450.00")))
	assert.True(t, entry.AmountOut.IsZero())
	assert.Equal(t, branch.Main, entry.Branch)
	require.NoError(t, entry.Validate(context.Background()))
}

func TestNewOutbound_MovesMoneyOutOnly(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entry := NewOutbound(EntryTypePurchase, date, "Purchase PO-2024-00001", types.MustMoney("800.00"), branch.Branch1)

	assert.True(t, entry.AmountOut.Equal(types.MustMoney("800.00")))
	assert.True(t, entry.AmountIn.IsZero())
	require.NoError(t, entry.Validate(context.Background()))
}

func TestWithSource_SetsBackReference(t *testing.T) {
	sourceID := id.New()
	entry := NewInbound(EntryTypeSale, time.Now(), "x", types.MustMoney("1.00"), branch.Main).
		WithSource(sourceID, "Sale")

	require.NotNil(t, entry.SourceID)
	assert.Equal(t, sourceID, *entry.SourceID)
	assert.Equal(t, "Sale", entry.SourceType)
}

func TestValidate_RejectsBothDirections(t *testing.T) {
	entry := NewInbound(EntryTypeSale, time.Now(), "x", types.MustMoney("10.00"), branch.Main)
	entry.AmountOut = types.MustMoney("5.00")

	err := entry.Validate(context.Background())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestValidate_RejectsNegativeAmounts(t *testing.T) {
	entry := NewInbound(EntryTypeSale, time.Now(), "x", types.MustMoney("-10.00"), branch.Main)

	err := entry.Validate(context.Background())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestTotals_Net(t *testing.T) {
	totals := Totals{In: types.MustMoney("300.00"), Out: types.MustMoney("120.50")}
	assert.True(t, totals.Net().Equal(types.MustMoney("179.50")))
}
