package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebook/internal/core/id"
	"tradebook/internal/core/types"
	"tradebook/internal/domain/branch"
)

func TestConfirmedByProduct_KeysMatchOrderLineProducts(t *testing.T) {
	partial := id.New()
	skipped := id.New()

	req := ReceivePurchaseOrderRequest{
		DestinationBranch: branch.Branch2,
		Confirmed: map[string]types.Quantity{
			partial.String(): 4,
			skipped.String(): 0,
		},
	}

	confirmed, err := req.ConfirmedByProduct()
	require.NoError(t, err)
	require.Len(t, confirmed, 2)

	// The map feeds purchase.Service.Receive, which looks overrides up
	// by line product ID, so the wire keys must round-trip to those IDs.
	assert.Equal(t, types.Quantity(4), confirmed[partial])
	assert.Equal(t, types.Quantity(0), confirmed[skipped])
}

func TestConfirmedByProduct_NilMapStaysNil(t *testing.T) {
	req := ReceivePurchaseOrderRequest{DestinationBranch: branch.Main}

	confirmed, err := req.ConfirmedByProduct()
	require.NoError(t, err)
	assert.Nil(t, confirmed)
}

func TestConfirmedByProduct_RejectsBadProductID(t *testing.T) {
	req := ReceivePurchaseOrderRequest{
		DestinationBranch: branch.Main,
		Confirmed:         map[string]types.Quantity{"not-a-uuid": 1},
	}

	_, err := req.ConfirmedByProduct()
	assert.Error(t, err)
}
