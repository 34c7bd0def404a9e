package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences UPSERT: every call advances the
// counter by the increment argument (1 for strict, RangeSize for cached).
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, _ := args[0].(string)
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.values[key] += increment
	return &mockRow{val: m.values[key]}
}

func TestGetNextNumber_InvoiceFormat(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	day := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, InvoiceConfig(), nil, day)
	require.NoError(t, err)
	assert.Equal(t, "20240305001", num)

	num, err = svc.GetNextNumber(ctx, InvoiceConfig(), nil, day)
	require.NoError(t, err)
	assert.Equal(t, "20240305002", num)
}

func TestGetNextNumber_InvoiceSequenceResetsPerDay(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	day1 := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 6, 1, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, InvoiceConfig(), nil, day1)
	require.NoError(t, err)
	assert.Equal(t, "20240305001", num)

	num, err = svc.GetNextNumber(ctx, InvoiceConfig(), nil, day2)
	require.NoError(t, err)
	assert.Equal(t, "20240306001", num)
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("PO")

	period := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-00002", num)
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("PO")
	opts := &Options{Strategy: StrategyCached, RangeSize: 10}

	period := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	// First call reserves 1..10 in one round trip.
	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-00001", num)
	assert.Equal(t, int64(10), q.values["PO_2024"])

	// Second call is served from memory.
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-00002", num)
	assert.Equal(t, int64(10), q.values["PO_2024"])

	// Exhaust the range; the next call reserves 11..20.
	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "PO-2024-00011", num)
	assert.Equal(t, int64(20), q.values["PO_2024"])
}
