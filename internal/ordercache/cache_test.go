package ordercache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-sales-orders/internal/redisx"
	"github.com/ariefcatur/go-sales-orders/internal/wire"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("SALESORDERS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SALESORDERS_TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := redisx.Connect(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()
	id := time.Now().UnixNano()

	_, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	v := wire.OrderView{
		SalesOrderID:    id,
		OrderNumber:     "SO000001",
		OrderDate:       time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		TotalTaxAmount:  decimal.RequireFromString("31.00775"),
		TotalInclAmount: decimal.RequireFromString("231.05775"),
		OrderDetails:    []wire.OrderLineView{},
	}
	require.NoError(t, c.Set(ctx, v))

	got, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "SO000001", got.OrderNumber)
	assert.True(t, got.TotalTaxAmount.Equal(v.TotalTaxAmount))
	assert.True(t, got.OrderDate.Equal(v.OrderDate))

	require.NoError(t, c.Evict(ctx, id))
	_, ok, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheDedupMarkers(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()
	eventID := uuid.NewString()

	seen, err := c.Seen(ctx, "test", eventID)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, c.MarkSeen(ctx, "test", eventID))
	seen, err = c.Seen(ctx, "test", eventID)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestCacheRejectsOlderVersions(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()
	id := time.Now().UnixNano()

	view := func(version int64, number string) wire.OrderView {
		return wire.OrderView{SalesOrderID: id, OrderNumber: number, Version: version, OrderDetails: []wire.OrderLineView{}}
	}
	require.NoError(t, c.Set(ctx, view(2, "SO000002")))
	require.NoError(t, c.Set(ctx, view(1, "SO000001")))

	got, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, "SO000002", got.OrderNumber)

	require.NoError(t, c.Set(ctx, view(3, "SO000003")))
	got, _, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)

	require.NoError(t, c.Evict(ctx, id))
	require.NoError(t, c.Set(ctx, view(4, "SO000004")))
	_, ok, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "a fill after delete must not resurrect the order")
}
