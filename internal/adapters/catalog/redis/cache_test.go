package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"3tcapital/ms_emision_dian/internal/core/catalog"
	"3tcapital/ms_emision_dian/internal/infrastructure/metrics"
	"3tcapital/ms_emision_dian/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableClient points at a closed port so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_FallsThroughWhenRedisIsDown(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := testutil.NewCatalogStore(testutil.DefaultCatalog())
	cache := NewCache(store, unreachableClient(t), time.Minute, m, testutil.NewTestLogger())

	id, err := cache.Lookup(context.Background(), catalog.DomainIdentification, "31")

	require.NoError(t, err)
	assert.Equal(t, 6, id)
	assert.Equal(t, 1, store.Calls)
	assert.Equal(t, float64(1), promtest.ToFloat64(m.CatalogLookups.WithLabelValues("error")))
	assert.Equal(t, float64(0), promtest.ToFloat64(m.CatalogLookups.WithLabelValues("hit")))
}

func TestCache_PropagatesStoreErrors(t *testing.T) {
	store := testutil.NewCatalogStore(testutil.DefaultCatalog())
	cache := NewCache(store, unreachableClient(t), time.Minute, nil, testutil.NewTestLogger())

	_, err := cache.Lookup(context.Background(), catalog.DomainTax, "XX")

	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestCache_SharedFillSurvivesCallerCancellation(t *testing.T) {
	store := &testutil.MockCatalogStore{
		LookupFunc: func(ctx context.Context, _ catalog.Domain, _ string) (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return 6, nil
		},
	}
	cache := NewCache(store, unreachableClient(t), time.Minute, nil, testutil.NewNullLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	id, err := cache.Lookup(ctx, catalog.DomainIdentification, "31")

	require.NoError(t, err)
	assert.Equal(t, 6, id)
	assert.Equal(t, 1, store.Calls)
}

func TestNewCache_DefaultTTL(t *testing.T) {
	cache := NewCache(testutil.NewCatalogStore(nil), unreachableClient(t), 0, nil, testutil.NewTestLogger())
	assert.Equal(t, DefaultTTL, cache.ttl)
}
