package quotacache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/quotahub/pkg/quota"
)

// countingStore counts reads that reach the underlying store.
type countingStore struct {
	quota.Store
	gets int64
}

func (s *countingStore) GetOrganization(ctx context.Context, orgID string) (*quota.Organization, error) {
	atomic.AddInt64(&s.gets, 1)
	return s.Store.GetOrganization(ctx, orgID)
}

func seedOrg(t *testing.T, store quota.Store, orgID string) {
	t.Helper()
	resetAt := time.Now().Add(time.Hour)
	err := store.CreateOrganization(context.Background(), &quota.Organization{
		ID:   orgID,
		Name: "Acme Corp",
		Slug: "acme",
		Tier: quota.TierDeveloper,
		Limits: map[quota.ResourceType]int64{
			quota.ResourcePlugins:   100,
			quota.ResourcePipelines: 10,
			quota.ResourceAPICalls:  quota.Unlimited,
		},
		Usage: map[quota.ResourceType]quota.Usage{
			quota.ResourcePlugins:   {ResetAt: resetAt},
			quota.ResourcePipelines: {ResetAt: resetAt},
			quota.ResourceAPICalls:  {ResetAt: resetAt},
		},
	})
	require.NoError(t, err)
}

func TestCachedStore_LocalReadThrough(t *testing.T) {
	inner := &countingStore{Store: quota.NewMemoryStore()}
	seedOrg(t, inner, "org-1")

	cached := New(inner, Options{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		org, err := cached.GetOrganization(ctx, "org-1")
		require.NoError(t, err)
		assert.Equal(t, "org-1", org.ID)
	}

	// First read populated the cache; the rest were local hits.
	assert.Equal(t, int64(1), atomic.LoadInt64(&inner.gets))
}

func TestCachedStore_NotFoundPassesThrough(t *testing.T) {
	cached := New(quota.NewMemoryStore(), Options{})

	_, err := cached.GetOrganization(context.Background(), "org-9")
	assert.ErrorIs(t, err, quota.ErrOrgNotFound)
}

func TestCachedStore_WriteInvalidates(t *testing.T) {
	inner := &countingStore{Store: quota.NewMemoryStore()}
	seedOrg(t, inner, "org-1")

	cached := New(inner, Options{})
	ctx := context.Background()

	_, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)

	err = cached.SetLimits(ctx, "org-1", map[quota.ResourceType]int64{
		quota.ResourcePlugins: 7,
	})
	require.NoError(t, err)

	org, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), org.Limits[quota.ResourcePlugins])
	assert.Equal(t, int64(2), atomic.LoadInt64(&inner.gets))
}

func TestCachedStore_ConditionalIncrementBypassesCache(t *testing.T) {
	inner := quota.NewMemoryStore()
	seedOrg(t, inner, "org-1")

	cached := New(inner, Options{})
	ctx := context.Background()

	// Warm the cache, then increment through the cached store.
	_, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)

	entry, err := cached.ConditionalIncrement(ctx, "org-1", quota.ResourcePlugins, 3)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(3), entry.Usage.Used)

	// The applied increment invalidated the cached record.
	org, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), org.Usage[quota.ResourcePlugins].Used)
}

func TestCachedStore_GetEntryBypassesCache(t *testing.T) {
	inner := quota.NewMemoryStore()
	seedOrg(t, inner, "org-1")

	cached := New(inner, Options{TTL: time.Hour})
	ctx := context.Background()

	// Warm the cache, then advance the counter behind its back, the way
	// another replica would.
	_, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	_, err = inner.ConditionalIncrement(ctx, "org-1", quota.ResourcePlugins, 4)
	require.NoError(t, err)

	// The whole-record read still serves the warm snapshot ...
	org, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), org.Usage[quota.ResourcePlugins].Used)

	// ... but the per-type entry read reports the current counter.
	entry, err := cached.GetEntry(ctx, "org-1", quota.ResourcePlugins)
	require.NoError(t, err)
	assert.Equal(t, int64(4), entry.Usage.Used)
}

func TestCachedStore_DenialReportsCurrentCounters(t *testing.T) {
	inner := quota.NewMemoryStore()
	seedOrg(t, inner, "org-1")
	ctx := context.Background()

	require.NoError(t, inner.SetLimits(ctx, "org-1", map[quota.ResourceType]int64{
		quota.ResourcePlugins: 2,
	}))

	cached := New(inner, Options{TTL: time.Hour})
	enforcer := quota.NewEnforcer(cached, quota.Defaults{
		Limits:      map[quota.ResourceType]int64{quota.ResourcePlugins: 2},
		ResetPeriod: quota.DefaultResetPeriod,
	})

	// Warm the cache with the untouched record, then let another replica
	// exhaust the quota directly against the store.
	_, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		entry, err := inner.ConditionalIncrement(ctx, "org-1", quota.ResourcePlugins, 1)
		require.NoError(t, err)
		require.NotNil(t, entry)
	}

	// The denial must explain itself with the store's counters, not the
	// warm snapshot that still shows two units free.
	result, err := enforcer.TryConsume(ctx, "org-1", quota.ResourcePlugins, 1)
	require.NoError(t, err)
	require.False(t, result.OK)
	assert.Equal(t, int64(2), result.Status.Used)
	assert.Equal(t, int64(0), result.Status.Remaining)
}

func TestCachedStore_RedisTier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inner := &countingStore{Store: quota.NewMemoryStore()}
	seedOrg(t, inner, "org-1")

	first := New(inner, Options{Redis: client})
	ctx := context.Background()

	_, err := first.GetOrganization(ctx, "org-1")
	require.NoError(t, err)

	// A second instance with a cold local tier finds the record in Redis
	// without touching the store.
	second := New(inner, Options{Redis: client})
	org, err := second.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", org.Name)
	assert.Equal(t, int64(1), atomic.LoadInt64(&inner.gets))
}

func TestCachedStore_InvalidateClearsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inner := quota.NewMemoryStore()
	seedOrg(t, inner, "org-1")

	cached := New(inner, Options{Redis: client})
	ctx := context.Background()

	_, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	require.True(t, mr.Exists("quota:org:org-1"))

	cached.Invalidate(ctx, "org-1")
	assert.False(t, mr.Exists("quota:org:org-1"))
}

func TestCachedStore_SweepPurgesLocal(t *testing.T) {
	inner := &countingStore{Store: quota.NewMemoryStore()}
	seedOrg(t, inner, "org-1")

	cached := New(inner, Options{})
	ctx := context.Background()

	_, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)

	// Force the window to expire, then sweep through the cached store.
	err = cached.SetUsage(ctx, "org-1", quota.ResourcePlugins, 5, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	swept, err := cached.SweepExpiredWindows(ctx, time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	org, err := cached.GetOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), org.Usage[quota.ResourcePlugins].Used)
}
