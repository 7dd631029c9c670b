// Package quotacache provides a caching layer in front of a quota store.
package quotacache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/quotahub/pkg/observability"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

const (
	// DefaultTTL bounds how stale a cached organization record can get.
	// Usage counters move on every consumption, so this stays short; the
	// enforcement path never reads through this cache anyway.
	DefaultTTL = 30 * time.Second

	// DefaultLocalSize is the number of organization records held in the
	// in-process LRU.
	DefaultLocalSize = 1024
)

// Options configures a CachedStore. Redis and Metrics are optional; a nil
// Redis client leaves only the in-process LRU tier.
type Options struct {
	TTL       time.Duration
	LocalSize int
	Redis     *redis.Client
	Metrics   *observability.Metrics
}

// CachedStore wraps a quota.Store with a two-tier read cache: an
// in-process expirable LRU in front of an optional shared Redis tier.
//
// Only whole-organization reads are cached. Writes delegate to the
// underlying store and then invalidate, so a read after a write on the
// same instance observes the new state; other instances converge within
// the TTL. The conditional increment and rollover primitives, and the
// per-type GetEntry read that explains a rejected increment, always hit
// the underlying store directly - neither correctness of enforcement
// nor accuracy of a denial report depends on cache coherence.
type CachedStore struct {
	store   quota.Store
	local   *lru.LRU[string, *quota.Organization]
	redis   *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// New creates a CachedStore wrapping the given store.
func New(store quota.Store, opts Options) *CachedStore {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.LocalSize <= 0 {
		opts.LocalSize = DefaultLocalSize
	}

	return &CachedStore{
		store:   store,
		local:   lru.NewLRU[string, *quota.Organization](opts.LocalSize, nil, opts.TTL),
		redis:   opts.Redis,
		ttl:     opts.TTL,
		metrics: opts.Metrics,
	}
}

func redisKey(orgID string) string {
	return fmt.Sprintf("quota:org:%s", orgID)
}

func (c *CachedStore) recordHit(tier string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *CachedStore) recordMiss(tier string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
	}
}

func (c *CachedStore) recordInvalidation(tier string) {
	if c.metrics != nil {
		c.metrics.CacheInvalidationsTotal.WithLabelValues(tier).Inc()
	}
}

// GetOrganization returns the quota record for an organization, reading
// through the local then Redis tiers.
func (c *CachedStore) GetOrganization(ctx context.Context, orgID string) (*quota.Organization, error) {
	if org, ok := c.local.Get(orgID); ok {
		c.recordHit("local")
		return org, nil
	}
	c.recordMiss("local")

	if c.redis != nil {
		cached, err := c.redis.Get(ctx, redisKey(orgID)).Result()
		if err == nil {
			var org quota.Organization
			if err := json.Unmarshal([]byte(cached), &org); err == nil {
				c.recordHit("redis")
				c.local.Add(orgID, &org)
				return &org, nil
			}
		}
		c.recordMiss("redis")
	}

	org, err := c.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	c.local.Add(orgID, org)
	if c.redis != nil {
		if data, err := json.Marshal(org); err == nil {
			c.redis.Set(ctx, redisKey(orgID), data, c.ttl)
		}
	}
	return org, nil
}

// GetEntry always reads the underlying store. It backs the enforcement
// path's rejection re-read, which must report the current counters in
// the 429 body, not a snapshot up to a TTL old.
func (c *CachedStore) GetEntry(ctx context.Context, orgID string, rt quota.ResourceType) (*quota.Entry, error) {
	return c.store.GetEntry(ctx, orgID, rt)
}

// ListOrganizations is a pass-through: the admin listing is rare and a
// cached copy of every record would defeat the LRU sizing.
func (c *CachedStore) ListOrganizations(ctx context.Context) ([]*quota.Organization, error) {
	return c.store.ListOrganizations(ctx)
}

// Exists reports whether an organization record exists. A cached record
// answers positively without a store round trip.
func (c *CachedStore) Exists(ctx context.Context, orgID string) (bool, error) {
	if _, ok := c.local.Get(orgID); ok {
		c.recordHit("local")
		return true, nil
	}
	return c.store.Exists(ctx, orgID)
}

// CreateOrganization delegates and primes nothing: the next read pulls
// the fresh record through.
func (c *CachedStore) CreateOrganization(ctx context.Context, org *quota.Organization) error {
	if err := c.store.CreateOrganization(ctx, org); err != nil {
		return err
	}
	c.Invalidate(ctx, org.ID)
	return nil
}

// UpdateOrgFields delegates and invalidates.
func (c *CachedStore) UpdateOrgFields(ctx context.Context, orgID string, upd quota.OrgFieldUpdate) error {
	if err := c.store.UpdateOrgFields(ctx, orgID, upd); err != nil {
		return err
	}
	c.Invalidate(ctx, orgID)
	return nil
}

// SetLimits delegates and invalidates.
func (c *CachedStore) SetLimits(ctx context.Context, orgID string, limits map[quota.ResourceType]int64) error {
	if err := c.store.SetLimits(ctx, orgID, limits); err != nil {
		return err
	}
	c.Invalidate(ctx, orgID)
	return nil
}

// SetUsage delegates and invalidates.
func (c *CachedStore) SetUsage(ctx context.Context, orgID string, rt quota.ResourceType, used int64, resetAt time.Time) error {
	if err := c.store.SetUsage(ctx, orgID, rt, used, resetAt); err != nil {
		return err
	}
	c.Invalidate(ctx, orgID)
	return nil
}

// ConditionalIncrement always hits the underlying store; a stale counter
// here could grant over the limit. Applied increments invalidate so
// subsequent reads on this instance see the new usage.
func (c *CachedStore) ConditionalIncrement(ctx context.Context, orgID string, rt quota.ResourceType, amount int64) (*quota.Entry, error) {
	entry, err := c.store.ConditionalIncrement(ctx, orgID, rt, amount)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		c.Invalidate(ctx, orgID)
	}
	return entry, nil
}

// RolloverIfExpired delegates and invalidates when a rollover applied.
func (c *CachedStore) RolloverIfExpired(ctx context.Context, orgID string, rt quota.ResourceType, now, newResetAt time.Time) (bool, error) {
	rolled, err := c.store.RolloverIfExpired(ctx, orgID, rt, now, newResetAt)
	if err != nil {
		return false, err
	}
	if rolled {
		c.Invalidate(ctx, orgID)
	}
	return rolled, nil
}

// SweepExpiredWindows delegates and purges the local tier; which orgs
// were touched is unknown. Redis entries age out within the TTL.
func (c *CachedStore) SweepExpiredWindows(ctx context.Context, now, newResetAt time.Time) (int64, error) {
	swept, err := c.store.SweepExpiredWindows(ctx, now, newResetAt)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		c.local.Purge()
		c.recordInvalidation("local")
	}
	return swept, nil
}

// Invalidate drops one organization from every cache tier.
func (c *CachedStore) Invalidate(ctx context.Context, orgID string) {
	c.local.Remove(orgID)
	c.recordInvalidation("local")
	if c.redis != nil {
		c.redis.Del(ctx, redisKey(orgID))
		c.recordInvalidation("redis")
	}
}
