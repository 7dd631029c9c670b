// Package quotacache provides a two-tier read cache in front of a
// quota.Store.
//
// # Overview
//
// CachedStore wraps any quota.Store with an in-process expirable LRU and
// an optional shared Redis tier. Whole-organization reads are cached
// with a short TTL; every write path delegates to the underlying store
// and invalidates, and both the conditional enforcement primitives and
// the per-type GetEntry read always reach the store directly. Neither
// enforcement correctness nor the accuracy of a denial report depends
// on cache coherence - the cache only accelerates the read surface
// (dashboards, quota summaries, the caller-scoped endpoints).
//
// # Usage
//
//	store := quota.NewPostgresStore(db)
//	cached := quotacache.New(store, quotacache.Options{
//		TTL:     30 * time.Second,
//		Redis:   redisClient, // optional shared tier
//		Metrics: metrics,
//	})
//	assembler := quota.NewAssembler(cached, defaults)
//
// # Related Packages
//
//   - pkg/quota: the store contract and the consumers of this cache
//   - pkg/observability: cache hit/miss/invalidation metrics
package quotacache
