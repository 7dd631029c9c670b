// Package quota provides multi-tenant quota tracking and enforcement for
// the QuotaHub service.
//
// # Overview
//
// This package decides, for a given organization and resource type,
// whether a new unit of consumption (a plugin upload, a pipeline
// creation, an API call) is permitted, and maintains the running usage
// counters behind that decision. Counters accumulate within a rolling
// usage window and reset when the window expires.
//
// # Components
//
//   - ComputeStatus: pure per-type status calculation with read-time lazy reset
//   - Store: persistence contract (PostgresStore for production, MemoryStore for tests)
//   - Enforcer: atomic check-and-increment consumption path
//   - Mutator: administrative limit/tier/name/slug updates and usage resets
//   - Assembler: externally-visible quota summaries with default fallback
//
// # Tiers
//
// Developer:
//   - 100 plugins
//   - 10 pipelines
//   - unlimited API calls
//
// Pro:
//   - 1000 plugins
//   - 100 pipelines
//   - unlimited API calls
//
// Unlimited:
//   - no caps (the -1 sentinel on every resource type)
//
// A tier is a preset applied at assignment time, not a stored constraint:
// limits remain independently editable afterward.
//
// # Concurrency
//
// The package holds no in-process locks. All cross-request safety is
// pushed into the store's atomic conditional operations, which is what
// lets the service run behind multiple stateless replicas:
//
//	result, err := enforcer.TryConsume(ctx, orgID, quota.ResourcePlugins, 1)
//	if err != nil {
//		return err // infrastructure failure or unknown org
//	}
//	if !result.OK {
//		return result.ExceededError(quota.ResourcePlugins)
//	}
//
// # Related Packages
//
//   - pkg/quota/quotacache: Redis/LRU read-through cache for quota summaries
//   - pkg/middleware: HTTP enforcement middleware built on the Enforcer
//   - pkg/api: HTTP surface for the operations in this package
package quota
