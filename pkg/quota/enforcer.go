package quota

import (
	"context"
	"fmt"
	"time"
)

// Enforcer is the consumption path: it atomically checks capacity and
// increments usage in one store operation, so concurrent callers for the
// same (org, resource type) observe a total order and usage can never
// exceed the limit.
//
// TryConsume has no retry of its own and is not idempotent by amount: a
// retried call double-counts. Callers needing exactly-once consumption
// must deduplicate at the request level before calling in again.
type Enforcer struct {
	store    Store
	defaults Defaults
	now      func() time.Time
}

// NewEnforcer creates an Enforcer backed by the given store.
func NewEnforcer(store Store, defaults Defaults) *Enforcer {
	return &Enforcer{
		store:    store,
		defaults: defaults,
		now:      time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (e *Enforcer) WithClock(now func() time.Time) *Enforcer {
	e.now = now
	return e
}

// ConsumeResult reports the outcome of a consumption attempt. When OK is
// false the request was over quota and Status carries the limit, usage
// and reset time needed to explain the rejection.
type ConsumeResult struct {
	OK     bool
	Status Status
}

// ExceededError builds the typed rejection for a failed result.
func (r *ConsumeResult) ExceededError(rt ResourceType) *QuotaExceededError {
	return &QuotaExceededError{
		Resource:  rt,
		Limit:     r.Status.Limit,
		Used:      r.Status.Used,
		Remaining: r.Status.Remaining,
		ResetAt:   r.Status.ResetAt,
	}
}

// TryConsume attempts to consume amount units of a resource type for an
// organization.
//
// The write path runs in two atomic store operations:
//
//  1. A guarded rollover zeroes the window if its resetAt has passed.
//     The guard ("only if resetAt is still expired") makes the rollover
//     idempotent under concurrent triggering: at most one rollover per
//     window, extra attempts are no-ops. The new resetAt is one reset
//     period from now, not from the old resetAt, so an idle window
//     advances by exactly one period when next touched.
//  2. The conditional increment applies only if used+amount would stay
//     within the limit (or the limit is Unlimited).
//
// When the increment does not apply, the current entry is re-read to
// report accurate remaining/resetAt in the rejection; an organization
// that does not exist at all surfaces as ErrOrgNotFound, checked only on
// this failure path to keep the happy path at two round trips.
func (e *Enforcer) TryConsume(ctx context.Context, orgID string, rt ResourceType, amount int64) (*ConsumeResult, error) {
	if amount < 1 {
		return nil, fmt.Errorf("consume amount must be >= 1, got %d", amount)
	}

	now := e.now()
	if _, err := e.store.RolloverIfExpired(ctx, orgID, rt, now, now.Add(e.defaults.ResetPeriod)); err != nil {
		return nil, fmt.Errorf("failed to roll over expired window: %w", err)
	}

	entry, err := e.store.ConditionalIncrement(ctx, orgID, rt, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to apply conditional increment: %w", err)
	}
	if entry != nil {
		return &ConsumeResult{OK: true, Status: ComputeStatus(entry.Limit, entry.Usage, now)}, nil
	}

	// The increment matched no row: either over quota or an unknown org.
	// Re-read to tell the two apart and to report accurate remaining and
	// resetAt in the rejection.
	current, err := e.store.GetEntry(ctx, orgID, rt)
	if err != nil {
		return nil, err
	}
	return &ConsumeResult{OK: false, Status: ComputeStatus(current.Limit, current.Usage, now)}, nil
}
