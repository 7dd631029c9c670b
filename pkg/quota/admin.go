package quota

import (
	"context"
	"time"
)

// UpdateRequest carries an administrative organization update. Name and
// slug arrive pre-validated by the request layer; this component only
// persists. Limits are explicit per-type overrides and win over the tier
// preset, allowing "pro tier but custom apiCalls limit".
type UpdateRequest struct {
	Name   *string
	Slug   *string
	Tier   *Tier
	Limits map[ResourceType]int64
}

// Mutator applies administrative limit/tier/name/slug changes and usage
// resets. Plain last-writer-wins field updates; the conditional machinery
// lives in the Enforcer.
type Mutator struct {
	store    Store
	defaults Defaults
	now      func() time.Time
}

// NewMutator creates a Mutator backed by the given store.
func NewMutator(store Store, defaults Defaults) *Mutator {
	return &Mutator{
		store:    store,
		defaults: defaults,
		now:      time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (m *Mutator) WithClock(now func() time.Time) *Mutator {
	m.now = now
	return m
}

// UpdateOrganization applies the update and returns the resulting record,
// or ErrOrgNotFound. Supplying a tier overwrites all resource limits with
// that tier's preset before explicit overrides are applied on top.
func (m *Mutator) UpdateOrganization(ctx context.Context, orgID string, req UpdateRequest) (*Organization, error) {
	for rt, limit := range req.Limits {
		if _, err := ParseResourceType(string(rt)); err != nil {
			return nil, err
		}
		if limit < Unlimited {
			return nil, &InvalidLimitError{Resource: rt, Limit: limit}
		}
	}

	if err := m.store.UpdateOrgFields(ctx, orgID, OrgFieldUpdate{
		Name: req.Name,
		Slug: req.Slug,
		Tier: req.Tier,
	}); err != nil {
		return nil, err
	}

	limits := make(map[ResourceType]int64)
	if req.Tier != nil {
		for rt, limit := range TierLimits(*req.Tier) {
			limits[rt] = limit
		}
	}
	for rt, limit := range req.Limits {
		limits[rt] = limit
	}
	if len(limits) > 0 {
		if err := m.store.SetLimits(ctx, orgID, limits); err != nil {
			return nil, err
		}
	}

	return m.store.GetOrganization(ctx, orgID)
}

// ResetUsage zeroes usage and starts a fresh window for one resource type,
// or for all of them when rt is nil. This is an unconditional overwrite:
// the administrative override bypasses the guarded rollover used by the
// consumption path.
func (m *Mutator) ResetUsage(ctx context.Context, orgID string, rt *ResourceType) (*Organization, error) {
	resetAt := m.now().Add(m.defaults.ResetPeriod)

	types := ResourceTypes()
	if rt != nil {
		types = []ResourceType{*rt}
	}
	for _, t := range types {
		if err := m.store.SetUsage(ctx, orgID, t, 0, resetAt); err != nil {
			return nil, err
		}
	}

	return m.store.GetOrganization(ctx, orgID)
}
