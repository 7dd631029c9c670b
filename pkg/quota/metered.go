package quota

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/quotahub/pkg/observability"
)

// MeteredStore wraps a Store and records per-operation counts, durations
// and errors. Applied rollovers are counted per resource type. It sits
// directly over the persistence backend so cache layers above it are not
// mistaken for store traffic.
type MeteredStore struct {
	store   Store
	backend string
	metrics *observability.Metrics
}

// NewMeteredStore wraps store, labeling its metrics with the backend name.
func NewMeteredStore(store Store, backend string, metrics *observability.Metrics) *MeteredStore {
	return &MeteredStore{
		store:   store,
		backend: backend,
		metrics: metrics,
	}
}

func (s *MeteredStore) observe(op string, start time.Time, err error) {
	s.metrics.ObserveStoreOperation(op, s.backend, time.Since(start), errType(err))
}

func errType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOrgNotFound):
		return "not_found"
	default:
		return "storage"
	}
}

func (s *MeteredStore) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	start := time.Now()
	org, err := s.store.GetOrganization(ctx, orgID)
	s.observe("get_organization", start, err)
	return org, err
}

func (s *MeteredStore) GetEntry(ctx context.Context, orgID string, rt ResourceType) (*Entry, error) {
	start := time.Now()
	entry, err := s.store.GetEntry(ctx, orgID, rt)
	s.observe("get_entry", start, err)
	return entry, err
}

func (s *MeteredStore) ListOrganizations(ctx context.Context) ([]*Organization, error) {
	start := time.Now()
	orgs, err := s.store.ListOrganizations(ctx)
	s.observe("list_organizations", start, err)
	return orgs, err
}

func (s *MeteredStore) Exists(ctx context.Context, orgID string) (bool, error) {
	start := time.Now()
	ok, err := s.store.Exists(ctx, orgID)
	s.observe("exists", start, err)
	return ok, err
}

func (s *MeteredStore) CreateOrganization(ctx context.Context, org *Organization) error {
	start := time.Now()
	err := s.store.CreateOrganization(ctx, org)
	s.observe("create_organization", start, err)
	return err
}

func (s *MeteredStore) UpdateOrgFields(ctx context.Context, orgID string, upd OrgFieldUpdate) error {
	start := time.Now()
	err := s.store.UpdateOrgFields(ctx, orgID, upd)
	s.observe("update_org_fields", start, err)
	return err
}

func (s *MeteredStore) SetLimits(ctx context.Context, orgID string, limits map[ResourceType]int64) error {
	start := time.Now()
	err := s.store.SetLimits(ctx, orgID, limits)
	s.observe("set_limits", start, err)
	return err
}

func (s *MeteredStore) SetUsage(ctx context.Context, orgID string, rt ResourceType, used int64, resetAt time.Time) error {
	start := time.Now()
	err := s.store.SetUsage(ctx, orgID, rt, used, resetAt)
	s.observe("set_usage", start, err)
	return err
}

func (s *MeteredStore) ConditionalIncrement(ctx context.Context, orgID string, rt ResourceType, amount int64) (*Entry, error) {
	start := time.Now()
	entry, err := s.store.ConditionalIncrement(ctx, orgID, rt, amount)
	s.observe("conditional_increment", start, err)
	return entry, err
}

func (s *MeteredStore) RolloverIfExpired(ctx context.Context, orgID string, rt ResourceType, now, newResetAt time.Time) (bool, error) {
	start := time.Now()
	rolled, err := s.store.RolloverIfExpired(ctx, orgID, rt, now, newResetAt)
	s.observe("rollover_if_expired", start, err)
	if rolled {
		s.metrics.ObserveRollover(string(rt))
	}
	return rolled, err
}

func (s *MeteredStore) SweepExpiredWindows(ctx context.Context, now, newResetAt time.Time) (int64, error) {
	start := time.Now()
	swept, err := s.store.SweepExpiredWindows(ctx, now, newResetAt)
	s.observe("sweep_expired_windows", start, err)
	return swept, err
}
