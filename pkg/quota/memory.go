package quota

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and single-process
// development. A single mutex stands in for the database's row-level
// atomicity; the conditional operations keep the same apply/no-op
// semantics as PostgresStore.
type MemoryStore struct {
	mu   sync.Mutex
	orgs map[string]*Organization
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orgs: make(map[string]*Organization)}
}

var _ Store = (*MemoryStore)(nil)

func cloneOrg(org *Organization) *Organization {
	out := &Organization{
		ID:     org.ID,
		Name:   org.Name,
		Slug:   org.Slug,
		Tier:   org.Tier,
		Limits: make(map[ResourceType]int64, len(org.Limits)),
		Usage:  make(map[ResourceType]Usage, len(org.Usage)),
	}
	for rt, limit := range org.Limits {
		out.Limits[rt] = limit
	}
	for rt, usage := range org.Usage {
		out.Usage[rt] = usage
	}
	return out
}

// CreateOrganization inserts a new quota record.
func (s *MemoryStore) CreateOrganization(_ context.Context, org *Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.ID] = cloneOrg(org)
	return nil
}

// GetOrganization retrieves the full quota record for an organization.
func (s *MemoryStore) GetOrganization(_ context.Context, orgID string) (*Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, ErrOrgNotFound
	}
	return cloneOrg(org), nil
}

// GetEntry retrieves the limit/usage pair for one resource type.
func (s *MemoryStore) GetEntry(_ context.Context, orgID string, rt ResourceType) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, ErrOrgNotFound
	}
	return &Entry{Limit: org.Limits[rt], Usage: org.Usage[rt]}, nil
}

// ListOrganizations returns every quota record ordered by org id.
func (s *MemoryStore) ListOrganizations(_ context.Context) ([]*Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orgs := make([]*Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		orgs = append(orgs, cloneOrg(org))
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].ID < orgs[j].ID })
	return orgs, nil
}

// Exists reports whether an organization record exists.
func (s *MemoryStore) Exists(_ context.Context, orgID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.orgs[orgID]
	return ok, nil
}

// UpdateOrgFields updates name/slug/tier.
func (s *MemoryStore) UpdateOrgFields(_ context.Context, orgID string, upd OrgFieldUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return ErrOrgNotFound
	}
	if upd.Name != nil {
		org.Name = *upd.Name
	}
	if upd.Slug != nil {
		org.Slug = *upd.Slug
	}
	if upd.Tier != nil {
		org.Tier = *upd.Tier
	}
	return nil
}

// SetLimits overwrites the given per-type limits.
func (s *MemoryStore) SetLimits(_ context.Context, orgID string, limits map[ResourceType]int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return ErrOrgNotFound
	}
	for rt, limit := range limits {
		org.Limits[rt] = limit
	}
	return nil
}

// SetUsage unconditionally overwrites used/resetAt for one resource type.
func (s *MemoryStore) SetUsage(_ context.Context, orgID string, rt ResourceType, used int64, resetAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return ErrOrgNotFound
	}
	org.Usage[rt] = Usage{Used: used, ResetAt: resetAt}
	return nil
}

// ConditionalIncrement adds amount to used only if capacity allows.
func (s *MemoryStore) ConditionalIncrement(_ context.Context, orgID string, rt ResourceType, amount int64) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, nil
	}
	limit := org.Limits[rt]
	usage := org.Usage[rt]
	if limit != Unlimited && usage.Used+amount > limit {
		return nil, nil
	}
	usage.Used += amount
	org.Usage[rt] = usage
	return &Entry{Limit: limit, Usage: usage}, nil
}

// RolloverIfExpired zeroes used and advances resetAt if still expired.
func (s *MemoryStore) RolloverIfExpired(_ context.Context, orgID string, rt ResourceType, now, newResetAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return false, nil
	}
	usage := org.Usage[rt]
	if usage.ResetAt.After(now) {
		return false, nil
	}
	org.Usage[rt] = Usage{Used: 0, ResetAt: newResetAt}
	return true, nil
}

// SweepExpiredWindows rolls over every expired window.
func (s *MemoryStore) SweepExpiredWindows(_ context.Context, now, newResetAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swept int64
	for _, org := range s.orgs {
		for rt, usage := range org.Usage {
			if usage.ResetAt.After(now) {
				continue
			}
			org.Usage[rt] = Usage{Used: 0, ResetAt: newResetAt}
			swept++
		}
	}
	return swept, nil
}
