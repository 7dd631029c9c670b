package quota

import (
	"errors"
	"fmt"
	"time"
)

// ResourceType identifies a countable resource tracked per organization.
type ResourceType string

const (
	ResourcePlugins   ResourceType = "plugins"
	ResourcePipelines ResourceType = "pipelines"
	ResourceAPICalls  ResourceType = "apiCalls"
)

// ResourceTypes returns the closed set of resource types in stable order.
// Adding a member requires a schema migration; all quota logic iterates this
// slice rather than naming members directly.
func ResourceTypes() []ResourceType {
	return []ResourceType{ResourcePlugins, ResourcePipelines, ResourceAPICalls}
}

// ParseResourceType validates a caller-supplied resource type string.
func ParseResourceType(s string) (ResourceType, error) {
	rt := ResourceType(s)
	for _, known := range ResourceTypes() {
		if rt == known {
			return rt, nil
		}
	}
	return "", &InvalidResourceTypeError{Type: s}
}

// Tier represents a named preset bundle of per-type limits.
type Tier string

const (
	TierDeveloper Tier = "developer"
	TierPro       Tier = "pro"
	TierUnlimited Tier = "unlimited"
)

// ParseTier validates a caller-supplied tier string.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case TierDeveloper, TierPro, TierUnlimited:
		return t, nil
	default:
		return "", fmt.Errorf("unknown tier: %q", s)
	}
}

// Unlimited is the sentinel limit meaning "no cap". Limits are never
// negative except for this value.
const Unlimited int64 = -1

// Usage is the usage counter for one resource type within the current
// window. Used accumulates in [windowStart, ResetAt); crossing ResetAt
// logically zeroes it.
type Usage struct {
	Used    int64     `json:"used"`
	ResetAt time.Time `json:"resetAt"`
}

// Entry pairs a limit with its usage counter for one (org, resource type).
type Entry struct {
	Limit int64 `json:"limit"`
	Usage Usage `json:"usage"`
}

// Organization is the per-tenant quota record: identity, tier label, and
// one limit plus one usage counter per resource type. Records are created
// by the organization-management service; this package mutates limits,
// usage, name, slug and tier but never deletes records.
type Organization struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Slug   string                 `json:"slug"`
	Tier   Tier                   `json:"tier"`
	Limits map[ResourceType]int64 `json:"limits"`
	Usage  map[ResourceType]Usage `json:"usage"`
}

// Status is the derived per-type quota state, computed fresh on every read.
type Status struct {
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	Allowed   bool      `json:"allowed"`
	Unlimited bool      `json:"unlimited"`
	ResetAt   time.Time `json:"resetAt"`
}

// Summary is Status without the Allowed flag, as exposed in org-level
// quota responses.
type Summary struct {
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	Unlimited bool      `json:"unlimited"`
	ResetAt   time.Time `json:"resetAt"`
}

// Summary converts a Status to its org-response shape.
func (s Status) Summary() Summary {
	return Summary{
		Limit:     s.Limit,
		Used:      s.Used,
		Remaining: s.Remaining,
		Unlimited: s.Unlimited,
		ResetAt:   s.ResetAt,
	}
}

// OrgQuotaResponse is the externally-visible quota summary for one
// organization. Reads never fail for unknown org ids: the assembler
// answers with system defaults and IsDefault set.
type OrgQuotaResponse struct {
	OrgID     string                   `json:"orgId"`
	Name      string                   `json:"name,omitempty"`
	Slug      string                   `json:"slug,omitempty"`
	Tier      Tier                     `json:"tier,omitempty"`
	Quotas    map[ResourceType]Summary `json:"quotas"`
	IsDefault bool                     `json:"isDefault,omitempty"`
}

// Defaults are the system-wide fallbacks applied to organizations without
// an explicit quota record. Loaded once at process start and passed into
// component constructors; enforcement logic never consults the environment.
type Defaults struct {
	Limits      map[ResourceType]int64
	ResetPeriod time.Duration
}

// DefaultResetPeriod is the usage window length when not configured.
const DefaultResetPeriod = 3 * 24 * time.Hour

// ErrOrgNotFound indicates the target organization id does not exist.
// Only administrative writes and consumption report it; reads fall back
// to defaults instead.
var ErrOrgNotFound = errors.New("organization not found")

// InvalidResourceTypeError indicates a resource type outside the closed set.
type InvalidResourceTypeError struct {
	Type string
}

func (e *InvalidResourceTypeError) Error() string {
	return fmt.Sprintf("invalid resource type: %q", e.Type)
}

// InvalidLimitError indicates a limit value outside the valid range
// (>= 0, or the unlimited sentinel).
type InvalidLimitError struct {
	Resource ResourceType
	Limit    int64
}

func (e *InvalidLimitError) Error() string {
	return fmt.Sprintf("limit for %s must be >= 0 or %d for unlimited, got %d", e.Resource, Unlimited, e.Limit)
}

// QuotaExceededError indicates the conditional increment did not apply
// because capacity is exhausted. It is an expected, frequent outcome and
// carries everything a caller needs to explain the rejection without a
// follow-up read.
type QuotaExceededError struct {
	Resource  ResourceType
	Limit     int64
	Used      int64
	Remaining int64
	ResetAt   time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %d/%d used", e.Resource, e.Used, e.Limit)
}

// IsQuotaExceeded checks if an error is a quota exceeded error.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
