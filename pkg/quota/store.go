package quota

import (
	"context"
	"time"
)

// OrgFieldUpdate carries optional identity/tier field updates for an
// organization. Nil fields are left untouched (last-writer-wins per field).
type OrgFieldUpdate struct {
	Name *string
	Slug *string
	Tier *Tier
}

// Reader provides point lookups scoped to one organization id.
type Reader interface {
	// GetOrganization returns the full quota record for an organization,
	// or ErrOrgNotFound.
	GetOrganization(ctx context.Context, orgID string) (*Organization, error)

	// GetEntry returns the limit/usage pair for a single resource type,
	// or ErrOrgNotFound.
	GetEntry(ctx context.Context, orgID string, rt ResourceType) (*Entry, error)

	// ListOrganizations returns every quota record, ordered by org id.
	ListOrganizations(ctx context.Context) ([]*Organization, error)

	// Exists reports whether an organization record exists.
	Exists(ctx context.Context, orgID string) (bool, error)
}

// Writer provides durable field-level updates scoped to one organization
// id. There are no cross-organization transactions.
type Writer interface {
	// CreateOrganization inserts a new quota record with one row per
	// resource type.
	CreateOrganization(ctx context.Context, org *Organization) error

	// UpdateOrgFields updates name/slug/tier, returning ErrOrgNotFound if
	// no record exists.
	UpdateOrgFields(ctx context.Context, orgID string, upd OrgFieldUpdate) error

	// SetLimits overwrites the given per-type limits in a single atomic
	// statement. Types absent from the map are untouched.
	SetLimits(ctx context.Context, orgID string, limits map[ResourceType]int64) error

	// SetUsage unconditionally overwrites used/resetAt for one resource
	// type. Administrative override; bypasses the conditional rollover.
	SetUsage(ctx context.Context, orgID string, rt ResourceType, used int64, resetAt time.Time) error
}

// ConditionalWriter provides the two atomic primitives all cross-request
// safety is pushed into. The core holds no in-process locks: it may run
// behind multiple stateless replicas, so both operations must be single
// atomic store operations, not read-then-write pairs.
type ConditionalWriter interface {
	// ConditionalIncrement adds amount to used only if the result would
	// not exceed the limit (or the limit is the Unlimited sentinel).
	// On success it returns the post-increment entry; a nil entry with a
	// nil error means the increment did not apply. Not applying is not
	// an error: it is the over-quota signal (or an unknown org, which
	// callers distinguish with a follow-up read).
	ConditionalIncrement(ctx context.Context, orgID string, rt ResourceType, amount int64) (*Entry, error)

	// RolloverIfExpired zeroes used and advances resetAt to newResetAt,
	// but only if the stored resetAt is still <= now. Idempotent under
	// concurrent triggering: at most one rollover per window, extra
	// attempts are no-ops.
	RolloverIfExpired(ctx context.Context, orgID string, rt ResourceType, now, newResetAt time.Time) (rolled bool, err error)

	// SweepExpiredWindows rolls over every expired window in the store in
	// one statement, returning the number of rows touched. Used by the
	// background sweeper so idle organizations' displayed resetAt does
	// not go stale indefinitely.
	SweepExpiredWindows(ctx context.Context, now, newResetAt time.Time) (int64, error)
}

// Store composes the full persistence contract for quota records. The
// per-(org, resource type) usage counter is owned by the store and
// mutated only through ConditionalIncrement, RolloverIfExpired,
// SweepExpiredWindows and the administrative SetUsage.
type Store interface {
	Reader
	Writer
	ConditionalWriter
}
