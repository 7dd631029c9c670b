package quota

import (
	"context"
	"time"
)

// Assembler builds the externally-visible quota summaries. Reads never
// produce "not found": an organization without a record gets a
// default-shaped response built from the configured system defaults.
type Assembler struct {
	store    Reader
	defaults Defaults
	now      func() time.Time
}

// NewAssembler creates an Assembler backed by the given reader.
func NewAssembler(store Reader, defaults Defaults) *Assembler {
	return &Assembler{
		store:    store,
		defaults: defaults,
		now:      time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// OrgQuotaResponse assembles the quota summary for one organization.
// Store failures propagate; an absent record does not.
func (a *Assembler) OrgQuotaResponse(ctx context.Context, orgID string) (*OrgQuotaResponse, error) {
	org, err := a.store.GetOrganization(ctx, orgID)
	if err == ErrOrgNotFound {
		return a.defaultResponse(orgID), nil
	}
	if err != nil {
		return nil, err
	}
	return a.assemble(org), nil
}

// AllOrgQuotaResponses assembles summaries for every organization with a
// quota record. Access control is the caller's concern.
func (a *Assembler) AllOrgQuotaResponses(ctx context.Context) ([]*OrgQuotaResponse, error) {
	orgs, err := a.store.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]*OrgQuotaResponse, 0, len(orgs))
	for _, org := range orgs {
		responses = append(responses, a.assemble(org))
	}
	return responses, nil
}

// SingleTypeStatus computes the full status (including Allowed) for one
// resource type. An absent organization yields the default status.
func (a *Assembler) SingleTypeStatus(ctx context.Context, orgID string, rt ResourceType) (Status, error) {
	entry, err := a.store.GetEntry(ctx, orgID, rt)
	if err == ErrOrgNotFound {
		return ComputeStatus(a.defaults.Limits[rt], a.defaultUsage(), a.now()), nil
	}
	if err != nil {
		return Status{}, err
	}
	return ComputeStatus(entry.Limit, entry.Usage, a.now()), nil
}

// Render builds the response shape for an already-loaded organization,
// without another store read. Used after mutations that return the
// updated record.
func (a *Assembler) Render(org *Organization) *OrgQuotaResponse {
	return a.assemble(org)
}

func (a *Assembler) assemble(org *Organization) *OrgQuotaResponse {
	now := a.now()
	quotas := make(map[ResourceType]Summary, len(ResourceTypes()))
	for _, rt := range ResourceTypes() {
		quotas[rt] = ComputeStatus(org.Limits[rt], org.Usage[rt], now).Summary()
	}
	return &OrgQuotaResponse{
		OrgID:  org.ID,
		Name:   org.Name,
		Slug:   org.Slug,
		Tier:   org.Tier,
		Quotas: quotas,
	}
}

func (a *Assembler) defaultResponse(orgID string) *OrgQuotaResponse {
	now := a.now()
	quotas := make(map[ResourceType]Summary, len(ResourceTypes()))
	for _, rt := range ResourceTypes() {
		quotas[rt] = ComputeStatus(a.defaults.Limits[rt], a.defaultUsage(), now).Summary()
	}
	return &OrgQuotaResponse{
		OrgID:     orgID,
		Quotas:    quotas,
		IsDefault: true,
	}
}

// defaultUsage is the zero-usage counter shown for organizations with no
// record. The reset time is computed, not persisted.
func (a *Assembler) defaultUsage() Usage {
	return Usage{Used: 0, ResetAt: a.now().Add(a.defaults.ResetPeriod)}
}
