package api

import (
	"github.com/platinummonkey/quotahub/pkg/quota"
)

// ConsumeRequest is the payload for POST /orgs/{org_id}/consume
type ConsumeRequest struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount,omitempty"`
}

// ConsumeResponse reports a granted consumption attempt. Denials use
// the 429 body written by httputil.WriteQuotaExceeded instead.
type ConsumeResponse struct {
	OK    bool         `json:"ok"`
	Quota quota.Status `json:"quota"`
}

// SingleQuotaResponse wraps one resource type's status so the payload
// names which counter it describes.
type SingleQuotaResponse struct {
	QuotaType quota.ResourceType `json:"quotaType"`
	Status    quota.Status       `json:"status"`
}

// UpdateOrgRequest is the payload for PUT /admin/orgs/{org_id}.
//
// Two payload shapes are accepted for limits: the nested form
// {"quotas": {"plugins": 100}} and the legacy flat form
// {"plugins": 100}. NormalizedLimits merges them; the nested form wins
// when both name the same resource type.
type UpdateOrgRequest struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
	Tier *string `json:"tier,omitempty"`

	Quotas map[string]int64 `json:"quotas,omitempty"`

	// Legacy flat fields
	Plugins   *int64 `json:"plugins,omitempty"`
	Pipelines *int64 `json:"pipelines,omitempty"`
	APICalls  *int64 `json:"apiCalls,omitempty"`
}

// NormalizedLimits merges the flat legacy fields into the nested quotas
// map so downstream code sees a single shape.
func (r *UpdateOrgRequest) NormalizedLimits() map[string]int64 {
	merged := make(map[string]int64)
	if r.Plugins != nil {
		merged[string(quota.ResourcePlugins)] = *r.Plugins
	}
	if r.Pipelines != nil {
		merged[string(quota.ResourcePipelines)] = *r.Pipelines
	}
	if r.APICalls != nil {
		merged[string(quota.ResourceAPICalls)] = *r.APICalls
	}
	for name, limit := range r.Quotas {
		merged[name] = limit
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// ResetUsageRequest is the optional payload for POST /admin/orgs/{org_id}/reset.
// With no body (or no type) all resource types are reset.
type ResetUsageRequest struct {
	Type string `json:"type,omitempty"`
}

// ListQuotasResponse wraps the admin listing
type ListQuotasResponse struct {
	Organizations []*quota.OrgQuotaResponse `json:"organizations"`
	Total         int                       `json:"total"`
}
