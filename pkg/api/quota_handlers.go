package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/quotahub/pkg/httputil"
	"github.com/platinummonkey/quotahub/pkg/middleware"
	"github.com/platinummonkey/quotahub/pkg/observability"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

// QuotaHandlers handles quota-related HTTP requests
type QuotaHandlers struct {
	assembler *quota.Assembler
	enforcer  *quota.Enforcer
	mutator   *quota.Mutator
	metrics   *observability.Metrics
}

// NewQuotaHandlers creates a new QuotaHandlers
func NewQuotaHandlers(assembler *quota.Assembler, enforcer *quota.Enforcer, mutator *quota.Mutator, metrics *observability.Metrics) *QuotaHandlers {
	return &QuotaHandlers{
		assembler: assembler,
		enforcer:  enforcer,
		mutator:   mutator,
		metrics:   metrics,
	}
}

// RegisterRoutes registers quota routes on the three API scopes. The
// org router carries OrgContextMiddleware; the admin router carries the
// admin gate.
func (h *QuotaHandlers) RegisterRoutes(api, orgScoped, admin *mux.Router) {
	api.HandleFunc("/quotas", h.GetOwnQuotas).Methods("GET")

	orgScoped.HandleFunc("/quotas", h.GetOrgQuotas).Methods("GET")
	orgScoped.HandleFunc("/quotas/{type}", h.GetOrgQuotaType).Methods("GET")
	orgScoped.HandleFunc("/consume", h.Consume).Methods("POST")

	admin.HandleFunc("/quotas", h.ListAllQuotas).Methods("GET")
	admin.HandleFunc("/orgs/{org_id}", h.UpdateOrganization).Methods("PUT")
	admin.HandleFunc("/orgs/{org_id}/reset", h.ResetUsage).Methods("POST")
}

// GetOwnQuotas handles GET /api/v1/quotas
//
// Returns the quota state for the caller's own organization. Admin
// tokens are not bound to an org and must use the org-scoped route.
func (h *QuotaHandlers) GetOwnQuotas(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	if identity == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	if identity.OrgID == "" {
		httputil.WriteBadRequest(w, "token is not bound to an organization")
		return
	}

	resp, err := h.assembler.OrgQuotaResponse(r.Context(), identity.OrgID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}

// GetOrgQuotas handles GET /api/v1/orgs/{org_id}/quotas
//
// Organizations without a quota record get a default-shaped response
// rather than a 404, so provisioning order never breaks readers.
func (h *QuotaHandlers) GetOrgQuotas(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "org_id")
	if !ok {
		return
	}

	resp, err := h.assembler.OrgQuotaResponse(r.Context(), orgID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}

// GetOrgQuotaType handles GET /api/v1/orgs/{org_id}/quotas/{type}
func (h *QuotaHandlers) GetOrgQuotaType(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "org_id")
	if !ok {
		return
	}
	typeStr, ok := httputil.ParsePathStringOrError(w, r, "type")
	if !ok {
		return
	}

	rt, err := quota.ParseResourceType(typeStr)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	status, err := h.assembler.SingleTypeStatus(r.Context(), orgID, rt)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, SingleQuotaResponse{QuotaType: rt, Status: status})
}

// Consume handles POST /api/v1/orgs/{org_id}/consume
//
// Attempts to consume quota units and reports the post-attempt state.
// A rejected attempt is a 429 with the current quota attached; an
// unknown organization is a 404 (consumption requires a provisioned
// record, unlike reads).
func (h *QuotaHandlers) Consume(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "org_id")
	if !ok {
		return
	}

	var req ConsumeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	rt, err := quota.ParseResourceType(req.Type)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	amount := req.Amount
	if amount == 0 {
		amount = 1
	}
	if amount < 1 {
		httputil.WriteBadRequest(w, "amount must be >= 1")
		return
	}

	result, err := h.enforcer.TryConsume(r.Context(), orgID, rt, amount)
	if err != nil {
		if errors.Is(err, quota.ErrOrgNotFound) {
			httputil.WriteNotFoundError(w, "organization not found")
			return
		}
		observability.FromContext(r.Context()).
			WithField("resource_type", string(rt)).
			WithError(err).Error("Consume failed")
		httputil.WriteInternalError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveConsume(string(rt), result.OK)
	}

	if !result.OK {
		httputil.WriteQuotaExceeded(w, result.ExceededError(rt).Error(), result.Status)
		return
	}

	httputil.WriteSuccess(w, ConsumeResponse{OK: true, Quota: result.Status})
}

// ListAllQuotas handles GET /api/v1/admin/quotas
func (h *QuotaHandlers) ListAllQuotas(w http.ResponseWriter, r *http.Request) {
	responses, err := h.assembler.AllOrgQuotaResponses(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, ListQuotasResponse{
		Organizations: responses,
		Total:         len(responses),
	})
}

// UpdateOrganization handles PUT /api/v1/admin/orgs/{org_id}
//
// Accepts both the nested and the legacy flat limits payload; see
// UpdateOrgRequest.
func (h *QuotaHandlers) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "org_id")
	if !ok {
		return
	}

	var req UpdateOrgRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	update := quota.UpdateRequest{
		Name: req.Name,
		Slug: req.Slug,
	}
	if req.Tier != nil {
		tier, err := quota.ParseTier(*req.Tier)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		update.Tier = &tier
	}
	if limits := req.NormalizedLimits(); limits != nil {
		update.Limits = make(map[quota.ResourceType]int64, len(limits))
		for name, limit := range limits {
			update.Limits[quota.ResourceType(name)] = limit
		}
	}

	org, err := h.mutator.UpdateOrganization(r.Context(), orgID, update)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AdminUpdatesTotal.WithLabelValues("update", "success").Inc()
	}
	httputil.WriteSuccess(w, h.assembler.Render(org))
}

// ResetUsage handles POST /api/v1/admin/orgs/{org_id}/reset
//
// With no body (or an empty type) all resource types are reset; with a
// type, only that counter.
func (h *QuotaHandlers) ResetUsage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "org_id")
	if !ok {
		return
	}

	var req ResetUsageRequest
	if r.Body != nil && r.ContentLength > 0 {
		if !httputil.ParseJSONOrError(w, r, &req) {
			return
		}
	}

	var rt *quota.ResourceType
	if req.Type != "" {
		parsed, err := quota.ParseResourceType(req.Type)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		rt = &parsed
	}

	org, err := h.mutator.ResetUsage(r.Context(), orgID, rt)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AdminUpdatesTotal.WithLabelValues("reset", "success").Inc()
	}
	httputil.WriteSuccess(w, h.assembler.Render(org))
}

// writeMutationError maps mutator errors onto HTTP statuses
func (h *QuotaHandlers) writeMutationError(w http.ResponseWriter, err error) {
	var invalidType *quota.InvalidResourceTypeError
	var invalidLimit *quota.InvalidLimitError
	switch {
	case errors.Is(err, quota.ErrOrgNotFound):
		httputil.WriteNotFoundError(w, "organization not found")
	case errors.As(err, &invalidType), errors.As(err, &invalidLimit):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}
