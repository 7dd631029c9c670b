package middleware

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/quotahub/pkg/contextkeys"
	"github.com/platinummonkey/quotahub/pkg/httputil"
	"github.com/platinummonkey/quotahub/pkg/observability"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

// QuotaMiddleware meters org API traffic against the apiCalls quota
//
// IMPORTANT: See package documentation for middleware ordering requirements.
// Quota middleware will not work correctly if ordering is wrong.
type QuotaMiddleware struct {
	enforcer *quota.Enforcer
	metrics  *observability.Metrics
}

// NewQuotaMiddleware creates a new QuotaMiddleware. metrics may be nil.
func NewQuotaMiddleware(enforcer *quota.Enforcer, metrics *observability.Metrics) *QuotaMiddleware {
	return &QuotaMiddleware{
		enforcer: enforcer,
		metrics:  metrics,
	}
}

// EnforceAPICallQuota consumes one apiCalls unit for the request's org
// before letting it through.
//
// REQUIRES: OrgContextMiddleware must run before this middleware
// Returns: 429 Too Many Requests if the apiCalls quota is exhausted
//
// If no org ID is in context (OrgContextMiddleware not run, or a route
// without an org scope), metering is skipped. Orgs without a quota
// record are also let through: defaults are applied at read time, and
// admission control only binds orgs that have been provisioned.
func (m *QuotaMiddleware) EnforceAPICallQuota(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := contextkeys.GetOrgID(r.Context())
		if orgID == "" {
			next.ServeHTTP(w, r)
			return
		}

		result, err := m.enforcer.TryConsume(r.Context(), orgID, quota.ResourceAPICalls, 1)
		if err != nil {
			if errors.Is(err, quota.ErrOrgNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			observability.FromContext(r.Context()).
				WithError(err).Error("API call quota check failed")
			httputil.WriteInternalError(w, err)
			return
		}

		if m.metrics != nil {
			m.metrics.ObserveConsume(string(quota.ResourceAPICalls), result.OK)
		}

		if !result.OK {
			httputil.WriteQuotaExceeded(w, "API call quota exceeded", result.Status)
			return
		}

		next.ServeHTTP(w, r)
	})
}
