package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/quotahub/pkg/contextkeys"
	"github.com/platinummonkey/quotahub/pkg/httputil"
	"github.com/platinummonkey/quotahub/pkg/observability"
)

// OrgContextMiddleware scopes the request to the organization named in
// the route and checks that the caller may act for it.
//
// MIDDLEWARE ORDERING REQUIREMENT:
//   - MUST run after AuthMiddleware (requires the resolved identity)
//   - MUST run before quota enforcement middleware (it needs the org ID)
//
// Dependencies:
//   - Reads: identity (set by AuthMiddleware), {org_id} route variable
//   - Sets: org ID in context (used by quota middleware and handlers)
//
// Routes without an {org_id} variable pass through unchanged.
func OrgContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		orgID, ok := vars["org_id"]
		if !ok || orgID == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity := GetIdentity(r)
		if identity == nil {
			httputil.WriteForbidden(w, "authentication required")
			return
		}
		if !identity.CanActFor(orgID) {
			httputil.WriteForbidden(w, "token not authorized for organization")
			return
		}

		ctx := contextkeys.WithOrgID(r.Context(), orgID)
		ctx = observability.WithOrgID(ctx, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
