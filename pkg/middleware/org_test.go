package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/quotahub/pkg/contextkeys"
)

// orgRouter builds a mux router with the auth and org middleware applied
// to an org-scoped route.
func orgRouter(t *testing.T, m *AuthMiddleware, inner http.HandlerFunc) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	router.Use(m.Handler)
	router.Use(OrgContextMiddleware)
	router.HandleFunc("/orgs/{org_id}/quotas", inner).Methods("GET")
	router.HandleFunc("/quotas", inner).Methods("GET")
	return router
}

func TestOrgContextMiddleware_SetsOrgID(t *testing.T) {
	resolver, orgToken, _ := newTestResolver(t)
	m := NewAuthMiddleware(resolver, false)

	router := orgRouter(t, m, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-1", contextkeys.GetOrgID(r.Context()))
	})

	req := httptest.NewRequest("GET", "/orgs/org-1/quotas", nil)
	req.Header.Set("Authorization", "Bearer "+orgToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrgContextMiddleware_RejectsForeignOrg(t *testing.T) {
	resolver, orgToken, _ := newTestResolver(t)
	m := NewAuthMiddleware(resolver, false)

	router := orgRouter(t, m, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	req := httptest.NewRequest("GET", "/orgs/org-2/quotas", nil)
	req.Header.Set("Authorization", "Bearer "+orgToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrgContextMiddleware_AdminActsForAnyOrg(t *testing.T) {
	resolver, _, adminToken := newTestResolver(t)
	m := NewAuthMiddleware(resolver, false)

	router := orgRouter(t, m, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-2", contextkeys.GetOrgID(r.Context()))
	})

	req := httptest.NewRequest("GET", "/orgs/org-2/quotas", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrgContextMiddleware_PassThroughWithoutOrgVar(t *testing.T) {
	resolver, orgToken, _ := newTestResolver(t)
	m := NewAuthMiddleware(resolver, false)

	router := orgRouter(t, m, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, contextkeys.GetOrgID(r.Context()))
	})

	req := httptest.NewRequest("GET", "/quotas", nil)
	req.Header.Set("Authorization", "Bearer "+orgToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
