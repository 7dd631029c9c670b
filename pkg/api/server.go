package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/quotahub/pkg/auth"
	"github.com/platinummonkey/quotahub/pkg/httputil"
	"github.com/platinummonkey/quotahub/pkg/middleware"
	"github.com/platinummonkey/quotahub/pkg/observability"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

// Server represents our API server
type Server struct {
	router        *mux.Router
	quotaHandlers *QuotaHandlers
}

// ServerOptions carries the dependencies the server wires into its
// routes. Metrics is optional; everything else is required.
type ServerOptions struct {
	Assembler *quota.Assembler
	Enforcer  *quota.Enforcer
	Mutator   *quota.Mutator
	Resolver  auth.Resolver
	Metrics   *observability.Metrics
}

// NewServer creates a new API server
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		router: mux.NewRouter(),
	}
	s.quotaHandlers = NewQuotaHandlers(opts.Assembler, opts.Enforcer, opts.Mutator, opts.Metrics)
	s.setupRoutes(opts)
	return s
}

// setupRoutes configures all the API routes.
//
// Three scopes with increasing middleware stacks:
//
//	/api/v1           request ID, recovery, metrics, authentication
//	/api/v1/orgs/...  + org context resolution + API call metering
//	/api/v1/admin     + system admin gate
func (s *Server) setupRoutes(opts ServerOptions) {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.RecoveryMiddleware)
	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
	}

	authMW := middleware.NewAuthMiddleware(opts.Resolver, false)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMW.Handler)

	orgScoped := api.PathPrefix("/orgs/{org_id}").Subrouter()
	orgScoped.Use(middleware.OrgContextMiddleware)
	quotaMW := middleware.NewQuotaMiddleware(opts.Enforcer, opts.Metrics)
	orgScoped.Use(quotaMW.EnforceAPICallQuota)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)

	s.quotaHandlers.RegisterRoutes(api, orgScoped, admin)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register additional
// routes on the server's root router.
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}
