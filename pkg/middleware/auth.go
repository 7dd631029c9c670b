package middleware

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/quotahub/pkg/auth"
	"github.com/platinummonkey/quotahub/pkg/contextkeys"
	"github.com/platinummonkey/quotahub/pkg/httputil"
)

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	resolver auth.Resolver
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(resolver auth.Resolver, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				// Continue without auth
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, "missing authorization header")
			return
		}

		// Parse Bearer token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteUnauthorized(w, "invalid authorization header format")
			return
		}

		identity, err := m.resolver.Resolve(r.Context(), parts[1])
		if err != nil {
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the resolved identity from the request
func GetIdentity(r *http.Request) *auth.Identity {
	identity, ok := contextkeys.GetIdentity(r.Context())
	if !ok {
		return nil
	}
	return identity
}

// RequireAdmin gates a route to system admin identities
//
// REQUIRES: AuthMiddleware must run before this middleware
// Returns: 403 Forbidden for non-admin callers
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r)
		if identity == nil {
			httputil.WriteForbidden(w, "authentication required")
			return
		}
		if !identity.SystemAdmin {
			httputil.WriteForbidden(w, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
