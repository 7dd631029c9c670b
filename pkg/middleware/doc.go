// Package middleware provides HTTP middleware for authentication, org
// scoping, and quota enforcement.
//
// # CRITICAL: Middleware Ordering Requirements
//
// Quota middleware has strict ordering dependencies. Incorrect order will
// cause quota checks to silently fail (no org ID in context) or reject
// authorized callers.
//
// REQUIRED ORDERING (outer to inner):
//  1. AuthMiddleware - Resolves the bearer token to an identity
//  2. OrgContextMiddleware - Extracts org ID from the route and checks
//     that the identity may act for it
//  3. Quota enforcement middleware - EnforceAPICallQuota
//
// Example (correct):
//
//	router.Use(authMiddleware.Handler)            // 1. Resolves identity
//	orgRouter.Use(middleware.OrgContextMiddleware) // 2. Scopes to the org
//	orgRouter.Use(quotaMiddleware.EnforceAPICallQuota) // 3. Meters the call
//
// Example (WRONG - will not work):
//
//	router.Use(quotaMiddleware.EnforceAPICallQuota) // FAILS: No org ID in context yet
//	router.Use(middleware.OrgContextMiddleware)     // FAILS: No identity to authorize
//	router.Use(authMiddleware.Handler)
//
// WHY THIS MATTERS:
//   - If quota middleware runs before OrgContextMiddleware, the org ID
//     lookup returns "" and metering is silently skipped
//   - If OrgContextMiddleware runs before AuthMiddleware, it cannot
//     authorize the caller (identity is nil) and rejects everything
//
// See pkg/middleware/auth.go for AuthMiddleware documentation
package middleware
