// Package httputil provides the JSON helpers and baseline middleware
// shared by the quota API.
//
// # Overview
//
// Handlers parse with the Parse* helpers and answer with the Write*
// helpers so every endpoint speaks the same shapes: success bodies are
// the payload itself, failures are `{"error": ...}`, and quota denials
// are the dedicated 429 body written by WriteQuotaExceeded.
//
// # Request Parsing
//
//	var req ConsumeRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // 400 already written
//	}
//
//	orgID, ok := httputil.ParsePathStringOrError(w, r, "org_id")
//
// # Responses
//
//	httputil.WriteSuccess(w, resp)
//	httputil.WriteBadRequest(w, "amount must be >= 1")
//	httputil.WriteQuotaExceeded(w, msg, status) // 429 with quota state
//
// # Middleware
//
// RequestIDMiddleware and RecoveryMiddleware run at the root of the
// router, before authentication; see pkg/api for the wiring order.
//
// # Related Packages
//
//   - pkg/middleware: Authentication, org scoping and quota enforcement
//   - pkg/observability: Request-scoped logger carried in the context
package httputil
