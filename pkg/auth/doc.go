// Package auth provides bearer token resolution for the quota API.
//
// # Overview
//
// This package implements token-based authentication: cryptographically
// random API tokens, SHA256 hashed storage, and resolution of tokens to
// identities. An identity is either org-scoped (bound to a single
// organization) or a system admin that may act across all organizations.
//
// # Tokens
//
// Token format: qh_[base64url(32 random bytes)]
//
//	tg := auth.NewTokenGenerator()
//	token, hash, prefix, err := tg.GenerateToken()
//	// token  - handed to the caller once, never stored
//	// hash   - SHA256 hex, the only thing stored
//	// prefix - "qh_abcdefgh", safe for display and logs
//
// # Resolution
//
// The StaticResolver maps token hashes to identities; tokens are
// provisioned out of band:
//
//	resolver := auth.NewStaticResolver(map[string]auth.Identity{
//		orgHash:   {OrgID: "org-1"},
//		adminHash: {SystemAdmin: true},
//	})
//	identity, err := resolver.Resolve(ctx, bearer)
//
// # Related Packages
//
//   - pkg/middleware: Extracts bearer tokens and gates admin routes
//   - pkg/contextkeys: Context key for the resolved identity
package auth
