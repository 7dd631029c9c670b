// Package cli implements the quotactl command line tool.
//
// # Overview
//
// quotactl talks to a running QuotaHub server over its REST API. It
// covers the read surface for any token and the administrative surface
// for admin tokens, plus local token generation.
//
// # Commands
//
//	quotactl get [--org org-123] [--type plugins]   - Show quota state
//	quotactl list                                   - List all organizations (admin)
//	quotactl set --org org-123 --plugins 500        - Update limits/tier/name/slug (admin)
//	quotactl reset --org org-123 [--type plugins]   - Reset usage counters (admin)
//	quotactl apply --file quotas.yaml               - Batch updates from YAML (admin)
//	quotactl token [--org org-123]                  - Generate a token and digest
//
// Every remote command takes --server (default http://localhost:8080)
// and --token (default from QUOTAHUB_TOKEN).
//
// # Related Packages
//
//   - pkg/api: the server this CLI talks to
//   - pkg/auth: token generation used by the token command
package cli
