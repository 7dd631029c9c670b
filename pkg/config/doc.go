// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	QUOTAHUB_HOST="0.0.0.0"
//	QUOTAHUB_PORT="8080"
//	QUOTAHUB_HEALTH_PORT="9090"
//	QUOTAHUB_READ_TIMEOUT="15s"
//	QUOTAHUB_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	QUOTAHUB_POSTGRES_URL="postgres://localhost/quotahub"
//	QUOTAHUB_POSTGRES_MAX_CONNS="25"
//	QUOTAHUB_POSTGRES_TIMEOUT="10s"
//
// Cache settings:
//
//	QUOTAHUB_CACHE_ENABLED="false"
//	QUOTAHUB_REDIS_URL="localhost:6379"
//	QUOTAHUB_L1_CACHE_SIZE="1024"
//	QUOTAHUB_CACHE_TTL="30s"
//
// Quota defaults (applied to organizations without an explicit record;
// -1 means unlimited):
//
//	QUOTAHUB_DEFAULT_PLUGINS_LIMIT="100"
//	QUOTAHUB_DEFAULT_PIPELINES_LIMIT="10"
//	QUOTAHUB_DEFAULT_APICALLS_LIMIT="-1"
//	QUOTAHUB_RESET_PERIOD_DAYS="3"
//	QUOTAHUB_SWEEP_SCHEDULE="@every 1h"
//
// Auth settings (SHA-256 hex digests, never raw tokens):
//
//	QUOTAHUB_ADMIN_TOKEN_HASHES="digest1,digest2"
//	QUOTAHUB_ORG_TOKENS="digest3:org-123,digest4:org-456"
//
// Observability settings:
//
//	QUOTAHUB_LOG_LEVEL="info"  # debug, info, warn, error
//	QUOTAHUB_METRICS_ENABLED="true"
//	QUOTAHUB_OTEL_ENABLED="false"
//	QUOTAHUB_OTEL_ENDPOINT="localhost:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/quota: Consumes the quota defaults via Config.Defaults
//   - pkg/auth: Consumes the token digests via Config.Identities
//   - pkg/observability: Uses observability configuration
package config
