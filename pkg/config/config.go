package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/quotahub/pkg/auth"
	"github.com/platinummonkey/quotahub/pkg/observability"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

// Config holds all application configuration. It is loaded once at
// process start and passed by handle into component constructors; no
// component reads the environment after LoadConfig returns.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis / cache configuration
	Cache CacheConfig

	// Quota defaults for organizations without an explicit record
	Quota QuotaConfig

	// API token configuration
	Auth AuthConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
}

// CacheConfig holds Redis and L1 cache configuration
type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisPassword string
	RedisDB       int
	L1Size        int
	TTL           time.Duration
}

// QuotaConfig holds the system-wide quota defaults
type QuotaConfig struct {
	DefaultPluginsLimit   int64
	DefaultPipelinesLimit int64
	DefaultAPICallsLimit  int64
	ResetPeriodDays       int

	// SweepSchedule is the cron spec for the background rollover
	// sweeper; empty disables it.
	SweepSchedule string
}

// AuthConfig holds API token configuration. Tokens themselves never
// appear in the environment; only their SHA-256 hex digests do.
type AuthConfig struct {
	// AdminTokenHashes are digests of system admin tokens.
	AdminTokenHashes []string

	// OrgTokens maps digests to the organization id the token is bound to.
	OrgTokens map[string]string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Cache:         loadCacheConfig(),
		Quota:         loadQuotaConfig(),
		Auth:          loadAuthConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("QUOTAHUB_HOST", "0.0.0.0"),
		Port:            getEnv("QUOTAHUB_PORT", "8080"),
		ReadTimeout:     getEnvDuration("QUOTAHUB_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("QUOTAHUB_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("QUOTAHUB_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("QUOTAHUB_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("QUOTAHUB_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads PostgreSQL configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:         getEnv("QUOTAHUB_POSTGRES_URL", ""),
		MaxConns:    getEnvInt("QUOTAHUB_POSTGRES_MAX_CONNS", 25),
		MinConns:    getEnvInt("QUOTAHUB_POSTGRES_MIN_CONNS", 5),
		Timeout:     getEnvDuration("QUOTAHUB_POSTGRES_TIMEOUT", 10*time.Second),
		MaxLifetime: getEnvDuration("QUOTAHUB_POSTGRES_MAX_LIFETIME", 30*time.Minute),
	}
}

// loadCacheConfig loads Redis/cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:       getEnvBool("QUOTAHUB_CACHE_ENABLED", false),
		RedisURL:      getEnv("QUOTAHUB_REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("QUOTAHUB_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("QUOTAHUB_REDIS_DB", 0),
		L1Size:        getEnvInt("QUOTAHUB_L1_CACHE_SIZE", 1024),
		TTL:           getEnvDuration("QUOTAHUB_CACHE_TTL", 30*time.Second),
	}
}

// loadQuotaConfig loads quota defaults from environment
func loadQuotaConfig() QuotaConfig {
	return QuotaConfig{
		DefaultPluginsLimit:   getEnvInt64("QUOTAHUB_DEFAULT_PLUGINS_LIMIT", 100),
		DefaultPipelinesLimit: getEnvInt64("QUOTAHUB_DEFAULT_PIPELINES_LIMIT", 10),
		DefaultAPICallsLimit:  getEnvInt64("QUOTAHUB_DEFAULT_APICALLS_LIMIT", -1),
		ResetPeriodDays:       getEnvInt("QUOTAHUB_RESET_PERIOD_DAYS", 3),
		SweepSchedule:         getEnv("QUOTAHUB_SWEEP_SCHEDULE", "@every 1h"),
	}
}

// loadAuthConfig loads token digests from environment.
//
// QUOTAHUB_ADMIN_TOKEN_HASHES is a comma-separated list of digests.
// QUOTAHUB_ORG_TOKENS is a comma-separated list of digest:orgID pairs.
func loadAuthConfig() AuthConfig {
	cfg := AuthConfig{
		OrgTokens: make(map[string]string),
	}

	if raw := getEnv("QUOTAHUB_ADMIN_TOKEN_HASHES", ""); raw != "" {
		for _, hash := range strings.Split(raw, ",") {
			if hash = strings.TrimSpace(hash); hash != "" {
				cfg.AdminTokenHashes = append(cfg.AdminTokenHashes, hash)
			}
		}
	}

	if raw := getEnv("QUOTAHUB_ORG_TOKENS", ""); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			hash, orgID, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if ok && hash != "" && orgID != "" {
				cfg.OrgTokens[hash] = orgID
			}
		}
	}

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("QUOTAHUB_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("QUOTAHUB_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("QUOTAHUB_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("QUOTAHUB_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("QUOTAHUB_OTEL_SERVICE_NAME", "quotahub"),
		OTelServiceVersion: getEnv("QUOTAHUB_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("QUOTAHUB_OTEL_INSECURE", true),
	}
}

// Defaults converts the quota section into the domain Defaults handed to
// the quota components.
func (c *Config) Defaults() quota.Defaults {
	return quota.Defaults{
		Limits: map[quota.ResourceType]int64{
			quota.ResourcePlugins:   c.Quota.DefaultPluginsLimit,
			quota.ResourcePipelines: c.Quota.DefaultPipelinesLimit,
			quota.ResourceAPICalls:  c.Quota.DefaultAPICallsLimit,
		},
		ResetPeriod: time.Duration(c.Quota.ResetPeriodDays) * 24 * time.Hour,
	}
}

// Identities converts the auth section into the digest-keyed identity
// map consumed by auth.NewStaticResolver.
func (c *Config) Identities() map[string]auth.Identity {
	identities := make(map[string]auth.Identity, len(c.Auth.AdminTokenHashes)+len(c.Auth.OrgTokens))
	for _, hash := range c.Auth.AdminTokenHashes {
		identities[hash] = auth.Identity{SystemAdmin: true}
	}
	for hash, orgID := range c.Auth.OrgTokens {
		identities[hash] = auth.Identity{OrgID: orgID}
	}
	return identities
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	// Validate quota defaults: -1 is the unlimited sentinel, other
	// values must be non-negative.
	for name, limit := range map[string]int64{
		"plugins":   c.Quota.DefaultPluginsLimit,
		"pipelines": c.Quota.DefaultPipelinesLimit,
		"apiCalls":  c.Quota.DefaultAPICallsLimit,
	} {
		if limit < -1 {
			return fmt.Errorf("default %s limit must be >= 0 or -1, got %d", name, limit)
		}
	}
	if c.Quota.ResetPeriodDays < 1 {
		return fmt.Errorf("reset period must be at least 1 day, got %d", c.Quota.ResetPeriodDays)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
