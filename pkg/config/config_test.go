package config

import (
	"os"
	"testing"
	"time"

	"github.com/platinummonkey/quotahub/pkg/observability"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt64 tests the getEnvInt64 helper function
func TestGetEnvInt64(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int64
		envValue     string
		want         int64
	}{
		{
			name:         "parses valid integer",
			key:          "TEST_INT64",
			defaultValue: 100,
			envValue:     "-1",
			want:         -1,
		},
		{
			name:         "returns default on invalid integer",
			key:          "TEST_INT64_BAD",
			defaultValue: 100,
			envValue:     "not-a-number",
			want:         100,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT64_NOT_SET",
			defaultValue: 100,
			envValue:     "",
			want:         100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt64(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt64() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "parses valid duration",
			key:          "TEST_DURATION",
			defaultValue: 15 * time.Second,
			envValue:     "1m30s",
			want:         90 * time.Second,
		},
		{
			name:         "returns default on invalid duration",
			key:          "TEST_DURATION_BAD",
			defaultValue: 15 * time.Second,
			envValue:     "soon",
			want:         15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLoadConfig_Defaults verifies the built-in defaults for a minimal
// environment.
func TestLoadConfig_Defaults(t *testing.T) {
	os.Setenv("QUOTAHUB_POSTGRES_URL", "postgres://localhost/quotahub")
	defer os.Unsetenv("QUOTAHUB_POSTGRES_URL")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %v, want 8080", cfg.Server.Port)
	}
	if cfg.Server.HealthPort != "9090" {
		t.Errorf("Server.HealthPort = %v, want 9090", cfg.Server.HealthPort)
	}
	if cfg.Quota.DefaultPluginsLimit != 100 {
		t.Errorf("Quota.DefaultPluginsLimit = %v, want 100", cfg.Quota.DefaultPluginsLimit)
	}
	if cfg.Quota.DefaultPipelinesLimit != 10 {
		t.Errorf("Quota.DefaultPipelinesLimit = %v, want 10", cfg.Quota.DefaultPipelinesLimit)
	}
	if cfg.Quota.DefaultAPICallsLimit != -1 {
		t.Errorf("Quota.DefaultAPICallsLimit = %v, want -1", cfg.Quota.DefaultAPICallsLimit)
	}
	if cfg.Quota.ResetPeriodDays != 3 {
		t.Errorf("Quota.ResetPeriodDays = %v, want 3", cfg.Quota.ResetPeriodDays)
	}
	if cfg.Observability.LogLevel != observability.InfoLevel {
		t.Errorf("Observability.LogLevel = %v, want info", cfg.Observability.LogLevel)
	}
}

// TestLoadConfig_MissingPostgresURL verifies that a missing database URL
// fails validation.
func TestLoadConfig_MissingPostgresURL(t *testing.T) {
	os.Unsetenv("QUOTAHUB_POSTGRES_URL")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() expected error for missing postgres URL")
	}
}

// TestValidate tests configuration validation rules
func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{
				Port:       "8080",
				HealthPort: "9090",
			},
			Database: DatabaseConfig{URL: "postgres://localhost/quotahub"},
			Quota: QuotaConfig{
				DefaultPluginsLimit:   100,
				DefaultPipelinesLimit: 10,
				DefaultAPICallsLimit:  -1,
				ResetPeriodDays:       3,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name: "ports must differ",
			mutate: func(c *Config) {
				c.Server.HealthPort = c.Server.Port
			},
			wantErr: true,
		},
		{
			name: "limit below sentinel rejected",
			mutate: func(c *Config) {
				c.Quota.DefaultPluginsLimit = -2
			},
			wantErr: true,
		},
		{
			name: "reset period must be positive",
			mutate: func(c *Config) {
				c.Quota.ResetPeriodDays = 0
			},
			wantErr: true,
		},
		{
			name: "otel enabled requires endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestDefaults verifies the conversion into the quota package's defaults.
func TestDefaults(t *testing.T) {
	cfg := &Config{
		Quota: QuotaConfig{
			DefaultPluginsLimit:   100,
			DefaultPipelinesLimit: 10,
			DefaultAPICallsLimit:  -1,
			ResetPeriodDays:       3,
		},
	}

	defaults := cfg.Defaults()
	if defaults.Limits[quota.ResourcePlugins] != 100 {
		t.Errorf("plugins limit = %v, want 100", defaults.Limits[quota.ResourcePlugins])
	}
	if defaults.Limits[quota.ResourceAPICalls] != quota.Unlimited {
		t.Errorf("apiCalls limit = %v, want unlimited", defaults.Limits[quota.ResourceAPICalls])
	}
	if defaults.ResetPeriod != 72*time.Hour {
		t.Errorf("ResetPeriod = %v, want 72h", defaults.ResetPeriod)
	}
}

// TestLoadAuthConfig verifies token digest parsing from environment.
func TestLoadAuthConfig(t *testing.T) {
	os.Setenv("QUOTAHUB_ADMIN_TOKEN_HASHES", "aaa, bbb,")
	os.Setenv("QUOTAHUB_ORG_TOKENS", "ccc:org-1, ddd:org-2,malformed")
	defer os.Unsetenv("QUOTAHUB_ADMIN_TOKEN_HASHES")
	defer os.Unsetenv("QUOTAHUB_ORG_TOKENS")

	cfg := loadAuthConfig()

	if len(cfg.AdminTokenHashes) != 2 {
		t.Fatalf("AdminTokenHashes = %v, want 2 entries", cfg.AdminTokenHashes)
	}
	if cfg.AdminTokenHashes[0] != "aaa" || cfg.AdminTokenHashes[1] != "bbb" {
		t.Errorf("AdminTokenHashes = %v", cfg.AdminTokenHashes)
	}
	if len(cfg.OrgTokens) != 2 {
		t.Fatalf("OrgTokens = %v, want 2 entries", cfg.OrgTokens)
	}
	if cfg.OrgTokens["ccc"] != "org-1" || cfg.OrgTokens["ddd"] != "org-2" {
		t.Errorf("OrgTokens = %v", cfg.OrgTokens)
	}
}

// TestIdentities verifies the conversion into the resolver's identity map.
func TestIdentities(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{
			AdminTokenHashes: []string{"aaa"},
			OrgTokens:        map[string]string{"bbb": "org-1"},
		},
	}

	identities := cfg.Identities()
	if len(identities) != 2 {
		t.Fatalf("Identities() = %v, want 2 entries", identities)
	}
	if !identities["aaa"].SystemAdmin {
		t.Errorf("admin hash should map to a system admin identity")
	}
	if identities["bbb"].OrgID != "org-1" {
		t.Errorf("org hash OrgID = %q, want org-1", identities["bbb"].OrgID)
	}
}
