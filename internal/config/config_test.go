package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "gmailweb_session", cfg.SessionCookie)
	assert.Equal(t, 15*time.Minute, cfg.CookieMaxAge)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 10.0, cfg.RateLimitRate)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GMAILWEB_ADDR", ":3000")
	t.Setenv("GMAILWEB_BASE_URL", "https://mail.example.com")
	t.Setenv("GMAILWEB_ENV", "production")
	t.Setenv("GMAILWEB_DEBUG", "true")
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("GMAILWEB_SESSION_TTL", "1h")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "https://mail.example.com", cfg.BaseURL)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "client-id", cfg.GoogleClientID)
	assert.Equal(t, "client-secret", cfg.GoogleClientSecret)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.IsProduction())
}

func TestResolvedBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "explicit base URL wins",
			cfg:  Config{BaseURL: "https://mail.example.com", Addr: ":8080"},
			want: "https://mail.example.com",
		},
		{
			name: "port-only addr maps to localhost",
			cfg:  Config{Addr: ":3000"},
			want: "http://localhost:3000",
		},
		{
			name: "host and port addr",
			cfg:  Config{Addr: "0.0.0.0:8080"},
			want: "http://0.0.0.0:8080",
		},
		{
			name: "empty addr falls back to the default port",
			cfg:  Config{},
			want: "http://localhost:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ResolvedBaseURL())
		})
	}
}

func TestRedirectURL(t *testing.T) {
	cfg := Config{BaseURL: "https://mail.example.com"}
	assert.Equal(t, "https://mail.example.com/oauth2callback", cfg.RedirectURL())

	cfg = Config{Addr: ":8080"}
	assert.Equal(t, "http://localhost:8080/oauth2callback", cfg.RedirectURL())
}

func TestValidate(t *testing.T) {
	valid := Config{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		Environment:        EnvDevelopment,
		SessionTTL:         time.Hour,
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:        "missing credentials",
			mutate:      func(c *Config) { c.GoogleClientID = "" },
			errContains: "GOOGLE_CLIENT_ID",
		},
		{
			name:        "malformed base URL",
			mutate:      func(c *Config) { c.BaseURL = "not a url" },
			errContains: "invalid base URL",
		},
		{
			name: "http base URL in production",
			mutate: func(c *Config) {
				c.Environment = EnvProduction
				c.BaseURL = "http://mail.example.com"
			},
			errContains: "must use https",
		},
		{
			name:   "https base URL in production",
			mutate: func(c *Config) { c.Environment = EnvProduction; c.BaseURL = "https://mail.example.com" },
		},
		{
			name:        "non-positive session TTL",
			mutate:      func(c *Config) { c.SessionTTL = 0 },
			errContains: "session TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			}
		})
	}
}
