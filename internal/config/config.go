package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environment values recognized by the application.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the runtime configuration for the web application.
// Values come from environment variables; cobra flags may override
// individual fields after loading.
type Config struct {
	// Addr is the listen address of the web server.
	Addr string `env:"GMAILWEB_ADDR" envDefault:":8080"`

	// BaseURL is the public base URL used to build the OAuth redirect URL.
	// Auto-detected from Addr for local development when empty.
	BaseURL string `env:"GMAILWEB_BASE_URL"`

	// Environment is "development" or "production". Production switches the
	// logger to JSON, marks cookies Secure and hides error detail.
	Environment string `env:"GMAILWEB_ENV" envDefault:"development"`

	// Debug enables debug-level logging.
	Debug bool `env:"GMAILWEB_DEBUG" envDefault:"false"`

	// GoogleClientID and GoogleClientSecret identify the OAuth client
	// registered in the Google Cloud console.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// SessionCookie is the name of the session cookie.
	SessionCookie string `env:"GMAILWEB_SESSION_COOKIE" envDefault:"gmailweb_session"`

	// CookieMaxAge bounds how long the browser keeps the session cookie.
	CookieMaxAge time.Duration `env:"GMAILWEB_COOKIE_MAX_AGE" envDefault:"15m"`

	// SessionTTL bounds how long an idle session record survives server-side.
	SessionTTL time.Duration `env:"GMAILWEB_SESSION_TTL" envDefault:"24h"`

	// MetricsEnabled starts the dedicated metrics server.
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsAddr    string `env:"METRICS_ADDR" envDefault:":9090"`

	// Per-IP rate limiting for the HTTP surface.
	RateLimitRate  float64 `env:"GMAILWEB_RATE_LIMIT_RATE" envDefault:"10"`
	RateLimitBurst int     `env:"GMAILWEB_RATE_LIMIT_BURST" envDefault:"20"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present, matching local development setups.
func Load() (Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the app runs in a production posture.
func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ResolvedBaseURL returns the configured base URL, falling back to a
// localhost URL derived from Addr for local development.
func (c Config) ResolvedBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	addr := c.Addr
	if addr == "" {
		addr = ":8080"
	}
	if addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// RedirectURL returns the OAuth callback URL for this deployment.
func (c Config) RedirectURL() string {
	return c.ResolvedBaseURL() + "/oauth2callback"
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid base URL %q", c.BaseURL)
		}
		if c.IsProduction() && u.Scheme != "https" {
			return fmt.Errorf("base URL must use https in production (got %q)", c.BaseURL)
		}
	}
	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	return nil
}
