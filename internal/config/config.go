// ABOUTME: Configuration loader for the newsdesk CLI
// ABOUTME: Loads settings from .env and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL   = "http://localhost:8080"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 10
	maxPageSize     = 100
)

// Session storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	// API
	APIURL         string        `env:"NEWSDESK_API_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"NEWSDESK_REQUEST_TIMEOUT" envDefault:"30s"`
	PageSize       int           `env:"NEWSDESK_PAGE_SIZE" envDefault:"10"`

	// Session persistence
	ConfigDir         string `env:"NEWSDESK_CONFIG_DIR"`
	SessionBackend    string `env:"NEWSDESK_SESSION_BACKEND" envDefault:"file"`
	SynthesizeProfile bool   `env:"NEWSDESK_SYNTHESIZE_PROFILE" envDefault:"true"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file from the working directory and then parses
// the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return &cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	c.APIURL = strings.TrimRight(ensureScheme(strings.TrimSpace(c.APIURL)), "/")
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultTimeout
	}
	if c.PageSize < 1 {
		c.PageSize = defaultPageSize
	}
	if c.PageSize > maxPageSize {
		c.PageSize = maxPageSize
	}

	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	if c.SessionBackend != BackendSQLite {
		c.SessionBackend = BackendFile
	}

	if c.ConfigDir == "" {
		c.ConfigDir = DefaultConfigDir()
	}
}

// Validate reports configuration that cannot be used at all.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("NEWSDESK_API_URL is invalid: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("NEWSDESK_API_URL has no host: %q", c.APIURL)
	}
	if c.ConfigDir == "" {
		return errors.New("cannot determine config directory; set NEWSDESK_CONFIG_DIR")
	}
	return nil
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "newsdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "newsdesk")
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(raw string) string {
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}
