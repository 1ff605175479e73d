// Package config loads the storefront configuration from sweetshop.json
// with environment variable overrides for deployment settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "sweetshop.json"

	// DefaultAPIBaseURL is the backend used when none is configured.
	DefaultAPIBaseURL = "http://localhost:8000/api"

	// DefaultListen is the default storefront listen address.
	DefaultListen = ":3000"

	// DefaultStateDB is the default path for the credential database.
	DefaultStateDB = "sweetshop.db"

	// DefaultSessionTTL is how long an idle browser session survives.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultSearchDebounce is the quiet period for live search.
	DefaultSearchDebounce = 300 * time.Millisecond
)

// Config is the complete sweetshop.json configuration.
type Config struct {
	// APIBaseURL is the base URL of the sweet-shop REST backend,
	// e.g. "http://localhost:8000/api".
	APIBaseURL string `json:"apiBaseUrl,omitempty"`

	// Listen is the address the storefront binds to.
	Listen string `json:"listen,omitempty"`

	// StateDB is the path of the SQLite database holding persisted
	// client state (bearer token and username).
	StateDB string `json:"stateDb,omitempty"`

	// SessionTTL is how long an idle browser session is kept, as a
	// duration string ("24h").
	SessionTTL string `json:"sessionTtl,omitempty"`

	// SearchDebounce is the live-search quiet period ("300ms").
	SearchDebounce string `json:"searchDebounce,omitempty"`

	// Upload configures sweet image storage.
	Upload UploadConfig `json:"upload,omitempty"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics,omitempty"`
}

// UploadConfig configures image storage for the admin item form.
type UploadConfig struct {
	// Backend selects the storage backend: "disk" (default) or "s3".
	Backend string `json:"backend,omitempty"`

	// Dir is the image directory for the disk backend.
	Dir string `json:"dir,omitempty"`

	// MaxImageSize is the upload size limit in bytes.
	MaxImageSize int64 `json:"maxImageSize,omitempty"`

	// S3Bucket is the bucket name for the s3 backend.
	S3Bucket string `json:"s3Bucket,omitempty"`

	// S3Prefix is the key prefix for the s3 backend.
	S3Prefix string `json:"s3Prefix,omitempty"`

	// S3BaseURL is the public base URL images resolve under.
	S3BaseURL string `json:"s3BaseUrl,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	Enabled bool `json:"enabled,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		APIBaseURL:     DefaultAPIBaseURL,
		Listen:         DefaultListen,
		StateDB:        DefaultStateDB,
		SessionTTL:     DefaultSessionTTL.String(),
		SearchDebounce: DefaultSearchDebounce.String(),
		Upload: UploadConfig{
			Backend:      "disk",
			Dir:          "images",
			MaxImageSize: 5 << 20,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads the configuration file at path, falling back to defaults
// when the file does not exist, and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment are a complete configuration.
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment. Only deployment
// settings are overridable; structural options stay in the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("SWEETSHOP_API_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("SWEETSHOP_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SWEETSHOP_STATE_DB"); v != "" {
		c.StateDB = v
	}
	if v := os.Getenv("SWEETSHOP_METRICS"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Metrics.Enabled = enabled
		}
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("config: apiBaseUrl must not be empty")
	}
	if c.Listen == "" {
		return fmt.Errorf("config: listen must not be empty")
	}
	if _, err := time.ParseDuration(c.SessionTTL); err != nil {
		return fmt.Errorf("config: invalid sessionTtl %q: %w", c.SessionTTL, err)
	}
	if _, err := time.ParseDuration(c.SearchDebounce); err != nil {
		return fmt.Errorf("config: invalid searchDebounce %q: %w", c.SearchDebounce, err)
	}
	switch c.Upload.Backend {
	case "", "disk":
	case "s3":
		if c.Upload.S3Bucket == "" || c.Upload.S3BaseURL == "" {
			return fmt.Errorf("config: s3 backend requires s3Bucket and s3BaseUrl")
		}
	default:
		return fmt.Errorf("config: unknown upload backend %q", c.Upload.Backend)
	}
	return nil
}

// SessionTTLDuration returns the parsed session TTL.
func (c *Config) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return DefaultSessionTTL
	}
	return d
}

// SearchDebounceDuration returns the parsed live-search quiet period.
func (c *Config) SearchDebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.SearchDebounce)
	if err != nil {
		return DefaultSearchDebounce
	}
	return d
}
