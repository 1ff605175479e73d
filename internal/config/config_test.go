package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ConfigFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Upload.Backend != "disk" {
		t.Errorf("Upload.Backend = %q", cfg.Upload.Backend)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	contents := `{
		"apiBaseUrl": "https://shop.example.com/api",
		"listen": ":8080",
		"sessionTtl": "1h",
		"upload": {"backend": "s3", "s3Bucket": "shop-images", "s3BaseUrl": "https://cdn.example.com"}
	}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://shop.example.com/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SessionTTLDuration() != time.Hour {
		t.Errorf("SessionTTLDuration = %v", cfg.SessionTTLDuration())
	}
	if cfg.Upload.S3Bucket != "shop-images" {
		t.Errorf("S3Bucket = %q", cfg.Upload.S3Bucket)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SWEETSHOP_API_URL", "http://backend:9000/api")
	t.Setenv("SWEETSHOP_METRICS", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), ConfigFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://backend:9000/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics still enabled despite SWEETSHOP_METRICS=false")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty api url", func(c *Config) { c.APIBaseURL = "" }},
		{"bad session ttl", func(c *Config) { c.SessionTTL = "soon" }},
		{"unknown upload backend", func(c *Config) { c.Upload.Backend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Upload.Backend = "s3" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}
