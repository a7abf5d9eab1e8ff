package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RunnerConcurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.RunnerConcurrency)
	}
	if cfg.RunnerTimeout != 30*time.Second {
		t.Errorf("expected runner timeout 30s, got %s", cfg.RunnerTimeout)
	}
	if cfg.MaxAugmentationLookups != 25 {
		t.Errorf("expected 25 augmentation lookups, got %d", cfg.MaxAugmentationLookups)
	}
	if cfg.AugmentRetries != 0 {
		t.Errorf("expected augmentation retries off by default, got %d", cfg.AugmentRetries)
	}
	if cfg.ResearchDelay != 50*time.Millisecond {
		t.Errorf("expected research delay 50ms, got %s", cfg.ResearchDelay)
	}
	if cfg.S3Enabled() {
		t.Error("expected S3 disabled without a bucket")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BIOFAN_MAX_AUGMENTATION_LOOKUPS", "3")
	t.Setenv("BIOFAN_RUNNER_TIMEOUT", "2s")
	t.Setenv("BIOFAN_CHEMBL_URL", "http://localhost:9999/chembl")
	t.Setenv("BIOFAN_NCBI_API_KEY", "secret")
	t.Setenv("BIOFAN_CAP_TRIALS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxAugmentationLookups != 3 {
		t.Errorf("expected 3, got %d", cfg.MaxAugmentationLookups)
	}
	if cfg.RunnerTimeout != 2*time.Second {
		t.Errorf("expected 2s, got %s", cfg.RunnerTimeout)
	}
	src := cfg.Sources()
	if src.ChEMBLURL != "http://localhost:9999/chembl" {
		t.Errorf("expected overridden ChEMBL URL, got %q", src.ChEMBLURL)
	}
	if src.EntrezAPIKey != "secret" {
		t.Errorf("expected API key to flow into source config, got %q", src.EntrezAPIKey)
	}
	if src.Timeout != cfg.HTTPTimeout {
		t.Errorf("expected timeout %s, got %s", cfg.HTTPTimeout, src.Timeout)
	}
	if caps := cfg.Caps(); caps.Trials != 5 || caps.Publications != 15 {
		t.Errorf("unexpected caps %+v", caps)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BIOFAN_RUNNER_CONCURRENCY", "0")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "RUNNER_CONCURRENCY") {
		t.Errorf("expected concurrency error, got %v", err)
	}
}

func TestLoad_Unparseable(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BIOFAN_RUNNER_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			LogFormat:         "json",
			Rate:              5,
			HTTPTimeout:       time.Second,
			RunnerConcurrency: 4,
			RunnerTimeout:     time.Second,
		}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"negative lookups", func(c *Config) { c.MaxAugmentationLookups = -1 }, "MAX_AUGMENTATION_LOOKUPS"},
		{"negative caps", func(c *Config) { c.CapGenes = -1 }, "display caps"},
		{"negative retries", func(c *Config) { c.AugmentRetries = -1 }, "retry counts"},
		{"zero rate", func(c *Config) { c.Rate = 0 }, "RATE"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
