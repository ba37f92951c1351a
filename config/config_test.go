package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.internal:9000/api")
	t.Setenv("REQUEST_TIMEOUT", "45s")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("RATE_LIMIT_INTERVAL", "2s")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("POLL_TIMEOUT", "5m")
	t.Setenv("DB_PATH", "/tmp/jobs-test.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()

	if cfg.APIBaseURL != "http://api.internal:9000/api" {
		t.Errorf("expected http://api.internal:9000/api, got %s", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("expected 45s, got %s", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("expected 10, got %d", cfg.RateLimit)
	}
	if cfg.RateLimitInterval != 2*time.Second {
		t.Errorf("expected 2s, got %s", cfg.RateLimitInterval)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %s", cfg.PollInterval)
	}
	if cfg.PollTimeout != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.PollTimeout)
	}
	if cfg.DBPath != "/tmp/jobs-test.db" {
		t.Errorf("expected /tmp/jobs-test.db, got %s", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug, got %s", cfg.LogLevel)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("RATE_LIMIT", "many")

	cfg := LoadConfig()

	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("expected %s, got %s", DefaultAPIBaseURL, cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("expected no timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("expected rate limit disabled, got %d", cfg.RateLimit)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIBaseURL:        DefaultAPIBaseURL,
			RateLimitInterval: time.Second,
			PollInterval:      time.Second,
			PollTimeout:       time.Minute,
			DBPath:            "./data/jobs.db",
			LogLevel:          "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty base URL", func(c *Config) { c.APIBaseURL = "" }, true},
		{"relative base URL", func(c *Config) { c.APIBaseURL = "/api" }, true},
		{"ftp base URL", func(c *Config) { c.APIBaseURL = "ftp://host/api" }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
		{"rate limit without interval", func(c *Config) { c.RateLimit = 1; c.RateLimitInterval = 0 }, true},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"missing db path", func(c *Config) { c.DBPath = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
