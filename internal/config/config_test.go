package config

import (
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("max retries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryBaseDelay != time.Second {
		t.Fatalf("base delay = %s, want 1s", cfg.RetryBaseDelay)
	}
	if cfg.ScrapePageDelay != time.Second {
		t.Fatalf("scrape page delay = %s, want 1s", cfg.ScrapePageDelay)
	}
	if cfg.ExistencePageDelay != 200*time.Millisecond {
		t.Fatalf("existence page delay = %s, want 200ms", cfg.ExistencePageDelay)
	}
	if cfg.JPYToUSDRate != "0.0067" {
		t.Fatalf("rate = %q, want 0.0067", cfg.JPYToUSDRate)
	}
	if len(cfg.Brokers()) != 0 {
		t.Fatalf("brokers = %v, want none", cfg.Brokers())
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("FETCH_MAX_RETRIES", "5")
	t.Setenv("SCRAPE_PAGE_DELAY", "250ms")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIPort != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.APIPort)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("max retries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.ScrapePageDelay != 250*time.Millisecond {
		t.Fatalf("scrape delay = %s, want 250ms", cfg.ScrapePageDelay)
	}
	brokers := cfg.Brokers()
	if len(brokers) != 2 || brokers[1] != "kafka-2:9092" {
		t.Fatalf("brokers = %v", brokers)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty port", mutate: func(c *Config) { c.APIPort = "" }},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }},
		{name: "negative scrape delay", mutate: func(c *Config) { c.ScrapePageDelay = -time.Second }},
		{name: "zero admin rate", mutate: func(c *Config) { c.AdminRateLimit = 0 }},
		{name: "zero burst", mutate: func(c *Config) { c.AdminRateBurst = 0 }},
		{name: "zero session ttl", mutate: func(c *Config) { c.SessionTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
