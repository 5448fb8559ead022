package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// API Configuration
	APIPort string
	APIHost string

	// Outbound HTTP
	HTTPTimeout    time.Duration
	UserAgent      string
	MaxRetries     int
	RetryBaseDelay time.Duration

	// Politeness delays between pages
	ScrapePageDelay    time.Duration
	ExistencePageDelay time.Duration

	// Destination Admin API pacing
	AdminRateLimit float64
	AdminRateBurst int

	// Currency
	JPYToUSDRate string

	// Kafka (empty brokers disables history events)
	KafkaBrokers   string
	HistoryTopic   string
	HistoryGroupID string

	// Sessions
	SessionCapacity int
	SessionTTL      time.Duration

	CORSAllowedOrigins []string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		APIPort:            v.GetString("API_PORT"),
		APIHost:            v.GetString("API_HOST"),
		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),
		UserAgent:          v.GetString("USER_AGENT"),
		MaxRetries:         v.GetInt("FETCH_MAX_RETRIES"),
		RetryBaseDelay:     v.GetDuration("FETCH_BASE_DELAY"),
		ScrapePageDelay:    v.GetDuration("SCRAPE_PAGE_DELAY"),
		ExistencePageDelay: v.GetDuration("EXISTENCE_PAGE_DELAY"),
		AdminRateLimit:     v.GetFloat64("ADMIN_RATE_LIMIT"),
		AdminRateBurst:     v.GetInt("ADMIN_RATE_BURST"),
		JPYToUSDRate:       v.GetString("JPY_TO_USD_RATE"),
		KafkaBrokers:       v.GetString("KAFKA_BROKERS"),
		HistoryTopic:       v.GetString("HISTORY_TOPIC"),
		HistoryGroupID:     v.GetString("HISTORY_GROUP_ID"),
		SessionCapacity:    v.GetInt("SESSION_CAPACITY"),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		Env:                v.GetString("ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("FETCH_MAX_RETRIES", 3)
	v.SetDefault("FETCH_BASE_DELAY", "1s")
	v.SetDefault("SCRAPE_PAGE_DELAY", "1s")
	v.SetDefault("EXISTENCE_PAGE_DELAY", "200ms")
	v.SetDefault("ADMIN_RATE_LIMIT", 2.0)
	v.SetDefault("ADMIN_RATE_BURST", 10)
	v.SetDefault("JPY_TO_USD_RATE", "0.0067")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("HISTORY_TOPIC", "upload-history")
	v.SetDefault("HISTORY_GROUP_ID", "shopclone-history")
	v.SetDefault("SESSION_CAPACITY", 1024)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.APIPort == "" {
		return fmt.Errorf("api port cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("retry base delay cannot be negative")
	}
	if c.ScrapePageDelay < 0 {
		return fmt.Errorf("scrape page delay cannot be negative")
	}
	if c.ExistencePageDelay < 0 {
		return fmt.Errorf("existence page delay cannot be negative")
	}
	if c.AdminRateLimit <= 0 {
		return fmt.Errorf("admin rate limit must be positive")
	}
	if c.AdminRateBurst <= 0 {
		return fmt.Errorf("admin rate burst must be positive")
	}
	if c.SessionCapacity <= 0 {
		return fmt.Errorf("session capacity must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// Brokers returns the Kafka broker list, or nil when history events are off.
func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
