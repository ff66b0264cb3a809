// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port   string
	DBPath string

	Redis   RedisConfig
	LLM     LLMConfig
	SMS     SMSConfig
	Session SessionConfig
	CheckIn CheckInConfig

	// MaxMessageLen is the inbound size cap; anything larger is dropped.
	MaxMessageLen int

	// RiskLexiconPath points at an optional YAML file that replaces the
	// shipped risk lexicon wholesale. Empty means the defaults.
	RiskLexiconPath string
}

// RedisConfig controls the fast session tier. An empty Addr disables it and
// sessions run on the in-process fallback table.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LLMConfig controls the reply generator. An empty APIKey disables
// generation and every reply uses the fixed fallback text.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// SMSConfig holds provider credentials. These are required: an SMS service
// that cannot send is not worth starting.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string

	// ValidateSignatures rejects webhook requests that fail the provider
	// signature check. PublicURL is the externally visible base URL the
	// provider signed against; required when validation is on.
	ValidateSignatures bool
	PublicURL          string
}

// SessionConfig controls the tiered session store.
type SessionConfig struct {
	CacheTTL        time.Duration
	IdleTTL         time.Duration
	CleanupInterval time.Duration
}

// CheckInConfig controls the proactive check-in worker.
type CheckInConfig struct {
	Interval time.Duration
	Delay    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "./data/heartline.db"),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("LLM_API_KEY", ""),
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com"),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 300),
		},
		SMS: SMSConfig{
			AccountSID:         getEnv("SMS_ACCOUNT_SID", ""),
			AuthToken:          getEnv("SMS_AUTH_TOKEN", ""),
			FromNumber:         getEnv("SMS_FROM_NUMBER", ""),
			BaseURL:            getEnv("SMS_BASE_URL", "https://api.twilio.com"),
			ValidateSignatures: getEnvBool("WEBHOOK_VALIDATE_SIGNATURES", false),
			PublicURL:          getEnv("PUBLIC_URL", ""),
		},
		Session: SessionConfig{
			CacheTTL:        getEnvDuration("SESSION_CACHE_TTL", 30*time.Minute),
			IdleTTL:         getEnvDuration("SESSION_IDLE_TTL", time.Hour),
			CleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
		},
		CheckIn: CheckInConfig{
			Interval: getEnvDuration("CHECKIN_INTERVAL", 15*time.Minute),
			Delay:    getEnvDuration("CHECKIN_DELAY", 24*time.Hour),
		},
		MaxMessageLen:   getEnvInt("MAX_MESSAGE_LEN", 1600),
		RiskLexiconPath: getEnv("RISK_LEXICON_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SMS.AccountSID == "" {
		return fmt.Errorf("SMS_ACCOUNT_SID is required")
	}
	if c.SMS.AuthToken == "" {
		return fmt.Errorf("SMS_AUTH_TOKEN is required")
	}
	if c.SMS.FromNumber == "" {
		return fmt.Errorf("SMS_FROM_NUMBER is required")
	}
	if c.SMS.ValidateSignatures && c.SMS.PublicURL == "" {
		return fmt.Errorf("PUBLIC_URL is required when WEBHOOK_VALIDATE_SIGNATURES is on")
	}
	if c.MaxMessageLen <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LEN must be > 0")
	}
	if c.Session.CacheTTL <= 0 || c.Session.IdleTTL <= 0 || c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("session TTLs and cleanup interval must be > 0")
	}
	if c.CheckIn.Interval <= 0 || c.CheckIn.Delay <= 0 {
		return fmt.Errorf("CHECKIN_INTERVAL and CHECKIN_DELAY must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
