package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SMS_ACCOUNT_SID", "AC123")
	t.Setenv("SMS_AUTH_TOKEN", "token")
	t.Setenv("SMS_FROM_NUMBER", "+15550001111")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.Session.IdleTTL != time.Hour {
		t.Errorf("Expected 1h idle TTL, got %s", cfg.Session.IdleTTL)
	}
	if cfg.CheckIn.Delay != 24*time.Hour {
		t.Errorf("Expected 24h check-in delay, got %s", cfg.CheckIn.Delay)
	}
	if cfg.MaxMessageLen != 1600 {
		t.Errorf("Expected max length 1600, got %d", cfg.MaxMessageLen)
	}
	if cfg.SMS.BaseURL != "https://api.twilio.com" {
		t.Errorf("Unexpected SMS base URL %s", cfg.SMS.BaseURL)
	}
	if cfg.SMS.ValidateSignatures {
		t.Error("Expected signature validation off by default")
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Expected cache disabled by default, got %s", cfg.Redis.Addr)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("Expected generator disabled by default, got key %q", cfg.LLM.APIKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_IDLE_TTL", "30m")
	t.Setenv("CHECKIN_DELAY", "12h")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("WEBHOOK_VALIDATE_SIGNATURES", "on")
	t.Setenv("PUBLIC_URL", "https://hooks.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.Session.IdleTTL != 30*time.Minute {
		t.Errorf("Expected 30m idle TTL, got %s", cfg.Session.IdleTTL)
	}
	if cfg.CheckIn.Delay != 12*time.Hour {
		t.Errorf("Expected 12h delay, got %s", cfg.CheckIn.Delay)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("Expected temperature 0.2, got %f", cfg.LLM.Temperature)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("Expected redis db 3, got %d", cfg.Redis.DB)
	}
	if !cfg.SMS.ValidateSignatures {
		t.Error("Expected signature validation on")
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("SESSION_IDLE_TTL", "not-a-duration")
	t.Setenv("MAX_MESSAGE_LEN", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.IdleTTL != time.Hour {
		t.Errorf("Expected fallback 1h, got %s", cfg.Session.IdleTTL)
	}
	if cfg.MaxMessageLen != 1600 {
		t.Errorf("Expected fallback 1600, got %d", cfg.MaxMessageLen)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:          "8080",
			DBPath:        "./x.db",
			SMS:           SMSConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+1"},
			Session:       SessionConfig{CacheTTL: time.Minute, IdleTTL: time.Hour, CleanupInterval: time.Minute},
			CheckIn:       CheckInConfig{Interval: time.Minute, Delay: time.Hour},
			MaxMessageLen: 1600,
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Expected valid base config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing sid", func(c *Config) { c.SMS.AccountSID = "" }, "SMS_ACCOUNT_SID"},
		{"missing token", func(c *Config) { c.SMS.AuthToken = "" }, "SMS_AUTH_TOKEN"},
		{"missing from", func(c *Config) { c.SMS.FromNumber = "" }, "SMS_FROM_NUMBER"},
		{"validation without public url", func(c *Config) { c.SMS.ValidateSignatures = true }, "PUBLIC_URL"},
		{"zero max length", func(c *Config) { c.MaxMessageLen = 0 }, "MAX_MESSAGE_LEN"},
		{"zero check-in interval", func(c *Config) { c.CheckIn.Interval = 0 }, "CHECKIN_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
