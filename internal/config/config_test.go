package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "seating")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "seating")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("RESERVATION_HOLD_TTL", "")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("SEATING_CONSUMER_ENABLED", "")

	cfg := Load()
	if cfg.Env != "test" || cfg.Port != "8080" {
		t.Errorf("env/port = %s/%s, want test/8080", cfg.Env, cfg.Port)
	}
	if cfg.HoldTTL != 15*time.Minute {
		t.Errorf("HoldTTL = %v, want 15m default", cfg.HoldTTL)
	}
	if cfg.SweepInterval != 60*time.Second {
		t.Errorf("SweepInterval = %v, want 60s default", cfg.SweepInterval)
	}
	if cfg.ConsumerEnabled {
		t.Error("ConsumerEnabled should default to false")
	}
	if cfg.DBPass != "" {
		t.Errorf("DBPass = %q, want empty when unset", cfg.DBPass)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PASS", "secret")
	t.Setenv("RABBITMQ_URL", "amqp://broker:5672/")
	t.Setenv("RESERVATION_HOLD_TTL", "5m")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("SEATING_CONSUMER_ENABLED", "true")

	cfg := Load()
	if cfg.DBPass != "secret" {
		t.Errorf("DBPass = %q, want secret", cfg.DBPass)
	}
	if cfg.AMQPURL != "amqp://broker:5672/" {
		t.Errorf("AMQPURL = %q", cfg.AMQPURL)
	}
	if cfg.HoldTTL != 5*time.Minute {
		t.Errorf("HoldTTL = %v, want 5m", cfg.HoldTTL)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("SweepInterval = %v, want 30s", cfg.SweepInterval)
	}
	if !cfg.ConsumerEnabled {
		t.Error("ConsumerEnabled should be true")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_DUR", "not-a-duration")
	if d := envDur("X_DUR", time.Minute); d != time.Minute {
		t.Errorf("envDur on garbage = %v, want fallback", d)
	}
	t.Setenv("X_BOOL", "maybe")
	if envBool("X_BOOL", true) != true {
		t.Error("envBool on garbage should keep the default")
	}
	t.Setenv("X_INT", "12")
	if n := envInt("X_INT", 5); n != 12 {
		t.Errorf("envInt = %d, want 12", n)
	}
	if s := envStr("X_UNSET_STR", "fallback"); s != "fallback" {
		t.Errorf("envStr = %q, want fallback", s)
	}
}

func TestLoadRateLimitClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if !cfg.Enabled {
		t.Fatal("expected rate limiting enabled")
	}
	if cfg.Capacity < 1 {
		t.Errorf("Capacity = %d, want clamped to >= 1", cfg.Capacity)
	}
	if cfg.RefillTokens < 1 {
		t.Errorf("RefillTokens = %d, want clamped to >= 1", cfg.RefillTokens)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Errorf("TTL = %v, want >= 5x refill interval %v", cfg.TTL, cfg.RefillInterval)
	}
}
