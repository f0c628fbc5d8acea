package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STATUS_TRANSITIONS", "")
	t.Setenv("LAWYER_CACHE_TTL", "")

	cfg := Load()
	if cfg.ServerPort != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.ServerPort)
	}
	if cfg.StatusTransitions != "open" {
		t.Errorf("expected open transitions, got %s", cfg.StatusTransitions)
	}
	if cfg.LawyerCacheTTL != 10*time.Minute {
		t.Errorf("expected 10m cache ttl, got %v", cfg.LawyerCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ASSISTANT_RPS", "0.5")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("ENV", "development")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.justicehub.in, ,http://localhost:3000")

	cfg := Load()
	if cfg.ServerPort != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.ServerPort)
	}
	if cfg.AssistantRPS != 0.5 {
		t.Errorf("expected 0.5 rps, got %v", cfg.AssistantRPS)
	}
	if !cfg.TracingEnabled {
		t.Error("expected tracing enabled")
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("expected 30s window, got %v", cfg.RateLimitWindow)
	}
	if cfg.DBMaxOpenConns != 20 {
		t.Errorf("bad int should fall back to default, got %d", cfg.DBMaxOpenConns)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:3000" {
		t.Errorf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if !cfg.Development() {
		t.Error("expected development mode")
	}
}
