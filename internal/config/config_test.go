package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "SESSION_IDLE_TTL", "TOOL_CALLS_PER_SECOND", "ALLOWED_ORIGINS", "METRICS_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("Expected port 3001, got %s", cfg.Port)
	}
	if cfg.Environment != "development" || cfg.IsProduction() {
		t.Errorf("Expected development environment, got %s", cfg.Environment)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Errorf("Expected 30m idle TTL, got %v", cfg.SessionIdleTTL)
	}
	if cfg.ToolCallsPerSecond != 5 || cfg.ToolCallBurst != 10 {
		t.Errorf("Expected 5/s burst 10, got %v/%d", cfg.ToolCallsPerSecond, cfg.ToolCallBurst)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("Expected [*] origins, got %v", cfg.AllowedOrigins)
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected metrics enabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_IDLE_TTL", "90s")
	t.Setenv("SESSION_SWEEP_INTERVAL", "not-a-duration")
	t.Setenv("TOOL_CALLS_PER_SECOND", "0.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("ADMIN_USER_IDS", "ops-1,ops-2")

	cfg := Load()

	if !cfg.IsProduction() {
		t.Error("Expected production")
	}
	if cfg.SessionIdleTTL != 90*time.Second {
		t.Errorf("Expected 90s, got %v", cfg.SessionIdleTTL)
	}
	if cfg.SessionSweepInterval != time.Minute {
		t.Errorf("Expected invalid duration to fall back to 1m, got %v", cfg.SessionSweepInterval)
	}
	if cfg.ToolCallsPerSecond != 0.5 {
		t.Errorf("Expected 0.5, got %v", cfg.ToolCallsPerSecond)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Expected two trimmed origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.MetricsEnabled {
		t.Error("Expected metrics disabled")
	}
	if len(cfg.AdminUserIDs) != 2 || cfg.AdminUserIDs[0] != "ops-1" {
		t.Errorf("Expected two admin ids, got %v", cfg.AdminUserIDs)
	}
}
