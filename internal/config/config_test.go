package config

import (
	"errors"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DATABASE_DSN", "postgres://localhost/test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("VCPING_DEBOUNCE_WINDOW", "")
	t.Setenv("COMMAND_PREFIX", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DebounceWindow != 30*time.Second {
		t.Errorf("DebounceWindow = %v, want 30s default", cfg.DebounceWindow)
	}
	if cfg.GateRetention != 10*time.Minute {
		t.Errorf("GateRetention = %v, want 10m default", cfg.GateRetention)
	}
	if cfg.CommandPrefix != "!" {
		t.Errorf("CommandPrefix = %q, want %q", cfg.CommandPrefix, "!")
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("DATABASE_DSN", "postgres://localhost/test")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DISCORD_TOKEN is missing")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "DISCORD_TOKEN" {
		t.Fatalf("err = %v, want ConfigError for DISCORD_TOKEN", err)
	}
}

func TestLoadMissingDSN(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("DATABASE_DSN", "")

	_, err := Load()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "DATABASE_DSN" {
		t.Fatalf("err = %v, want ConfigError for DATABASE_DSN", err)
	}
}

func TestLoadDurationOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("VCPING_DEBOUNCE_WINDOW", "45s")
	t.Setenv("VCPING_GATE_RETENTION", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DebounceWindow != 45*time.Second {
		t.Errorf("DebounceWindow = %v, want 45s", cfg.DebounceWindow)
	}
	if cfg.GateRetention != 30*time.Minute {
		t.Errorf("GateRetention = %v, want 30m", cfg.GateRetention)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("VCPING_DEBOUNCE_WINDOW", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable debounce window")
	}
}
