package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playperu/mafianight/internal/mafia"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DBPath != "data/mafianight.db" {
		t.Errorf("DBPath = %q, want data/mafianight.db", cfg.DBPath)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("SessionTTL = %s, want 2h", cfg.SessionTTL)
	}
	if cfg.CodeAttempts != 5 {
		t.Errorf("CodeAttempts = %d, want 5", cfg.CodeAttempts)
	}
	if cfg.AutoEndOnWin {
		t.Error("AutoEndOnWin = true, want false")
	}
	if got := cfg.Phases.Durations()[mafia.PhaseDay]; got != 180*time.Second {
		t.Errorf("day = %s, want 3m", got)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("PHASE_NIGHT", "45s")
	t.Setenv("AUTO_END_ON_WIN", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %s, want 30m", cfg.SessionTTL)
	}
	if cfg.Phases.Night != 45*time.Second {
		t.Errorf("Night = %s, want 45s", cfg.Phases.Night)
	}
	if !cfg.AutoEndOnWin {
		t.Error("AutoEndOnWin = false, want true")
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CODE_ATTEMPTS=9\nHTTP_ADDR=:9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// The environment wins over the file.
	t.Setenv("HTTP_ADDR", ":7070")
	t.Cleanup(func() { os.Unsetenv("CODE_ATTEMPTS") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CodeAttempts != 9 {
		t.Errorf("CodeAttempts = %d, want 9", cfg.CodeAttempts)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Errorf("HTTPAddr = %q, want :7070", cfg.HTTPAddr)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"zero ttl", "SESSION_TTL", "0s"},
		{"no attempts", "CODE_ATTEMPTS", "0"},
		{"negative phase", "PHASE_DAY", "-1s"},
		{"bad duration", "STATS_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("%s=%s: got nil error", tt.key, tt.value)
			}
		})
	}
}
