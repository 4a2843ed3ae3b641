package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr() != ":8080" || cfg.KafkaTopic != "game-events" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Connect4Depth != 5 || cfg.TicTacToeDepth != 9 {
		t.Fatalf("unexpected depths %+v", cfg)
	}
	if cfg.IdleAfter() != 30*time.Minute || cfg.BookExpiry() != 0 {
		t.Fatalf("unexpected durations idle=%v ttl=%v", cfg.IdleAfter(), cfg.BookExpiry())
	}
	if len(cfg.Brokers()) != 0 {
		t.Fatalf("expected no brokers, got %v", cfg.Brokers())
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("CONNECT4_DEPTH", "3")
	t.Setenv("RANDOM_START", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr() != ":9000" {
		t.Fatalf("PORT should win over ADDR, got %s", cfg.ListenAddr())
	}
	if got := cfg.Brokers(); len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
	if cfg.Connect4Depth != 3 || !cfg.RandomStart {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.env")
	if err := os.WriteFile(path, []byte("ADDR=:7070\nTICTACTOE_DEPTH=4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr() != ":7070" || cfg.TicTacToeDepth != 4 {
		t.Fatalf("file not applied: %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CONNECT4_DEPTH", "0")
	if _, err := Load(""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
