package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_NAME", "jobdash")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "8080")
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("APP_NAME", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_PORT", "")

	_, err := Load()
	if !errors.Is(err, errMissingRequiredEnv) {
		t.Fatalf("expected errMissingRequiredEnv, got %v", err)
	}
}

func TestLoad_FeedDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("FEED_PAGE_SIZE", "")
	t.Setenv("FEED_DEBOUNCE_MS", "")
	t.Setenv("SUGGESTIONS_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Feed.PageSize != 9 {
		t.Fatalf("expected page size 9, got %d", cfg.Feed.PageSize)
	}
	if cfg.Feed.Debounce != 400*time.Millisecond {
		t.Fatalf("expected 400ms debounce, got %s", cfg.Feed.Debounce)
	}
	if len(cfg.Suggestions.Status) != 7 || len(cfg.Suggestions.Priority) != 3 {
		t.Fatalf("unexpected default suggestions: %+v", cfg.Suggestions)
	}
	if cfg.Redis.Host != "localhost" || cfg.Redis.Port != "6379" {
		t.Fatalf("unexpected redis defaults: %+v", cfg.Redis)
	}
}

func TestLoadSuggestions_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suggestions.yaml")
	body := "status:\n  - Shortlisted\n  - \" Applied \"\n  - Applied\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := LoadSuggestions(path)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(s.Status) != 2 || s.Status[0] != "Shortlisted" || s.Status[1] != "Applied" {
		t.Fatalf("unexpected status list: %v", s.Status)
	}
	if len(s.Priority) != 3 {
		t.Fatalf("expected default priority list, got %v", s.Priority)
	}
}

func TestLoadSuggestions_BadFile(t *testing.T) {
	if _, err := LoadSuggestions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
