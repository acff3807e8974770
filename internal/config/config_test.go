package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_APP_TOKEN", "xapp-test")
	t.Setenv("TIMEZONE", "UTC")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("SCRUM_STORE", "")
	t.Setenv("VOTE_ENFORCE_ALLOW_ADD", "")
	t.Setenv("GITHUB_GREET_MESSAGES", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.ScrumStore != StoreFile || cfg.ScrumFile == "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.EnforceAllowAdd || !cfg.GreetMessages {
		t.Fatalf("unexpected flag defaults %+v", cfg)
	}
	if cfg.Location.String() != "UTC" {
		t.Fatalf("expected UTC location, got %s", cfg.Location)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := map[string][2]string{
		"app token prefix": {"SLACK_APP_TOKEN", "xoxb-wrong"},
		"missing bot":      {"SLACK_BOT_TOKEN", ""},
		"timezone":         {"TIMEZONE", "Mars/Olympus"},
		"bool":             {"VOTE_ENFORCE_ALLOW_ADD", "sometimes"},
		"store":            {"SCRUM_STORE", "redis"},
		"sql without dsn":  {"SCRUM_STORE", "postgres"},
		"log level":        {"LOG_LEVEL", "chatty"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("DB_DSN", "")
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", kv[0], kv[1])
			}
		})
	}
}

func TestLoadSQLStore(t *testing.T) {
	setRequired(t)
	t.Setenv("SCRUM_STORE", "SQLite")
	t.Setenv("DB_DSN", "file:scrum.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ScrumStore != StoreSQLite || !strings.HasPrefix(cfg.DB_DSN, "file:") {
		t.Fatalf("unexpected store config %+v", cfg)
	}
	if cfg.LogLevel.String() != "DEBUG" {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel)
	}
}
