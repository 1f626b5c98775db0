package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.MongoDatabase != "support_tickets" {
		t.Fatalf("unexpected database: %s", cfg.MongoDatabase)
	}
	if cfg.SessionTTL != 720*time.Hour {
		t.Fatalf("expected 30 day sessions, got %s", cfg.SessionTTL)
	}
	if cfg.WebhookRetries != 3 || cfg.WebhookDelay != 2*time.Second {
		t.Fatalf("unexpected webhook retry settings: %d %s", cfg.WebhookRetries, cfg.WebhookDelay)
	}
	if len(cfg.SecretKey) != 64 {
		t.Fatalf("expected generated secret key, got %q", cfg.SecretKey)
	}
	if cfg.IsProduction() {
		t.Fatalf("dev env must not be production")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("EMAIL_USERNAME", "desk@autoassistgroup.com")
	t.Setenv("EMAIL_FROM", "")
	t.Setenv("SECRET_KEY", "fixed")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected port override, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.EmailFrom != "desk@autoassistgroup.com" {
		t.Fatalf("expected EMAIL_FROM to fall back to username, got %s", cfg.EmailFrom)
	}
	if cfg.SecretKey != "fixed" {
		t.Fatalf("expected configured secret key, got %s", cfg.SecretKey)
	}
}
