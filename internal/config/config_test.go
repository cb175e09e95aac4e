package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AccessTokenTTL() != 24*time.Hour {
		t.Errorf("AccessTokenTTL = %v", cfg.AccessTokenTTL())
	}
	if cfg.RefreshTokenTTL() != 7*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v", cfg.RefreshTokenTTL())
	}
	if cfg.NotificationRetentionDays != 30 {
		t.Errorf("NotificationRetentionDays = %d", cfg.NotificationRetentionDays)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("JWT_EXPIRY", "2")
	t.Setenv("SUPERADMIN1_EMAIL", "root@example.com")
	t.Setenv("SUPERADMIN1_PASSWORD", "supersecret")
	t.Setenv("SUPERADMIN2_EMAIL", "half@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.JWTExpiry != 2 {
		t.Errorf("JWTExpiry = %d, want 2", cfg.JWTExpiry)
	}
	if len(cfg.SuperAdmins) != 1 {
		t.Fatalf("SuperAdmins = %d, want 1 (incomplete triples are skipped)", len(cfg.SuperAdmins))
	}
	if cfg.SuperAdmins[0].Name != "Super Admin 1" {
		t.Errorf("default name = %q", cfg.SuperAdmins[0].Name)
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}
}
