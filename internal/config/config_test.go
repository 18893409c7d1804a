package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/rxguard_test")
	t.Cleanup(func() { os.Unsetenv("DATABASE_URL") })
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if cfg.MigrationsDir != "./migrations" {
		t.Errorf("expected default migrations dir ./migrations, got %s", cfg.MigrationsDir)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("PORT", "9090")
	os.Setenv("ENV", "production")
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to be true")
	}
	if cfg.IsDev() {
		t.Error("expected IsDev to be false")
	}
}

func TestValidate_ProductionRequiresIssuer(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without AUTH_ISSUER")
	}
	cfg.AuthIssuer = "https://auth.example.com/realms/rxguard"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_DevelopmentAllowsNoIssuer(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
