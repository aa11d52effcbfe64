package config

import "testing"

func TestLoadAppCombinesSections(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/casino?sslmode=disable")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := LoadApp()
	if err != nil {
		t.Fatalf("LoadApp() error = %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Server.HTTPAddr != ":9090" {
		t.Fatalf("unexpected app config: %+v", cfg)
	}
}

func TestLoadAppPropagatesServerError(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	if _, err := LoadApp(); err == nil {
		t.Fatal("LoadApp() expected error, got nil")
	}
}
