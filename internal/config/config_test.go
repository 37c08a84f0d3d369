package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" {
		t.Errorf("defaults = %q %q", cfg.HTTPAddr, cfg.DBDriver)
	}
	if cfg.GrillePath != "" {
		t.Errorf("grille path default = %q, want empty", cfg.GrillePath)
	}
	if !cfg.RemoteStore {
		t.Error("remote store disabled by default")
	}
	if cfg.AutosaveQuiet != time.Second {
		t.Errorf("autosave quiet = %v", cfg.AutosaveQuiet)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("GRILLE_PATH", "/etc/oral-dnb/grille-2025.yaml")
	t.Setenv("REMOTE_STORE", "false")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.fr, https://b.fr,")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9000" {
		t.Errorf("addr = %q", cfg.HTTPAddr)
	}
	if cfg.GrillePath != "/etc/oral-dnb/grille-2025.yaml" {
		t.Errorf("grille path = %q", cfg.GrillePath)
	}
	if cfg.RemoteStore {
		t.Error("REMOTE_STORE=false ignored")
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("ttl = %v", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.fr" {
		t.Errorf("origins = %v", cfg.CORSOrigins)
	}
}

func TestEnvDurFallsBackOnGarbage(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")
	if got := FromEnv().TokenTTL; got != 8*time.Hour {
		t.Errorf("ttl = %v, want default", got)
	}
}
