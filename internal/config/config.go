package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// CacheDir holds the per-juror draft and history files. Empty
	// selects the in-memory cache (state lost on restart).
	CacheDir string

	// GrillePath overrides the embedded scoring grille with a YAML
	// file, e.g. to run an earlier session year. Empty keeps the
	// embedded one.
	GrillePath string

	AuthSecret string
	TokenTTL   time.Duration

	// AutosaveQuiet is how long scoring must stay idle before a
	// remote write fires.
	AutosaveQuiet time.Duration

	// RemoteStore disables the shared store entirely when false;
	// evaluations then live only in the local cache.
	RemoteStore bool

	AdminEmail    string
	AdminPassHash string // bcrypt

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		CacheDir:      envOr("CACHE_DIR", "./data"),
		GrillePath:    envOr("GRILLE_PATH", ""),
		AuthSecret:    envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		TokenTTL:      envDur("TOKEN_TTL", 8*time.Hour),
		AutosaveQuiet: envDur("AUTOSAVE_QUIET", time.Second),
		RemoteStore:   envBool("REMOTE_STORE", true),
		AdminEmail:    envOr("ADMIN_EMAIL", "admin@college.fr"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", ""),
		CORSOrigins:   csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
