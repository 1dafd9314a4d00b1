package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func baseEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET": "secret",
		"API_KEY":    "key",
	}
}

func TestProcess_Defaults(t *testing.T) {
	cfg, err := Process(context.Background(), envconfig.MapLookuper(baseEnv()))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.TokenTTL != 5*time.Hour {
		t.Fatalf("expected 5h token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.APIKeyHeader != "X-API-Key" {
		t.Fatalf("unexpected api key header %q", cfg.APIKeyHeader)
	}
	if cfg.RateLimit.Max != 100 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.Policy != PolicyFixedWindow || cfg.RateLimit.Store != StoreMemory {
		t.Fatalf("unexpected rate limit backend: %+v", cfg.RateLimit)
	}
	if cfg.StoreDriver != StoreMemory || !cfg.AllowClean {
		t.Fatalf("unexpected store defaults: driver=%q allowClean=%v", cfg.StoreDriver, cfg.AllowClean)
	}
	if cfg.NeedsMongo() || cfg.NeedsRedis() {
		t.Fatalf("default config should not need external backends")
	}
}

func TestProcess_Overrides(t *testing.T) {
	env := baseEnv()
	env["RATE_LIMIT_MAX"] = "5"
	env["RATE_LIMIT_WINDOW"] = "30s"
	env["RATE_LIMIT_STORE"] = "redis"
	env["STORE_DRIVER"] = "mongo"
	env["ALLOW_CLEAN"] = "false"
	env["TOKEN_TTL"] = "15m"

	cfg, err := Process(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if cfg.RateLimit.Max != 5 || cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if !cfg.NeedsRedis() || !cfg.NeedsMongo() {
		t.Fatalf("expected redis and mongo to be required")
	}
	if cfg.AllowClean {
		t.Fatalf("expected clean route disabled")
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
}

func TestProcess_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]string)
		wantMsg string
	}{
		{name: "missing secret", mutate: func(m map[string]string) { delete(m, "JWT_SECRET") }, wantMsg: "JWT_SECRET"},
		{name: "missing api key", mutate: func(m map[string]string) { m["API_KEY"] = " " }, wantMsg: "API_KEY"},
		{name: "zero limit", mutate: func(m map[string]string) { m["RATE_LIMIT_MAX"] = "0" }, wantMsg: "RATE_LIMIT_MAX"},
		{name: "unknown policy", mutate: func(m map[string]string) { m["RATE_LIMIT_POLICY"] = "leaky" }, wantMsg: "RATE_LIMIT_POLICY"},
		{name: "redis token bucket", mutate: func(m map[string]string) {
			m["RATE_LIMIT_STORE"] = "redis"
			m["RATE_LIMIT_POLICY"] = "token_bucket"
		}, wantMsg: "fixed_window"},
		{name: "unknown driver", mutate: func(m map[string]string) { m["STORE_DRIVER"] = "sqlite" }, wantMsg: "STORE_DRIVER"},
		{name: "half seed", mutate: func(m map[string]string) { m["SEED_ADMIN_USER"] = "admin@example.com" }, wantMsg: "SEED_ADMIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			tt.mutate(env)
			_, err := Process(context.Background(), envconfig.MapLookuper(env))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "JWT_SECRET=from-file\nAPI_KEY=file-key\nRATE_LIMIT_MAX=7\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("API_KEY", "env-key")
	// t.Setenv restores the originals after godotenv writes to the process env.
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_MAX", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("RATE_LIMIT_MAX")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.JWTSecret != "from-file" || cfg.RateLimit.Max != 7 {
		t.Fatalf("expected values from file, got secret=%q max=%d", cfg.JWTSecret, cfg.RateLimit.Max)
	}
	if cfg.APIKey != "env-key" {
		t.Fatalf("expected environment to win, got %q", cfg.APIKey)
	}
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("API_KEY", "k")

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}
