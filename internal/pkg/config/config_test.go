package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestFromLookuper_Defaults(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("FromLookuper returned error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %s", cfg.Session.TTL)
	}
	if cfg.Session.IdleTimeout != 0 {
		t.Fatalf("idle timeout should default to disabled, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.Auth.DemoRoleLogin {
		t.Fatalf("demo role login must be off by default")
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Stores.Users != StoreMemory || cfg.Stores.Sessions != StoreMemory {
		t.Fatalf("unexpected stores: %+v", cfg.Stores)
	}
	if !cfg.UsesDefaultSecret() || cfg.IsProduction() {
		t.Fatalf("expected development defaults")
	}
}

func TestFromLookuper_Overrides(t *testing.T) {
	cfg, err := FromLookuper(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                  "Production",
		"SESSION_SECRET":       "s3cret",
		"SESSION_TTL":          "2h",
		"SESSION_IDLE_TIMEOUT": "15m",
		"AUTH_DEMO_ROLE_LOGIN": "true",
		"CORS_ALLOWED_ORIGINS": "https://a.example,https://b.example",
		"USER_STORE":           "Mongo",
		"SESSION_STORE":        "redis",
		"REDIS_DB":             "3",
	}))
	if err != nil {
		t.Fatalf("FromLookuper returned error: %v", err)
	}

	if !cfg.IsProduction() || cfg.UsesDefaultSecret() {
		t.Fatalf("expected production with custom secret")
	}
	if cfg.Session.TTL != 2*time.Hour || cfg.Session.IdleTimeout != 15*time.Minute {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if !cfg.Auth.DemoRoleLogin {
		t.Fatalf("expected demo role login enabled")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Stores.Users != StoreMongo || cfg.Stores.Sessions != StoreRedis || cfg.Redis.DB != 3 {
		t.Fatalf("unexpected store config: %+v %+v", cfg.Stores, cfg.Redis)
	}
}

func TestFromLookuper_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"user store":    {"USER_STORE": "postgres"},
		"session store": {"SESSION_STORE": "mongo"},
		"ttl":           {"SESSION_TTL": "0s"},
		"idle":          {"SESSION_IDLE_TIMEOUT": "-1m"},
		"duration":      {"SESSION_TTL": "tomorrow"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromLookuper(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected error for %v", env)
			}
		})
	}
}
