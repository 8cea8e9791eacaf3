package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	defaultSessionSecret = "dev_secret"

	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreRedis  = "redis"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Session SessionConfig
	Auth    AuthConfig
	CORS    CORSConfig
	Stores  StoreConfig

	Mongo MongoConfig
	Redis RedisConfig

	RoutesPath   string `env:"ROUTES_PATH"`
	AuditWorkers int    `env:"AUDIT_WORKERS, default=4"`
}

type SessionConfig struct {
	Secret          string        `env:"SESSION_SECRET, default=dev_secret"`
	TTL             time.Duration `env:"SESSION_TTL, default=24h"`
	IdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT, default=0s"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL, default=10m"`
}

type AuthConfig struct {
	DemoRoleLogin bool   `env:"AUTH_DEMO_ROLE_LOGIN, default=false"`
	BcryptCost    int    `env:"BCRYPT_COST, default=10"`
	SeedUsersPath string `env:"SEED_USERS_PATH"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=http://localhost:5173"`
}

type StoreConfig struct {
	Users    string `env:"USER_STORE, default=memory"`
	Sessions string `env:"SESSION_STORE, default=memory"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=asset_verification"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// IsProduction reports whether ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsesDefaultSecret reports whether the session secret was left at its
// development default.
func (c *Config) UsesDefaultSecret() bool {
	return c.Session.Secret == defaultSessionSecret
}

// Load reads .env when present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return FromLookuper(ctx, envconfig.OsLookuper())
}

// FromLookuper builds a Config from an arbitrary source; tests use envconfig.MapLookuper.
func FromLookuper(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Stores.Users = strings.ToLower(strings.TrimSpace(c.Stores.Users))
	c.Stores.Sessions = strings.ToLower(strings.TrimSpace(c.Stores.Sessions))

	switch c.Stores.Users {
	case StoreMemory, StoreMongo:
	default:
		return fmt.Errorf("USER_STORE must be %q or %q, got %q", StoreMemory, StoreMongo, c.Stores.Users)
	}
	switch c.Stores.Sessions {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.Stores.Sessions)
	}

	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Session.IdleTimeout < 0 {
		return errors.New("SESSION_IDLE_TIMEOUT must not be negative")
	}
	return nil
}
