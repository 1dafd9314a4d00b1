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
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreRedis  = "redis"

	PolicyFixedWindow = "fixed_window"
	PolicyTokenBucket = "token_bucket"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,      default=5h"`
	TokenIssuer  string        `env:"TOKEN_ISSUER,   default=expensehub-gateway"`
	APIKey       string        `env:"API_KEY"`
	APIKeyHeader string        `env:"API_KEY_HEADER, default=X-API-Key"`

	StoreDriver string `env:"STORE_DRIVER, default=memory"`
	AllowClean  bool   `env:"ALLOW_CLEAN,  default=true"`
	DefaultRole string `env:"DEFAULT_ROLE"`

	RateLimit RateLimitConfig
	Seed      SeedConfig
	Mongo     MongoConfig
	Redis     RedisConfig

	TracingEnabled bool `env:"TRACING_ENABLED, default=false"`
}

type RateLimitConfig struct {
	Max    int           `env:"RATE_LIMIT_MAX,    default=100"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW, default=1m"`
	Policy string        `env:"RATE_LIMIT_POLICY, default=fixed_window"`
	Store  string        `env:"RATE_LIMIT_STORE,  default=memory"`
}

type SeedConfig struct {
	AdminUser     string `env:"SEED_ADMIN_USER"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=expensehub"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context, files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return Process(ctx, envconfig.OsLookuper())
}

// Process builds a Config from the given lookuper and validates it.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("API_KEY is required"))
	}
	if c.APIKeyHeader == "" {
		errs = append(errs, errors.New("API_KEY_HEADER must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.RateLimit.Max <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	switch c.RateLimit.Policy {
	case PolicyFixedWindow, PolicyTokenBucket:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_POLICY %q is not supported", c.RateLimit.Policy))
	}
	switch c.RateLimit.Store {
	case StoreMemory, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STORE %q is not supported", c.RateLimit.Store))
	}
	if c.RateLimit.Store == StoreRedis && c.RateLimit.Policy != PolicyFixedWindow {
		errs = append(errs, errors.New("RATE_LIMIT_STORE=redis only supports the fixed_window policy"))
	}
	switch c.StoreDriver {
	case StoreMemory, StoreMongo:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not supported", c.StoreDriver))
	}
	if (c.Seed.AdminUser == "") != (c.Seed.AdminPassword == "") {
		errs = append(errs, errors.New("SEED_ADMIN_USER and SEED_ADMIN_PASSWORD must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool { return c.RateLimit.Store == StoreRedis }

// NeedsMongo reports whether any configured component talks to MongoDB.
func (c *Config) NeedsMongo() bool { return c.StoreDriver == StoreMongo }
