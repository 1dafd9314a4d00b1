package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Connect opens a client and pings it once. The limiter fails closed on Redis
// errors, so an unreachable server is reported at startup rather than as 500s.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	if err := Ping(ctx, client, timeout); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Ping checks connectivity within timeout.
func Ping(ctx context.Context, client redis.UniversalClient, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Checker adapts a client to the readiness probe.
type Checker struct {
	Client redis.UniversalClient
}

func (c Checker) Name() string { return "redis" }

func (c Checker) Ping(ctx context.Context) error {
	return Ping(ctx, c.Client, defaultTimeout)
}
