// Command gateway runs the authentication gateway: API-key gate, rate
// limiting, JWT login/registration and role-checked user routes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/expensehub/gateway/internal/api"
	"github.com/expensehub/gateway/internal/api/handler"
	"github.com/expensehub/gateway/internal/api/metrics"
	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/internal/core/ports"
	"github.com/expensehub/gateway/internal/core/service"
	"github.com/expensehub/gateway/internal/infrastructure/config"
	"github.com/expensehub/gateway/internal/infrastructure/db/memory"
	mongodb "github.com/expensehub/gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/expensehub/gateway/internal/infrastructure/db/redis"
	"github.com/expensehub/gateway/internal/infrastructure/queue"
	"github.com/expensehub/gateway/internal/infrastructure/ratelimit"
	"github.com/expensehub/gateway/internal/infrastructure/telemetry"
	"github.com/expensehub/gateway/pkg/logger"
)

const (
	serviceName     = "gateway"
	shutdownTimeout = 10 * time.Second
	auditWorkers    = 4
)

// roleStore is what both role backends provide.
type roleStore interface {
	ports.RoleResolver
	ports.RoleAssigner
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: serviceName,
	})
	log.Info().
		Str("env", cfg.Env).
		Str("store", cfg.StoreDriver).
		Str("rate_limit_store", cfg.RateLimit.Store).
		Str("rate_limit_policy", cfg.RateLimit.Policy).
		Msg("starting gateway")

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer(serviceName, nil, log)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				log.Error().Err(err).Msg("tracer shutdown failed")
			}
		}()
	}

	b, closeBackends, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackends()

	// The dispatcher outlives the signal context so events raised while
	// draining in-flight requests are still written.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(auditWorkers, b.sink, log,
		queue.WithDropHook(metrics.AuditEventsDroppedTotal.Inc),
	)
	dispatcher.Start(auditCtx)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, service.WithIssuer(cfg.TokenIssuer))
	authOpts := []service.AuthOption{service.WithAudit(dispatcher)}
	if cfg.Seed.AdminUser != "" {
		seed := ports.RegisterInput{UserName: cfg.Seed.AdminUser, Password: cfg.Seed.AdminPassword}
		authOpts = append(authOpts, service.WithSeed(seed, domain.RoleAdmin, b.roles))
	}
	auth := service.NewAuthService(b.identities, b.roles, tokens, authOpts...)

	if err := auth.EnsureSeed(ctx); err != nil {
		return err
	}
	if cfg.Seed.AdminUser != "" {
		log.Info().Str("user", cfg.Seed.AdminUser).Msg("admin account seeded")
	}

	e := api.NewRouter(api.Deps{
		Log:          log,
		Auth:         auth,
		Verifier:     tokens,
		Limiter:      b.limiter,
		Audit:        dispatcher,
		APIKey:       cfg.APIKey,
		APIKeyHeader: cfg.APIKeyHeader,
		AllowClean:   cfg.AllowClean,
		Checkers:     b.checkers,
	})

	var h http.Handler = e
	if cfg.TracingEnabled {
		h = otelhttp.NewHandler(e, serviceName)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// backends holds the stores and limiter selected by configuration.
type backends struct {
	identities ports.IdentityStore
	roles      roleStore
	sink       ports.AuditSink
	limiter    ports.RateLimiter
	checkers   []handler.DependencyChecker
}

// openBackends connects whatever cfg asks for. The returned func closes the
// connections and must be called even when only part of the setup succeeded.
func openBackends(ctx context.Context, cfg *config.Config) (*backends, func(), error) {
	log := logger.Get()
	b := &backends{sink: queue.NewLogSink(log)}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.NeedsMongo() {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		})

		identityRepo := mongodb.NewIdentityRepository(db)
		if err := identityRepo.EnsureIndexes(ctx); err != nil {
			return nil, closeAll, err
		}
		auditRepo := mongodb.NewAuditRepository(db)
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			return nil, closeAll, err
		}
		b.identities = identityRepo
		b.roles = mongodb.NewRoleRepository(db, cfg.DefaultRole)
		b.sink = auditRepo
		b.checkers = append(b.checkers, mongodb.Checker{Client: client})
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store connected")
	} else {
		b.identities = memory.NewIdentityStore()
		b.roles = memory.NewRoleStore(cfg.DefaultRole)
	}

	switch {
	case cfg.NeedsRedis():
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("redis close failed")
			}
		})
		b.limiter = redisdb.NewFixedWindowLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window)
		b.checkers = append(b.checkers, redisdb.Checker{Client: rdb})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis rate limiter connected")
	case cfg.RateLimit.Policy == config.PolicyTokenBucket:
		tb := ratelimit.NewTokenBucket(cfg.RateLimit.Max, cfg.RateLimit.Window)
		go tb.Run(ctx, 0)
		b.limiter = tb
	default:
		fw := ratelimit.NewFixedWindow(cfg.RateLimit.Max, cfg.RateLimit.Window)
		go fw.Run(ctx, 0)
		b.limiter = fw
	}

	return b, closeAll, nil
}
