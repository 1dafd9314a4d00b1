package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/expensehub/gateway/internal/api/handler"
	"github.com/expensehub/gateway/internal/api/middleware"
	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/internal/core/ports"
)

const (
	pathHealth  = "/health"
	pathReady   = "/health/ready"
	pathMetrics = "/metrics"
)

// Deps is everything the router needs. Zero Registerer/Gatherer fall back to
// the Prometheus default registry.
type Deps struct {
	Log      zerolog.Logger
	Auth     ports.AuthService
	Verifier ports.TokenVerifier
	Limiter  ports.RateLimiter
	Audit    ports.AuditRecorder

	APIKey       string
	APIKeyHeader string
	AllowClean   bool

	Checkers   []handler.DependencyChecker
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds the Echo instance with the full gate and all routes.
//
// Every request runs Recover → Correlator → RequestLogger → metrics →
// API key → rate limit, then either the public auth routes or token
// verification and the route's role check.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Audit)

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	probes := middleware.ProbeSkipper(pathHealth, pathReady, pathMetrics)

	// --- Global middleware ---
	e.Use(echomiddleware.RecoverWithConfig(echomiddleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			d.Log.Error().Err(err).Bytes("stack", stack).Msg("panic recovered")
			return err
		},
	}))
	e.Use(middleware.Correlator(d.Log))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:                 "gateway",
		Registerer:                registerer,
		Skipper:                   probes,
		DoNotUseRequestPathFor404: true,
		StatusCodeResolver: func(c echo.Context, err error) int {
			if err == nil || c.Response().Committed {
				return c.Response().Status
			}
			return statusFor(err)
		},
	}))
	e.Use(middleware.APIKey(d.APIKeyHeader, d.APIKey, probes))
	e.Use(middleware.RateLimit(d.Limiter, d.APIKeyHeader, probes))

	// --- Probes (exempt from key gate and limiter) ---
	health := handler.NewHealthHandler(d.Checkers...)
	e.GET(pathHealth, health.Liveness)
	e.GET(pathReady, health.Readiness)
	e.GET(pathMetrics, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	// --- Public auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	auth := e.Group("/auth", middleware.Public())
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/forgat-password", authHandler.ForgotPassword)
	if d.AllowClean {
		auth.DELETE("/clean", authHandler.Clean)
	}

	// --- Protected routes ---
	userHandler := handler.NewUserHandler()
	user := e.Group("/api/user", middleware.Auth(d.Verifier))
	user.GET("/me", userHandler.Me, middleware.RequireRoles(domain.Roles...))
	user.GET("/admin", userHandler.Me, middleware.RequireRoles(domain.RoleAdmin))

	return e
}
