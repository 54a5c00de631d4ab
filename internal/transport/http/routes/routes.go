package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GaboCancellieri/galtec-api/internal/infra/config"
	"github.com/GaboCancellieri/galtec-api/internal/transport/http/handlers"
	"github.com/GaboCancellieri/galtec-api/internal/transport/http/middleware"
	"github.com/GaboCancellieri/galtec-api/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Accounts *usecase.AccountService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.App.CORSAllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Health)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	accountHandler := handlers.NewAccountHandler(deps.Services.Accounts, deps.Logger)
	authMiddleware := middleware.RequireAuth(deps.Services.Accounts)

	account := r.Group("/userAccount")
	{
		account.POST("/register", withRateLimit(deps, "account_register_ip", rateLimitFor(deps).RegisterMaxAttempts, accountHandler.Register)...)
		account.POST("/login", withRateLimit(deps, "account_login_ip", rateLimitFor(deps).LoginMaxAttempts, accountHandler.Login)...)
		account.POST("/logout", accountHandler.Logout)
		account.POST("/refresh", withRateLimit(deps, "account_refresh_ip", rateLimitFor(deps).RefreshMaxAttempts, accountHandler.Refresh)...)
		account.POST("/verify-email", withRateLimit(deps, "account_verify_ip", rateLimitFor(deps).VerifyMaxAttempts, accountHandler.VerifyEmail)...)
		account.GET("/me", authMiddleware, accountHandler.Me)
	}

	return r
}

func rateLimitFor(deps Dependencies) config.RateLimitSettings {
	if deps.Config == nil {
		return config.RateLimitSettings{}
	}
	return deps.Config.RateLimit
}

// withRateLimit prepends a sliding-window rule to the handler chain when a
// limiter is configured and the limit is positive.
func withRateLimit(deps Dependencies, name string, limit int, handler gin.HandlerFunc) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return []gin.HandlerFunc{handler}
	}

	window := rateLimitFor(deps).WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule), handler}
}
