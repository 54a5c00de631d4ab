package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GaboCancellieri/galtec-api/internal/core/port"
	"github.com/GaboCancellieri/galtec-api/internal/infra/config"
	"github.com/GaboCancellieri/galtec-api/internal/infra/database"
	"github.com/GaboCancellieri/galtec-api/internal/infra/email"
	kafkainfra "github.com/GaboCancellieri/galtec-api/internal/infra/kafka"
	"github.com/GaboCancellieri/galtec-api/internal/infra/logger"
	redisinfra "github.com/GaboCancellieri/galtec-api/internal/infra/redis"
	"github.com/GaboCancellieri/galtec-api/internal/infra/security"
	"github.com/GaboCancellieri/galtec-api/internal/infra/telemetry"
	postgresrepo "github.com/GaboCancellieri/galtec-api/internal/repository/postgres"
	redisrepo "github.com/GaboCancellieri/galtec-api/internal/repository/redis"
	"github.com/GaboCancellieri/galtec-api/internal/transport/http/middleware"
	"github.com/GaboCancellieri/galtec-api/internal/transport/http/routes"
	"github.com/GaboCancellieri/galtec-api/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	tracer *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if _, err := telemetry.Attach(ctx, cfg); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	issuer, err := security.NewTokenIssuer(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.Issuer)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	rateLimitTTL := cfg.Redis.RateLimitTTL
	if rateLimitTTL <= 0 {
		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		rateLimitTTL = window * 2
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitTTL,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	repos := postgresrepo.NewRepositories(pool)
	emailSender := email.NewLogSender(cfg.Email, log)

	accountService := usecase.NewAccountService(
		repos.Accounts,
		repos.Tokens,
		issuer,
		emailSender,
		eventPublisher,
		log,
	)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Accounts: accountService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		tracer: tracer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.tracer.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("tracer shutdown failed", zap.Error(err))
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
