package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "spinroute/backend/libs/redis"
	"spinroute/backend/services/station-refresh/internal/clients"
	"spinroute/backend/services/station-refresh/internal/config"
	"spinroute/backend/services/station-refresh/internal/db"
	httpserver "spinroute/backend/services/station-refresh/internal/http"
	"spinroute/backend/services/station-refresh/internal/http/handlers"
	"spinroute/backend/services/station-refresh/internal/http/middleware"
	"spinroute/backend/services/station-refresh/internal/metrics"
	"spinroute/backend/services/station-refresh/internal/models"
	"spinroute/backend/services/station-refresh/internal/normalize"
	redisstore "spinroute/backend/services/station-refresh/internal/redis"
	"spinroute/backend/services/station-refresh/internal/repository"
	"spinroute/backend/services/station-refresh/internal/scheduler"
	"spinroute/backend/services/station-refresh/internal/service"
)

const rateLimitPeriod = time.Minute

// App wires station-refresh dependencies.
type App struct {
	cfg         *config.Config
	db          *sql.DB
	redisClient *redis.Client
	stations    *repository.StationRepository
	status      *redisstore.StatusStore
	metrics     *metrics.Prometheus
	refresh     *service.RefreshService
	logger      *zap.Logger
}

// New constructs the application graph. Redis is optional.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, db: sqlDB, logger: logger}

	redisOpts := libredis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	if redisOpts.Enabled() {
		client, err := libredis.NewRedisClient(ctx, redisOpts)
		if err != nil {
			logger.Warn("redis unavailable, run status disabled", zap.Error(err))
		} else {
			a.redisClient = client
			a.status = redisstore.NewStatusStore(client, cfg.StatusTTL())
		}
	}

	networkRepo := repository.NewNetworkRepository(sqlDB)
	a.stations = repository.NewStationRepository(sqlDB)

	finder := service.NewStalenessFinder(networkRepo, a.stations, logger)
	if cfg.Refresh.Pushdown {
		finder.WithAggregate(a.stations)
	}

	var recorder metrics.Recorder = metrics.Noop{}
	if cfg.Serve.MetricsEnabled {
		a.metrics = metrics.NewPrometheus()
		recorder = a.metrics
	}

	var status service.StatusSaver
	if a.status != nil {
		status = a.status
	}

	a.refresh = service.NewRefreshService(
		finder,
		clients.NewCityBikesClient(cfg.Refresh.UpstreamURL, cfg.UpstreamTimeout(), logger),
		normalize.NewNormalizer(logger),
		a.stations,
		status,
		recorder,
		service.Options{
			Threshold:   cfg.Threshold(),
			BatchSize:   cfg.Refresh.BatchSize,
			DryRun:      cfg.Refresh.DryRun,
			Concurrency: cfg.Refresh.Concurrency,
		},
		logger,
	)
	return a, nil
}

// RunOnce executes a single refresh cycle.
func (a *App) RunOnce(ctx context.Context) (*models.RunSummary, error) {
	return a.refresh.Run(ctx)
}

// Serve runs the cron schedule and the admin HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if err := a.cfg.ValidateServe(); err != nil {
		return err
	}

	sched := scheduler.New(a.refresh, a.logger)
	if err := sched.Start(ctx, a.cfg.Serve.Schedule); err != nil {
		return err
	}
	defer sched.Stop()

	var statusReader handlers.StatusReader = sched
	if a.status != nil {
		statusReader = a.status
	}

	var limiter middleware.Limiter = middleware.NewMemoryLimiter(a.cfg.Serve.RateLimitPerMinute, rateLimitPeriod)
	if a.redisClient != nil {
		limiter = middleware.NewRedisLimiter(a.redisClient, a.cfg.Serve.RateLimitPerMinute, rateLimitPeriod)
	}

	routes := httpserver.Routes{
		Health:  handlers.NewHealthHandler(),
		Refresh: handlers.NewRefreshHandler(sched, a.refresh.Options(), a.logger),
		Status:  handlers.NewStatusHandler(statusReader, a.logger),
		Count:   handlers.NewStationCountHandler(a.stations, a.logger),
	}
	if a.metrics != nil {
		routes.Metrics = a.metrics.Handler()
	}

	router := httpserver.NewRouter(routes,
		middleware.AuthMiddleware(a.cfg.Serve.JWTSecret),
		middleware.RateLimit(limiter, rateLimitPeriod, a.logger),
	)
	server := httpserver.NewServer(a.cfg.HTTPAddress(), router, a.logger)

	err := server.Run(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
