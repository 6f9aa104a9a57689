package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coachbook/internal/api"
	"coachbook/internal/config"
	"coachbook/internal/database"
	"coachbook/internal/domain"
	"coachbook/internal/events"
	"coachbook/internal/logging"
	"coachbook/internal/metrics"
	"coachbook/internal/repository"
	"coachbook/internal/schedule"
	"coachbook/internal/seed"
	"coachbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Schedule.Timezone, err)
	}

	db, err := initDatabase(cfg, loc, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := applySeed(context.Background(), db, cfg.Database.SeedFile, &logger); err != nil {
		return err
	}

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	limiter := initAttemptLimiter(ctx, redisClient, &logger)

	edge, err := schedule.ParseEdgePolicy(cfg.Schedule.SlotEdge)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()
	subscribeEvents(eventBus, &logger)

	engine := schedule.New(edge)
	logger.Info().
		Str("slot_edge", string(engine.Edge())).
		Str("timezone", loc.String()).
		Msg("schedule engine configured")

	bookingService := service.NewBookingService(db, db, db, engine, eventBus, &logger,
		service.WithLocation(loc),
		service.WithAttemptLimit(limiter, cfg.Schedule.BookingAttempts, time.Duration(cfg.Schedule.BookingWindow)*time.Second),
	)
	workRuleService := service.NewWorkRuleService(db, eventBus, &logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, bookingService, loc, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	httpServer := api.NewHTTPServer(cfg.API, bookingService, workRuleService, db.PingContext, loc, &logger)

	startMetrics(ctx, cfg, &logger)

	backup := database.NewBackupService(db, cfg.Backup, &logger)
	go backup.Start(ctx)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(cfg *config.Config, loc *time.Location, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	db.SetLocation(loc)
	return db, nil
}

// applySeed loads services and work rules from the seed file. A missing file is not an error.
func applySeed(ctx context.Context, db *database.DB, path string, logger *zerolog.Logger) error {
	if env := os.Getenv("SEED_PATH"); env != "" {
		path = env
	}
	if path == "" {
		return nil
	}

	file, err := seed.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("seed_path", path).Msg("seed file not found, skipping")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Str("seed_path", path).Msg("load seed")
		return err
	}

	res, err := seed.Apply(ctx, db, file, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Int("services", res.Services).
		Int("work_rules", res.WorkRules).
		Int("skipped_rules", res.SkippedRules).
		Msg("seed applied")
	return nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initAttemptLimiter prefers Redis and falls back to process memory.
func initAttemptLimiter(ctx context.Context, redisClient *redis.Client, logger *zerolog.Logger) domain.AttemptLimiter {
	memory := repository.NewMemoryAttemptLimiter()
	go sweepAttempts(ctx, memory)

	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverAttemptLimiter(repository.NewRedisAttemptLimiter(redisClient), memory, logger)
}

func sweepAttempts(ctx context.Context, limiter *repository.MemoryAttemptLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}

func subscribeEvents(bus *events.EventBus, logger *zerolog.Logger) {
	bus.Subscribe(events.EventBookingCreated, func(event *events.Event) error {
		metrics.IncBookingAttempt("created")
		return nil
	})

	bus.Subscribe(events.EventBookingRejected, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		metrics.IncBookingAttempt(payload.Reason)
		return nil
	})

	bus.Subscribe(events.EventWorkRulesChanged, func(event *events.Event) error {
		var payload events.WorkRulePayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		logger.Info().
			Int64("rule_id", payload.RuleID).
			Int("day_of_week", payload.DayOfWeek).
			Str("action", payload.Action).
			Msg("work rules changed")
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	event := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		event = event.Str("grpc_addr", grpcServer.Addr())
	}
	event.Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
