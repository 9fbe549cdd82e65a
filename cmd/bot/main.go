package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/internal/api"
	"backoffice/internal/bot"
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/events"
	"backoffice/internal/google"
	"backoffice/internal/logging"
	"backoffice/internal/metrics"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/session"
	"backoffice/internal/worker"

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
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("create exports directory")
		return err
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.CatalogPath).Msg("load catalog")
		return err
	}

	loc, err := loadLocation(cfg.App.Timezone)
	if err != nil {
		logger.Error().Err(err).Str("timezone", cfg.App.Timezone).Msg("load timezone")
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	if cfg.Backup.Enabled {
		go database.NewBackupService(db, cfg.Backup, logger).Start(ctx)
	}

	redisClient, limiter := initRateLimiter(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	transport, err := bot.Connect(cfg.Telegram)
	if err != nil {
		logger.Error().Err(err).Msg("telegram connect failed")
		return err
	}
	logger.Info().Str("username", transport.GetSelf().UserName).Msg("authorized on telegram")
	gateway := service.NewTelegramService(transport)

	eventBus := events.NewEventBus(logging.Component(logger, "events"))
	mirror := service.NewMirrorPublisher(db, db, gateway, cfg.Telegram.ReceiverChatID, logging.Component(logger, "mirror"))
	bookings := service.NewBookingService(db, mirror, eventBus, logging.Component(logger, "bookings"))
	reports := service.NewReportService(db)

	startLedgerSync(ctx, cfg, db, redisClient, eventBus, logger)

	sessions := session.NewStore(gateway, logging.Component(logger, "sessions"))
	defer sessions.Close()

	engine := bot.NewEngine(gateway, sessions, db, bookings, reports, catalog, bot.Settings{
		CleanupDelay:       cfg.Bot.CleanupDelay,
		ReportCleanupDelay: cfg.Bot.ReportCleanupDelay,
		ExportDir:          cfg.Exports.Path,
		Location:           loc,
	}, logging.Component(logger, "engine"))

	if cfg.API.Enabled {
		shutdown, err := startOpsServers(ctx, cfg, db, redisClient, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	logger.Info().Msg("bot started")
	telegramBot := bot.NewBot(gateway, engine, limiter, cfg, logger)
	telegramBot.Start(ctx)
	telegramBot.Stop()
	logger.Info().Msg("shutdown complete")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logging.Component(baseLogger, "bot-main"), closer, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// initRateLimiter prefers Redis and falls back to in-process buckets when it is absent or down.
func initRateLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverRateLimiter) {
	fallback := repository.NewMemoryRateLimiter()
	if cfg.Redis.Address == "" {
		return nil, repository.NewFailoverRateLimiter(nil, fallback, logger)
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, rate limiting in memory until it recovers")
	}
	return client, repository.NewFailoverRateLimiter(repository.NewRedisRateLimiter(client), fallback, logger)
}

func startLedgerSync(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Google.Enabled() {
		logger.Info().Msg("google config missing, ledger sync disabled")
		return
	}

	sheets, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.BookingSpreadSheetID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("ledger sync disabled")
		return
	}
	if err := sheets.TestConnection(ctx); err != nil {
		if email, emailErr := google.ServiceAccountEmail(cfg.Google.CredentialsFile); emailErr == nil {
			logger.Warn().Str("share_with", email).Msg("spreadsheet must be shared with the service account")
		}
		logger.Warn().Err(err).Msg("ledger sync disabled")
		return
	}
	if err := sheets.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("write ledger header")
	}
	go sheets.RefreshCache(ctx, time.Hour)

	ledger := worker.NewLedgerWorker(db, sheets, redisClient, worker.DefaultRetryPolicy, logger)
	worker.SubscribeBookingEvents(ctx, bus, db, ledger, logging.Component(logger, "ledger-events"))
	go ledger.Start(ctx)
	logger.Info().Msg("ledger sync started")
}

func startOpsServers(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) (func(), error) {
	httpServer := api.NewHTTPServer(cfg.API, db, redisClient, logger)
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	grpcServer, err := api.NewGRPCServer(cfg.API, db, logger)
	if err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil, err
	}
	go func() {
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("gRPC server error")
		}
	}()
	go grpcServer.WatchHealth(ctx, 15*time.Second)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("HTTP shutdown")
		}
		grpcServer.Shutdown(shutdownCtx)
	}, nil
}
