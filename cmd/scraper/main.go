package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"civic_fetcher/internal/config"
	"civic_fetcher/internal/names"
	"civic_fetcher/internal/publisher"
	"civic_fetcher/internal/roster"
	"civic_fetcher/internal/scheduler"
	"civic_fetcher/internal/service"
	"civic_fetcher/internal/source/legistar"
	"civic_fetcher/internal/source/primegov"
	"civic_fetcher/internal/source/youtube"
	"civic_fetcher/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	eventStore := postgres.NewEventStore(db)
	personStore := postgres.NewPersonStore(db)
	syncStateStore := postgres.NewSyncStateStore(db)
	txManager := postgres.NewTransactionManager(db)

	static := &roster.StaticData{}
	if cfg.StaticDataPath != "" {
		static, err = roster.LoadStaticFile(cfg.StaticDataPath, loc, logger)
		if err != nil {
			logger.Error("failed to load static roster", "path", cfg.StaticDataPath, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded static roster", "persons", len(static.Persons))
	}

	matcher := names.NewMatcher(variantLookup(cfg.VariantLookup, logger), logger)
	reconciler := roster.NewEngine(matcher, logger)

	sources, err := buildSources(cfg, loc, static, logger)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		logger.Error("no sources configured")
		os.Exit(1)
	}

	syncService := service.NewSyncService(
		sources,
		eventStore,
		personStore,
		syncStateStore,
		txManager,
		rabbitMQ,
		reconciler,
		static,
		logger,
		cfg.Sync,
	)

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, cfg.Sync.Timeout, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting civic scraper",
		"sources", len(sources),
		"interval", cfg.Sync.Interval,
		"lookback_days", cfg.Sync.LookbackDays,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func buildSources(cfg *config.Config, loc *time.Location, static *roster.StaticData, logger *slog.Logger) ([]service.Source, error) {
	var sources []service.Source

	if cfg.Legistar.Client != "" {
		src, err := legistar.New(legistar.Config{
			Client:             cfg.Legistar.Client,
			BaseURL:            cfg.Legistar.BaseURL,
			Timeout:            cfg.Legistar.Timeout,
			MaxAttempts:        cfg.Legistar.Retry.MaxAttempts,
			InitialBackoff:     cfg.Legistar.Retry.InitialBackoff,
			MaxBackoff:         cfg.Legistar.Retry.MaxBackoff,
			IgnoreMinutesItems: cfg.Legistar.IgnoreMinutesItems,
			Patterns:           cfg.Legistar.Patterns,
			Timezone:           loc,
			KnownPersons:       static.Persons,
			Aliases:            cfg.Legistar.Aliases,
		}, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	if cfg.PrimeGov.Client != "" {
		src, err := primegov.New(primegov.Config{
			Client:   cfg.PrimeGov.Client,
			BaseURL:  cfg.PrimeGov.BaseURL,
			Timeout:  cfg.PrimeGov.Timeout,
			Timezone: loc,
		}, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	if cfg.YouTube.Channel != "" {
		src, err := youtube.New(youtube.Config{
			Channel:         cfg.YouTube.Channel,
			BodySearchTerms: cfg.YouTube.BodySearchTerms,
			Timezone:        loc,
			Lister:          youtube.NewCommandLister(logger),
		}, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	return sources, nil
}

func variantLookup(cfg config.VariantLookupConfig, logger *slog.Logger) names.VariantLookup {
	switch {
	case cfg.BaseURL != "":
		return names.NewHTTPLookup(cfg.BaseURL, cfg.Timeout)
	case cfg.StaticPath != "":
		lookup, err := names.LoadStaticLookup(cfg.StaticPath)
		if err != nil {
			logger.Warn("failed to load static name variants", "path", cfg.StaticPath, "error", err)
			return nil
		}
		return lookup
	}
	return nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
