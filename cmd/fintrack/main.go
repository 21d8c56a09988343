package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	envErr := cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	if envErr != nil {
		logger.Warn("Failed to load .env file", log.FieldError, envErr)
	}
	cfg = cli.LoadAndValidateConfig(logger)

	logger.Info("Starting fintrack",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		log.FieldCurrency, cfg.DisplayCurrency)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	store := ledger.NewStore(result.Bridge, ledger.WithLogger(logger))

	rateClient := rates.NewClient(cfg.RatesURL, cfg.RatesTimeout, logger,
		rates.WithBase(cfg.BaseCurrency),
		rates.WithCacheTTL(cfg.RatesCacheTTL))
	caches := cache.NewManager(logger)
	caches.Register(rateClient.Cache())
	caches.StartCleanup(10 * time.Minute)

	var publisher services.EventPublisher
	if result.Publisher != nil {
		publisher = result.Publisher
	}
	tracker := services.NewTrackerService(store, result.Bridge, rateClient, publisher, logger)

	readyChecks := map[string]apphttp.CheckFunc{}
	if sqlite, ok := result.Store.(*storage.SQLiteBlobStore); ok {
		readyChecks["storage"] = sqlite.Ping
	}
	if result.Publisher != nil {
		client := result.Publisher
		readyChecks["events"] = func(context.Context) error { return client.Ping() }
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:            ":" + cfg.Port,
		DisplayCurrency: cfg.DisplayCurrency,
		HTMXURL:         cfg.HTMXURL,
		RateLimit:       ratelimit.DefaultConfig(),
		Logger:          logger,
		ReadyChecks:     readyChecks,
		CacheStats:      rateClient.Cache().Stats,
	}, tracker)

	// The ledger must be in memory before the first mutation can be accepted;
	// only the rate fetch is left to the background.
	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	tracker.LoadLedger(loadCtx)
	cancelLoad()

	go func() {
		startCtx, cancel := context.WithTimeout(ctx, cfg.RatesTimeout+5*time.Second)
		defer cancel()
		if err := tracker.Start(startCtx); err != nil {
			logger.Error("Tracker startup failed", log.FieldError, err)
			return
		}
		stats := tracker.Stats()
		logger.Info("Tracker ready",
			log.FieldLedgerSize, stats.Transactions,
			"currencies", stats.Currencies)
	}()

	sigCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("HTTP server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "addr", srv.Addr)
		os.Exit(1)
	}

	<-sigCtx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
