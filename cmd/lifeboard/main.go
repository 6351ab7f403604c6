package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"lifeboard/internal/amqp"
	"lifeboard/internal/auth"
	"lifeboard/internal/backend"
	"lifeboard/internal/cli"
	apphttp "lifeboard/internal/http"
	"lifeboard/internal/log"
	"lifeboard/internal/services"
	"lifeboard/internal/sheets"
	gsheet "lifeboard/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.FinanceBackend)
		os.Exit(1)
	}

	var exporter *sheets.Exporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, gsheet.Credentials{
			JSON: cfg.GoogleCredentialsJSON,
			File: cfg.GoogleCredentialsFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = sheets.NewExporter(client, cfg.GoogleSheetName, logger)
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	var srv *apphttp.Server
	svcOpts := services.Options{
		EnableCardUpdates:        cfg.EnableCardUpdates,
		EnableInstallmentUpdates: cfg.EnableInstallmentUpdates,
		OnChange:                 func(ev amqp.ChangeEvent) { srv.HandleChange(ev) },
		Logger:                   logger,
	}
	if be.Events != nil {
		svcOpts.Publisher = be.Events
	}
	svc := services.New(be.Finance, be.Personal, svcOpts)

	srv = apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            svc,
		Verifier:           auth.NewVerifier(cfg.AuthJWTSecret),
		RequireAuthAll:     cfg.RequireAuthAll,
		CacheTTL:           cfg.CacheTTL,
		CacheSize:          cfg.CacheSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Exporter:           exporter,
		Ready:              be.Ping,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	// Change events from other instances keep the read cache coherent.
	subCtx, stopSubscription := context.WithCancel(context.Background())
	if be.Events != nil {
		go func() {
			if err := be.Events.Subscribe(subCtx, srv.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Change event subscription stopped", log.FieldError, err)
			}
		}()
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		stopSubscription()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting lifeboard server",
		"port", cfg.Port,
		log.FieldBackend, cfg.FinanceBackend,
		"require_auth_all", cfg.RequireAuthAll)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
