package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lifeboard/internal/amqp"
	"lifeboard/internal/backend"
	"lifeboard/internal/cli"
	"lifeboard/internal/config"
	"lifeboard/internal/log"
	"lifeboard/internal/services"
	"lifeboard/internal/sheets"
	gsheet "lifeboard/internal/sheets/google"
	"lifeboard/internal/sheets/memory"
)

func runExport(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	interval, _ := cmd.Flags().GetDuration("interval")
	level, _ := cmd.Flags().GetString("log-level")

	cli.LoadEnvFile()
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	logger := cli.SetupLogger(level)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := cmd.Context()
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	be, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	var (
		writer sheets.Writer
		dry    *memory.Store
	)
	switch {
	case dryRun:
		dry = memory.New()
		writer = dry
	case cfg.SheetsEnabled():
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, gsheet.Credentials{
			JSON: cfg.GoogleCredentialsJSON,
			File: cfg.GoogleCredentialsFile,
		}, logger)
		if err != nil {
			return fmt.Errorf("initialize Google Sheets client: %w", err)
		}
		writer = client
	default:
		return errors.New("google sheets is not configured: set GOOGLE_SPREADSHEET_ID and credentials, or use --dry-run")
	}

	job := &exportJob{
		svc:      services.New(be.Finance, be.Personal, services.Options{Logger: logger}),
		exporter: sheets.NewExporter(writer, cfg.GoogleSheetName, logger),
		dry:      dry,
		out:      cmd.OutOrStdout(),
		logger:   logger,
	}

	if interval <= 0 {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		return job.run(runCtx)
	}
	return job.loop(ctx, interval, be.Events)
}

type exportJob struct {
	svc      *services.Service
	exporter *sheets.Exporter
	dry      *memory.Store
	out      io.Writer
	logger   *log.Logger
}

func (j *exportJob) run(ctx context.Context) error {
	txs, err := j.svc.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	res, err := j.exporter.Export(ctx, txs)
	if err != nil {
		return err
	}
	if j.dry != nil {
		for _, name := range j.dry.Sheets() {
			rows, _ := j.dry.Rows(name)
			fmt.Fprintf(j.out, "%s\t%d rows\n", name, len(rows))
		}
	}
	j.logger.InfoContext(ctx, "Export finished", "rows", res.Rows, "sheets", len(res.Sheets))
	return nil
}

// loop exports on every tick and after each transaction change event until
// ctx is cancelled. Failed runs are logged and retried on the next trigger.
func (j *exportJob) loop(ctx context.Context, interval time.Duration, events *amqp.Client) error {
	changes := make(chan struct{}, 1)
	if events != nil {
		go func() {
			err := events.Subscribe(ctx, func(ev amqp.ChangeEvent) {
				if ev.Resource != services.ResourceTransactions {
					return
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				j.logger.Error("Change event subscription stopped", log.FieldError, err)
			}
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	j.logger.Info("Starting periodic export", "interval", interval.String(), "events_enabled", events != nil)
	for {
		if err := j.run(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error("Export failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			j.logger.Info("Periodic export stopped")
			return nil
		case <-ticker.C:
		case <-changes:
		}
	}
}
