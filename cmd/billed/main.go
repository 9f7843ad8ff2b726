package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"billed/internal/backend"
	"billed/internal/cli"
	"billed/internal/config"
	apphttp "billed/internal/http"
	"billed/internal/worker"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, logger := cli.Bootstrap("billed")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	bcfg := cli.BackendConfig(logger, cfg)
	factory := backend.NewFactory(logger)

	st, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		return err
	}
	defer cli.Close(logger, "store", st.Cleanup)

	uploader, err := factory.CreateUploader(ctx, bcfg)
	if err != nil {
		return err
	}

	notifier, err := factory.CreateNotifier(ctx, bcfg)
	if err != nil {
		return err
	}
	defer cli.Close(logger, "notifier", notifier.Cleanup)

	var imageSources []string
	if bcfg.Attachments == backend.S3Attachments {
		imageSources = append(imageSources, cfg.S3PublicURL)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:    st.Store,
		Uploader: uploader,
		Notifier: notifier.Notifier,
		Ping:     st.Ping,
		Logger:   logger,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		AttachmentDir:      cfg.AttachmentDir,
		AttachmentBaseURL:  cfg.AttachmentBaseURL,
		ImageSources:       imageSources,
	})
	if err != nil {
		return fmt.Errorf("create http server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, shutdownTimeout)
	})

	// Without a broker, submitted bills are exported from this process.
	if !notifier.Publishing && st.Tracker != nil {
		ledger, err := factory.CreateLedger(ctx, bcfg)
		if err != nil {
			return err
		}
		exporter := worker.NewExportWorker(ledger, st.Tracker, cfg.ExportBatchSize)
		proc := worker.NewExportProcessor(exporter, worker.ProcessorConfig{PollInterval: cfg.ExportInterval})
		g.Go(func() error {
			return proc.Run(gctx)
		})
		logger.Info("In-process ledger export enabled", "interval", cfg.ExportInterval)
	}

	logger.Info("Starting billed server",
		"port", cfg.Port,
		"backend", bcfg.Type,
		"attachments", bcfg.Attachments,
		"publishing", notifier.Publishing)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
