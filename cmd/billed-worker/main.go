package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"billed/internal/amqp"
	"billed/internal/backend"
	"billed/internal/cli"
	"billed/internal/config"
	"billed/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, logger := cli.Bootstrap("billed-worker")
	logger.Info("Starting billed-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	bcfg := cli.BackendConfig(logger, cfg)
	if bcfg.Type == backend.MemoryBackend {
		return fmt.Errorf("worker needs a shared store, set DATA_BACKEND to sqlite or postgres")
	}

	factory := backend.NewFactory(logger)
	st, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		return err
	}
	defer cli.Close(logger, "store", st.Cleanup)

	ledger, err := factory.CreateLedger(ctx, bcfg)
	if err != nil {
		return err
	}

	exporter := worker.NewExportWorker(ledger, st.Tracker, cfg.ExportBatchSize)
	proc := worker.NewExportProcessor(exporter, worker.ProcessorConfig{PollInterval: cfg.ExportInterval})

	g, gctx := errgroup.WithContext(ctx)

	// The periodic pass catches bills whose message was lost or never sent.
	g.Go(func() error {
		return proc.Run(gctx)
	})

	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - exporting on the periodic pass only")
	} else {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeBillSubmitted(gctx, exporter.HandleBillSubmitted)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
