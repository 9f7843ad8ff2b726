package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PendingExporter runs one catch-up pass and reports how many bills it
// exported.
type PendingExporter interface {
	ExportPending(ctx context.Context) (int, error)
}

// ProcessorConfig holds configuration for the export processor
type ProcessorConfig struct {
	// PollInterval is how often pending exports are checked (default: 1m)
	PollInterval time.Duration
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{PollInterval: time.Minute}
}

// ExportProcessor periodically runs a PendingExporter.
type ExportProcessor struct {
	exporter PendingExporter
	config   ProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(exporter PendingExporter, config ProcessorConfig) *ExportProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultProcessorConfig().PollInterval
	}
	return &ExportProcessor{
		exporter: exporter,
		config:   config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop gracefully stops the processor and waits for the current pass.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Run starts the processor and blocks until ctx is done.
func (p *ExportProcessor) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return p.Stop(stopCtx)
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.runOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *ExportProcessor) runOnce(ctx context.Context) {
	n, err := p.exporter.ExportPending(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Export pass failed", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Export pass completed", "exported", n)
	}
}
