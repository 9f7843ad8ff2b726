// Package log builds the process slog handler and carries request-scoped
// loggers through contexts.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Config holds logger configuration
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is one of text, json, tint.
	Format string
	Output io.Writer
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewHandler returns the handler selected by cfg, wrapped so that request
// IDs stored with WithRequestID are added to every record.
func NewHandler(cfg Config) (slog.Handler, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = slog.NewTextHandler(cfg.Output, &slog.HandlerOptions{Level: level})
	case "json":
		h = slog.NewJSONHandler(cfg.Output, &slog.HandlerOptions{Level: level})
	case "tint":
		h = tint.NewHandler(cfg.Output, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return &contextHandler{Handler: h}, nil
}

// New builds a logger from cfg.
func New(cfg Config) (*slog.Logger, error) {
	h, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(FieldComponent, component)
}

type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String(FieldRequestID, id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
