// Package log sets up the process logger and carries per-crawl loggers
// through contexts, so nested page and row loops inherit their parents'
// attributes.
package log

import (
	"context"
	"log/slog"
	"os"

	"github.com/froosterton/lookup/config"
)

type ctxKey struct{}

// InitializeDefaultLogger builds the process logger, installs it as the slog
// default and returns it for context wiring.
func InitializeDefaultLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.GetLogLevel()}))
	slog.SetDefault(logger)
	return logger
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// LoggerFromContext returns the logger carried by ctx, or the process default
// when none was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
