package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With(slog.String("item", "123"))

	ctx := ContextWithLogger(context.Background(), logger)
	got := LoggerFromContext(ctx)
	if got != logger {
		t.Fatal("expected the logger attached to the context")
	}

	got.Info("checking user")
	if out := buf.String(); !strings.Contains(out, "item=123") {
		t.Errorf("logger lost its attributes: %q", out)
	}
}

func TestLoggerFromContextFallsBackToDefault(t *testing.T) {
	if got := LoggerFromContext(context.Background()); got != slog.Default() {
		t.Fatal("expected the process default logger for a bare context")
	}
}
