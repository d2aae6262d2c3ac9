package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/AntonStoeckl/bakery-simulation/eventstore/oteladapters"
)

func Test_SlogBridgeLogger_WithHandler_ShouldLogAllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug message", "level", "debug")
	logger.InfoContext(ctx, "info message", "level", "info")
	logger.WarnContext(ctx, "warn message", "level", "warn")
	logger.ErrorContext(ctx, "error message", "level", "error")

	// assert
	output := buf.String()
	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func Test_SlogBridgeLogger_WithGlobalProvider_ShouldNotPanic(t *testing.T) {
	// arrange
	logger := oteladapters.NewSlogBridgeLogger("bakery-test")

	// act + assert
	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "customer served", "customer_id", 7)
	})
}

func Test_OTelLogger_ShouldAcceptOddArgumentLists(t *testing.T) {
	// arrange
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))
	ctx := context.Background()

	// act + assert
	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "dangling key", "only_key")
		logger.InfoContext(ctx, "typed values", "count", 3, "ratio", 0.5, "ok", true, "big", int64(9))
		logger.WarnContext(ctx, "non string key", 42, "value")
		logger.ErrorContext(ctx, "struct value", "err", struct{ Code int }{Code: 1})
	})
}
