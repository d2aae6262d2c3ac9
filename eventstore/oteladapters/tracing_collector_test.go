package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/bakery-simulation/eventstore/oteladapters"
	"github.com/AntonStoeckl/bakery-simulation/testutil/helper"
)

func newInMemoryTracingCollector() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(trace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func spanAttribute(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan_ShouldExportSpanWithAttributes(t *testing.T) {
	// arrange
	collector, exporter := newInMemoryTracingCollector()

	// act
	ctx, spanCtx := collector.StartSpan(context.Background(), "journal.append", map[string]string{"engine": "memory"})
	spanCtx.AddAttribute("event_type", "ItemSold")
	collector.FinishSpan(spanCtx, "success", map[string]string{"event_count": "1"})

	// assert
	assert.True(t, oteltrace.SpanContextFromContext(ctx).IsValid())
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "journal.append", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	for key, expected := range map[string]string{"engine": "memory", "event_type": "ItemSold", "event_count": "1"} {
		value, found := spanAttribute(spans[0], key)
		assert.True(t, found, key)
		assert.Equal(t, expected, value, key)
	}
}

func Test_TracingCollector_FinishSpan_ShouldMapErrorStatus(t *testing.T) {
	testCases := []struct {
		status       string
		expectedCode codes.Code
	}{
		{status: "error", expectedCode: codes.Error},
		{status: "canceled", expectedCode: codes.Error},
		{status: "timeout", expectedCode: codes.Error},
		{status: "ok", expectedCode: codes.Ok},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			collector, exporter := newInMemoryTracingCollector()
			_, spanCtx := collector.StartSpan(context.Background(), "journal.query", nil)

			// act
			collector.FinishSpan(spanCtx, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_FinishSpan_ShouldRecordUnknownStatusAsAttribute(t *testing.T) {
	// arrange
	collector, exporter := newInMemoryTracingCollector()
	_, spanCtx := collector.StartSpan(context.Background(), "journal.query", nil)

	// act
	collector.FinishSpan(spanCtx, "partial", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes, attribute.String("status", "partial"))
}

func Test_TracingCollector_FinishSpan_ShouldIgnoreForeignSpanContexts(t *testing.T) {
	// arrange
	collector, exporter := newInMemoryTracingCollector()

	// act
	collector.FinishSpan(&helper.SpySpanContext{}, "success", nil)

	// assert
	assert.Empty(t, exporter.GetSpans())
}
