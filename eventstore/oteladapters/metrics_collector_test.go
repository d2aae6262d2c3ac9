package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/bakery-simulation/eventstore/oteladapters"
)

func newManualReaderCollector(options ...oteladapters.MetricsOption) (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test"), options...), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	t.Fatalf("metric %s not found", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration_ShouldRecordSecondsInHistogram(t *testing.T) {
	// arrange
	collector, reader := newManualReaderCollector()
	labels := map[string]string{"operation": "query", "status": "success"}

	// act
	collector.RecordDuration("journal_query_duration_seconds", 150*time.Millisecond, labels)

	// assert
	m := findMetric(t, collect(t, reader), "journal_query_duration_seconds")
	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	expectedAttrs := attribute.NewSet(attribute.String("operation", "query"), attribute.String("status", "success"))
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expectedAttrs))
	assert.Equal(t, "s", m.Unit)
}

func Test_MetricsCollector_IncrementCounter_ShouldSumPerLabelSet(t *testing.T) {
	// arrange
	collector, reader := newManualReaderCollector()

	// act
	collector.IncrementCounter("bakery_customers_frustrated_total", map[string]string{"reason": "patience"})
	collector.IncrementCounterContext(context.Background(), "bakery_customers_frustrated_total", map[string]string{"reason": "patience"})
	collector.IncrementCounter("bakery_customers_frustrated_total", map[string]string{"reason": "service_timeout"})

	// assert
	sum, ok := findMetric(t, collect(t, reader), "bakery_customers_frustrated_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	total := int64(0)
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
}

func Test_MetricsCollector_RecordValue_ShouldKeepLastValueInGauge(t *testing.T) {
	// arrange
	collector, reader := newManualReaderCollector(
		oteladapters.WithDescriptions(map[string]string{"bakery_inventory_items": "items ready for sale"}),
	)
	labels := map[string]string{"item_kind": "bread"}

	// act
	collector.RecordValue("bakery_inventory_items", 7, labels)
	collector.RecordValueContext(context.Background(), "bakery_inventory_items", 4, labels)

	// assert
	m := findMetric(t, collect(t, reader), "bakery_inventory_items")
	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 4.0, gauge.DataPoints[0].Value)
	assert.Equal(t, "items ready for sale", m.Description)
}

func Test_MetricsCollector_ShouldBeSafeForConcurrentUse(t *testing.T) {
	// arrange
	collector, reader := newManualReaderCollector()
	wg := sync.WaitGroup{}

	// act
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("bakery_items_sold_total", nil)
			collector.RecordValue("bakery_waiting_customers", 1, nil)
			collector.RecordDuration("bakery_service_duration_seconds", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	// assert
	sum, ok := findMetric(t, collect(t, reader), "bakery_items_sold_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(20), sum.DataPoints[0].Value)
}
