package promadapters_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/eventstore/promadapters"
)

func gather(t *testing.T, registry *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}

	t.Fatalf("metric family %s not found", name)

	return nil
}

func Test_MetricsCollector_IncrementCounter_ShouldCountPerLabelValue(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry, promadapters.WithNamespace("bakery"))

	// act
	collector.IncrementCounter("items_sold_total", map[string]string{"item_kind": "bread"})
	collector.IncrementCounter("items_sold_total", map[string]string{"item_kind": "bread"})
	collector.IncrementCounter("items_sold_total", map[string]string{"item_kind": "cake"})

	// assert
	family := gather(t, registry, "bakery_items_sold_total")
	require.Len(t, family.GetMetric(), 2)

	total := 0.0
	for _, m := range family.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)
}

func Test_MetricsCollector_RecordDuration_ShouldObserveSeconds(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(
		registry,
		promadapters.WithDescriptions(map[string]string{"journal_append_duration_seconds": "journal append latency"}),
	)

	// act
	collector.RecordDuration("journal_append_duration_seconds", 250*time.Millisecond, map[string]string{"status": "success"})

	// assert
	family := gather(t, registry, "journal_append_duration_seconds")
	assert.Equal(t, "journal append latency", family.GetHelp())
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, uint64(1), family.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.25, family.GetMetric()[0].GetHistogram().GetSampleSum(), 0.0001)
}

func Test_MetricsCollector_RecordValue_ShouldSetGauge(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)

	// act
	collector.RecordValue("bakery_waiting_customers", 12, nil)
	collector.RecordValue("bakery_waiting_customers", 5, nil)

	// assert
	family := gather(t, registry, "bakery_waiting_customers")
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, 5.0, family.GetMetric()[0].GetGauge().GetValue())
}

func Test_MetricsCollector_ShouldDropObservationsWithDifferentLabelNames(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	collector := promadapters.NewMetricsCollector(registry)
	collector.IncrementCounter("journal_database_errors_total", map[string]string{"operation": "append"})

	// act
	collector.IncrementCounter("journal_database_errors_total", map[string]string{"operation": "append", "error_type": "x"})

	// assert
	assert.Equal(t, 1, collector.Dropped())
}

func Test_MetricsCollector_ShouldReuseCollectorsRegisteredByAnotherInstance(t *testing.T) {
	// arrange
	registry := prometheus.NewRegistry()
	first := promadapters.NewMetricsCollector(registry)
	second := promadapters.NewMetricsCollector(registry)
	first.IncrementCounter("bakery_complaints_total", nil)

	// act
	second.IncrementCounter("bakery_complaints_total", nil)

	// assert
	family := gather(t, registry, "bakery_complaints_total")
	assert.Equal(t, 2.0, family.GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 0, second.Dropped())
}
