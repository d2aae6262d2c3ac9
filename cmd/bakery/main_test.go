package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/testutil/helper"
)

func Test_CombineMetrics_SkipsNilCollectors(t *testing.T) {
	spy := helper.NewMetricsCollectorSpy()

	assert.Nil(t, combineMetrics(nil, nil))
	assert.Same(t, spy, combineMetrics(nil, spy))
}

func Test_FanoutMetrics_RecordsIntoEveryCollector(t *testing.T) {
	// arrange
	first := helper.NewMetricsCollectorSpy()
	second := helper.NewMetricsCollectorSpy()
	combined := combineMetrics(first, second)
	fanout, ok := combined.(fanoutMetrics)
	require.True(t, ok)

	// act
	fanout.IncrementCounterContext(context.Background(), "bakery_items_sold_total", map[string]string{"item_kind": "cake"})
	fanout.RecordValue("bakery_profit", 12.5, nil)
	fanout.RecordDurationContext(context.Background(), "bakery_service_duration_seconds", time.Second, nil)

	// assert
	for _, spy := range []*helper.MetricsCollectorSpy{first, second} {
		assert.True(t, spy.HasCounterRecord("bakery_items_sold_total", "item_kind", "cake"))
		assert.InDelta(t, 12.5, spy.SumValues("bakery_profit"), 0.0001)
		assert.Len(t, spy.GetDurationRecords(), 1)
		assert.Equal(t, 2, spy.GetContextCallCount())
	}
}

func Test_LoadConfig_AppliesFileAndTimeUnit(t *testing.T) {
	// arrange
	path := filepath.Join(t.TempDir(), "bakery.conf")
	require.NoError(t, os.WriteFile(path, []byte("# small shop\nnum_sellers=5\n"), 0o600))

	// act
	cfg, err := loadConfig(Flags{ConfigPath: path, TimeUnit: 10 * time.Millisecond})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Sellers)
	assert.Equal(t, 10*time.Millisecond, cfg.TimeUnit)
}

func Test_LoadConfig_FailsOnMissingFile(t *testing.T) {
	_, err := loadConfig(Flags{ConfigPath: filepath.Join(t.TempDir(), "missing.conf")})

	assert.Error(t, err)
}
