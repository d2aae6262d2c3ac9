package shell_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/shell"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/memoryengine"
	"github.com/AntonStoeckl/bakery-simulation/testutil/helper"
)

type appenderFunc func(ctx context.Context, event eventstore.StorableEvent, additionalEvents ...eventstore.StorableEvent) error

func (f appenderFunc) Append(ctx context.Context, event eventstore.StorableEvent, additionalEvents ...eventstore.StorableEvent) error {
	return f(ctx, event, additionalEvents...)
}

func givenProducedEvents(n int) []core.DomainEvent {
	events := make([]core.DomainEvent, 0, n)
	for i := range n {
		events = append(events, core.BuildItemProduced(core.BreadTeam, core.Bread, i%3, 50+i, time.Now()))
	}

	return events
}

func Test_Journal_AppendsInBatchesAndFlushesOnClose(t *testing.T) {
	// arrange
	store, err := memoryengine.NewEventStore()
	require.NoError(t, err)
	runID := uuid.New()
	metrics := helper.NewMetricsCollectorSpy()
	journal, err := shell.NewJournal(store, runID,
		shell.WithBatchSize(4),
		shell.WithFlushInterval(time.Hour),
		shell.WithJournalMetrics(metrics),
	)
	require.NoError(t, err)
	events := givenProducedEvents(10)

	// act
	for _, e := range events {
		journal.Record(e)
	}
	require.NoError(t, journal.Close(context.Background()))

	// assert
	assert.Equal(t, int64(10), journal.Appended())
	assert.Equal(t, int64(0), journal.Dropped())
	assert.Equal(t, 10, metrics.CountCounterRecords(shell.JournalAppendedMetric))

	stored, err := store.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())
	require.NoError(t, err)
	require.Len(t, stored, 10)

	domainEvents, err := shell.DomainEventsFrom(stored)
	require.NoError(t, err)
	assert.Equal(t, events, domainEvents)

	metadata, err := shell.EventMetadataFrom(stored[9])
	require.NoError(t, err)
	assert.Equal(t, runID.String(), metadata.CorrelationID)
}

func Test_Journal_FlushesPartialBatchesOnInterval(t *testing.T) {
	// arrange
	store, err := memoryengine.NewEventStore()
	require.NoError(t, err)
	journal, err := shell.NewJournal(store, uuid.New(), shell.WithFlushInterval(5*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close(context.Background()) })

	// act
	journal.Record(core.BuildSupplyPurchased(core.Milk, 12, false, time.Now()))

	// assert
	assert.Eventually(t, func() bool { return journal.Appended() == 1 }, time.Second, 5*time.Millisecond)
}

func Test_Journal_DropsWhenTheBufferIsFull(t *testing.T) {
	// arrange
	release := make(chan struct{})
	var calls atomic.Int64
	appender := appenderFunc(func(context.Context, eventstore.StorableEvent, ...eventstore.StorableEvent) error {
		calls.Add(1)
		<-release
		return nil
	})
	logger, logSpy := helper.NewSpyLogger()
	journal, err := shell.NewJournal(appender, uuid.New(),
		shell.WithBufferSize(2),
		shell.WithBatchSize(1),
		shell.WithJournalLogger(logger),
	)
	require.NoError(t, err)

	events := givenProducedEvents(10)
	journal.Record(events[0])
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	// act
	for _, e := range events[1:] {
		journal.Record(e)
	}
	close(release)
	require.NoError(t, journal.Close(context.Background()))

	// assert
	assert.Equal(t, int64(7), journal.Dropped())
	assert.Equal(t, int64(3), journal.Appended())
	assert.Equal(t, 1, logSpy.CountLogs(slog.LevelWarn, "journal event dropped"))
}

func Test_Journal_CountsFailedAppendsAfterRetries(t *testing.T) {
	// arrange
	var calls atomic.Int64
	appender := appenderFunc(func(context.Context, eventstore.StorableEvent, ...eventstore.StorableEvent) error {
		calls.Add(1)
		return eventstore.ErrAppendingEventFailed
	})
	logger, logSpy := helper.NewSpyLogger()
	journal, err := shell.NewJournal(appender, uuid.New(),
		shell.WithBatchSize(3),
		shell.WithJournalLogger(logger),
		shell.WithRetryOptions(shell.WithMaxAttempts(2), shell.WithBaseDelay(time.Millisecond)),
	)
	require.NoError(t, err)

	// act
	for _, e := range givenProducedEvents(3) {
		journal.Record(e)
	}
	require.NoError(t, journal.Close(context.Background()))

	// assert
	assert.Equal(t, int64(3), journal.Failed())
	assert.Equal(t, int64(0), journal.Appended())
	assert.Equal(t, int64(2), calls.Load())
	assert.True(t, logSpy.HasLog(slog.LevelError, "journal append failed"))
}

func Test_Journal_RecordAfterCloseIsDropped(t *testing.T) {
	store, err := memoryengine.NewEventStore()
	require.NoError(t, err)
	journal, err := shell.NewJournal(store, uuid.New())
	require.NoError(t, err)
	require.NoError(t, journal.Close(context.Background()))

	journal.Record(core.BuildSupplyPurchased(core.Milk, 12, false, time.Now()))

	assert.Equal(t, int64(1), journal.Dropped())
	require.NoError(t, journal.Close(context.Background()))
}

func Test_NewJournal_SetupErrors(t *testing.T) {
	store, err := memoryengine.NewEventStore()
	require.NoError(t, err)

	_, nilErr := shell.NewJournal(nil, uuid.New())
	_, bufferErr := shell.NewJournal(store, uuid.New(), shell.WithBufferSize(0))
	_, batchErr := shell.NewJournal(store, uuid.New(), shell.WithBatchSize(-1))
	_, intervalErr := shell.NewJournal(store, uuid.New(), shell.WithFlushInterval(0))

	assert.ErrorIs(t, nilErr, shell.ErrNilAppender)
	assert.ErrorIs(t, bufferErr, shell.ErrInvalidBufferSize)
	assert.ErrorIs(t, batchErr, shell.ErrInvalidBatchSize)
	assert.ErrorIs(t, intervalErr, shell.ErrInvalidFlushInterval)
}
