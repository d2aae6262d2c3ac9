package sqliteengine_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/sqliteengine"
	. "github.com/AntonStoeckl/bakery-simulation/testutil/helper" //nolint:revive
)

func givenSQLiteStore(t *testing.T, options ...sqliteengine.Option) sqliteengine.EventStore {
	t.Helper()

	db, err := sqliteengine.OpenDB(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	es, err := sqliteengine.NewEventStoreFromSQLDB(db, options...)
	require.NoError(t, err)
	require.NoError(t, es.EnsureSchema(context.Background()))

	return es
}

func Test_NewEventStoreFromSQLDB_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	// act
	_, err := sqliteengine.NewEventStoreFromSQLDB(nil)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)
}

func Test_EventStore_AppendAndQuery_ShouldRoundTripEvents(t *testing.T) {
	// arrange
	es := givenSQLiteStore(t, sqliteengine.WithTableName("bakery_journal"))
	now := time.Date(2025, 3, 1, 8, 0, 0, 123456789, time.UTC)
	produced := GivenStorableEvent(t, "ItemProduced", now, `{"ItemKind":"bread","Quantity":3}`)
	sold, err := eventstore.BuildStorableEvent("ItemSold", now.Add(time.Second), []byte(`{"ItemKind":"cake","Note":"it's fine"}`), []byte(`{"RunID":"r1"}`))
	require.NoError(t, err)

	// act
	appendErr := es.Append(context.Background(), produced, sold)
	events, queryErr := es.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())

	// assert
	require.NoError(t, appendErr)
	require.NoError(t, queryErr)
	require.Len(t, events, 2)
	assert.Equal(t, "ItemProduced", events[0].EventType)
	assert.True(t, now.Equal(events[0].OccurredAt))
	assert.JSONEq(t, `{"ItemKind":"cake","Note":"it's fine"}`, string(events[1].PayloadJSON))
	assert.JSONEq(t, `{"RunID":"r1"}`, string(events[1].MetadataJSON))
	assert.Equal(t, eventstore.SequenceNumberUint(1), events[0].SequenceNumber)
	assert.Equal(t, eventstore.SequenceNumberUint(2), events[1].SequenceNumber)
}

func Test_EventStore_Query_ShouldApplyFilterCriteria(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	testCases := []struct {
		name          string
		filter        eventstore.Filter
		expectedCount int
	}{
		{name: "by event type", filter: eventstore.BuildEventFilter().AnyEventTypeOf("ItemSold").Finalize(), expectedCount: 2},
		{name: "by any predicate", filter: eventstore.BuildEventFilter().AndAnyPredicateOf(eventstore.P("ItemKind", "cake"), eventstore.P("Flavor", "1")).Finalize(), expectedCount: 2},
		{name: "by all predicates", filter: eventstore.BuildEventFilter().AndAllPredicatesOf(eventstore.P("ItemKind", "bread"), eventstore.P("Flavor", "1")).Finalize(), expectedCount: 1},
		{name: "numeric payload values never match", filter: eventstore.BuildEventFilter().AndAnyPredicateOf(eventstore.P("Quantity", "3")).Finalize(), expectedCount: 0},
		{name: "by time range", filter: eventstore.BuildEventFilter().OccurredFrom(now.Add(time.Second)).OccurredUntil(now.Add(time.Second)).Finalize(), expectedCount: 1},
		{name: "by sequence number", filter: eventstore.BuildEventFilter().WithSequenceNumberHigherThan(1).Finalize(), expectedCount: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			es := givenSQLiteStore(t)
			require.NoError(t, es.Append(
				context.Background(),
				GivenStorableEvent(t, "ItemProduced", now, `{"ItemKind":"bread","Quantity":3}`),
				GivenStorableEvent(t, "ItemSold", now.Add(time.Second), `{"ItemKind":"cake","Flavor":"2"}`),
				GivenStorableEvent(t, "ItemSold", now.Add(2*time.Second), `{"ItemKind":"bread","Flavor":"1"}`),
			))

			// act
			events, err := es.Query(context.Background(), tc.filter)

			// assert
			assert.NoError(t, err)
			assert.Len(t, events, tc.expectedCount)
		})
	}
}

func Test_EventStore_Append_ShouldFail_WithoutSchema(t *testing.T) {
	// arrange
	db, err := sqliteengine.OpenDB(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	metricsSpy := NewMetricsCollectorSpy()
	es, err := sqliteengine.NewEventStoreFromSQLDB(db, sqliteengine.WithMetrics(metricsSpy))
	require.NoError(t, err)

	// act
	appendErr := es.Append(context.Background(), GivenStorableEvent(t, "ItemSold", time.Now(), `{}`))

	// assert
	assert.ErrorIs(t, appendErr, eventstore.ErrAppendingEventFailed)
	assert.True(t, metricsSpy.HasCounterRecord("journal_database_errors_total", "error_type", "database_exec_error"))
}
