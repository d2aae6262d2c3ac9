package postgresengine_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/postgresengine"
	. "github.com/AntonStoeckl/bakery-simulation/testutil/helper" //nolint:revive
)

func Test_FactoryFunctions_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (postgresengine.EventStore, error)
	}{
		{
			name:        "NewEventStoreFromPGXPool with nil",
			factoryFunc: func() (postgresengine.EventStore, error) { return postgresengine.NewEventStoreFromPGXPool(nil) },
		},
		{
			name: "NewEventStoreFromPGXPoolAndReplica with nil primary",
			factoryFunc: func() (postgresengine.EventStore, error) {
				return postgresengine.NewEventStoreFromPGXPoolAndReplica(nil, nil)
			},
		},
		{
			name:        "NewEventStoreFromSQLDB with nil",
			factoryFunc: func() (postgresengine.EventStore, error) { return postgresengine.NewEventStoreFromSQLDB(nil) },
		},
		{
			name:        "NewEventStoreFromSQLX with nil",
			factoryFunc: func() (postgresengine.EventStore, error) { return postgresengine.NewEventStoreFromSQLX(nil) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := tc.factoryFunc()

			// assert
			assert.ErrorIs(t, err, eventstore.ErrNilDatabaseConnection)
		})
	}
}

func Test_WithTableName_ShouldRejectInvalidNames(t *testing.T) {
	// arrange
	db, err := sql.Open("postgres", "postgres://localhost/unused?sslmode=disable")
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	// act
	_, emptyErr := postgresengine.NewEventStoreFromSQLDB(db, postgresengine.WithTableName(""))
	_, invalidErr := postgresengine.NewEventStoreFromSQLDB(db, postgresengine.WithTableName(`events"; DROP TABLE x; --`))
	_, validErr := postgresengine.NewEventStoreFromSQLDB(db, postgresengine.WithTableName("bakery_journal"))

	// assert
	assert.ErrorIs(t, emptyErr, eventstore.ErrEmptyEventsTableName)
	assert.ErrorIs(t, invalidErr, eventstore.ErrInvalidEventsTableName)
	assert.NoError(t, validErr)
}

func Test_EventStore_AppendAndQuery_RoundTrip_AgainstPostgres(t *testing.T) {
	dsn := PostgresDSNOrSkip(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	assert.NoError(t, err)
	defer pool.Close()

	sqlxDB, err := sqlx.Open("postgres", dsn)
	assert.NoError(t, err)
	defer func() { _ = sqlxDB.Close() }()

	tableName := UniqueTableName(t, "journal_test")
	defer func() { _, _ = pool.Exec(context.Background(), `DROP TABLE IF EXISTS "`+tableName+`"`) }()

	metricsSpy := NewMetricsCollectorSpy()
	logger, logSpy := NewSpyLogger()

	es, err := postgresengine.NewEventStoreFromPGXPoolAndReplica(
		pool,
		pool,
		postgresengine.WithTableName(tableName),
		postgresengine.WithLogger(logger),
		postgresengine.WithMetrics(metricsSpy),
	)
	assert.NoError(t, err)
	assert.NoError(t, es.EnsureSchema(ctx))

	now := time.Now().UTC().Truncate(time.Microsecond)
	produced := GivenStorableEvent(t, "ItemProduced", now, `{"ItemKind":"bread","Quantity":3}`)
	sold := GivenStorableEvent(t, "ItemSold", now.Add(time.Millisecond), `{"ItemKind":"cake","Quantity":1}`)

	// act
	appendErr := es.Append(ctx, produced, sold)
	allEvents, queryAllErr := es.Query(eventstore.WithEventualConsistency(ctx), eventstore.BuildEventFilter().MatchingAnyEvent())

	sqlxStore, err := postgresengine.NewEventStoreFromSQLX(sqlxDB, postgresengine.WithTableName(tableName))
	assert.NoError(t, err)
	cakeEvents, queryCakeErr := sqlxStore.Query(
		ctx,
		eventstore.BuildEventFilter().AndAnyPredicateOf(eventstore.P("ItemKind", "cake")).Finalize(),
	)

	// assert
	assert.NoError(t, appendErr)
	assert.NoError(t, queryAllErr)
	assert.NoError(t, queryCakeErr)
	assert.Len(t, allEvents, 2)
	assert.Equal(t, "ItemProduced", allEvents[0].EventType)
	assert.Less(t, allEvents[0].SequenceNumber, allEvents[1].SequenceNumber)
	assert.True(t, now.Equal(allEvents[0].OccurredAt))
	assert.Len(t, cakeEvents, 1)
	assert.Equal(t, "ItemSold", cakeEvents[0].EventType)
	assert.Equal(t, 2.0, metricsSpy.SumValues("journal_events_appended_total"))
	assert.True(t, logSpy.GetRecordCount() > 0)
}

func Test_EventStore_Query_ShouldFail_WhenContextIsCanceled(t *testing.T) {
	dsn := PostgresDSNOrSkip(t)

	db, err := sql.Open("postgres", dsn)
	assert.NoError(t, err)
	defer func() { _ = db.Close() }()

	metricsSpy := NewMetricsCollectorSpy()
	es, err := postgresengine.NewEventStoreFromSQLDB(db, postgresengine.WithMetrics(metricsSpy))
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	_, queryErr := es.Query(ctx, eventstore.BuildEventFilter().MatchingAnyEvent())

	// assert
	assert.ErrorIs(t, queryErr, eventstore.ErrQueryingEventsFailed)
	assert.True(t, metricsSpy.HasCounterRecord("journal_database_errors_total", "error_type", "context_canceled"))
}
