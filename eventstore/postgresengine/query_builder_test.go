package postgresengine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

func Test_BuildSelectQuery_WithoutCriteria_ShouldSelectAllInJournalOrder(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: defaultEventTableName}

	// act
	sqlQuery, err := es.buildSelectQuery(eventstore.BuildEventFilter().MatchingAnyEvent())

	// assert
	assert.NoError(t, err)
	assert.NotContains(t, sqlQuery, "WHERE")
	assert.Contains(t, sqlQuery, `FROM "events"`)
	assert.Contains(t, sqlQuery, `ORDER BY "sequence_number" ASC`)
}

func Test_BuildSelectQuery_WithAnyPredicate_ShouldUseJsonbContainmentWithOr(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: "bakery_journal"}
	filter := eventstore.BuildEventFilter().
		AnyEventTypeOf("ItemSold", "ItemProduced").
		AndAnyPredicateOf(eventstore.P("ItemKind", "cake"), eventstore.P("ItemKind", "bread")).
		Finalize()

	// act
	sqlQuery, err := es.buildSelectQuery(filter)

	// assert
	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "bakery_journal"`)
	assert.Contains(t, sqlQuery, `"event_type" IN ('ItemProduced', 'ItemSold')`)
	assert.Contains(t, sqlQuery, `"payload" @> '{"ItemKind":"bread"}'::jsonb`)
	assert.Contains(t, sqlQuery, `"payload" @> '{"ItemKind":"cake"}'::jsonb`)
	assert.Contains(t, sqlQuery, " OR ")
}

func Test_BuildSelectQuery_WithAllPredicates_ShouldAndThem(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: defaultEventTableName}
	filter := eventstore.BuildEventFilter().
		AndAllPredicatesOf(eventstore.P("ItemKind", "cake"), eventstore.P("Flavor", "3")).
		Finalize()

	// act
	sqlQuery, err := es.buildSelectQuery(filter)

	// assert
	assert.NoError(t, err)
	assert.NotContains(t, sqlQuery, " OR ")
	assert.Equal(t, 2, strings.Count(sqlQuery, "::jsonb"))
}

func Test_BuildSelectQuery_WithPredicateValueContainingQuotes_ShouldEscapeIt(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: defaultEventTableName}
	filter := eventstore.BuildEventFilter().
		AndAnyPredicateOf(eventstore.P("Reason", `it's "bad"`)).
		Finalize()

	// act
	sqlQuery, err := es.buildSelectQuery(filter)

	// assert
	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `it''s`)
	assert.Contains(t, sqlQuery, `\"bad\"`)
}

func Test_BuildSelectQuery_WithTimeRangeAndSequence_ShouldAddBounds(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: defaultEventTableName}
	from := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	filter := eventstore.BuildEventFilter().
		OccurredFrom(from).
		OccurredUntil(from.Add(time.Hour)).
		WithSequenceNumberHigherThan(41).
		Finalize()

	// act
	sqlQuery, err := es.buildSelectQuery(filter)

	// assert
	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `"occurred_at" >= `)
	assert.Contains(t, sqlQuery, `"occurred_at" <= `)
	assert.Contains(t, sqlQuery, `"sequence_number" > 41`)
}

func Test_BuildInsertQuery_ShouldInsertAllEventsInOneStatement(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: defaultEventTableName}
	now := time.Now()
	first, err := eventstore.BuildStorableEventWithEmptyMetadata("ItemProduced", now, []byte(`{"ItemKind":"bread"}`))
	assert.NoError(t, err)
	second, err := eventstore.BuildStorableEvent("ItemSold", now, []byte(`{"ItemKind":"cake"}`), []byte(`{"RunID":"r1"}`))
	assert.NoError(t, err)

	// act
	sqlQuery, buildErr := es.buildInsertQuery(eventstore.StorableEvents{first, second})

	// assert
	assert.NoError(t, buildErr)
	assert.Equal(t, 1, strings.Count(sqlQuery, "INSERT INTO"))
	assert.Equal(t, 4, strings.Count(sqlQuery, "::jsonb"))
	assert.Contains(t, sqlQuery, `'{"RunID":"r1"}'::jsonb`)
}

func Test_SchemaStatements_ShouldUseConfiguredTableName(t *testing.T) {
	// arrange
	es := EventStore{eventTableName: "bakery_journal"}

	// act
	statements := es.schemaStatements()

	// assert
	assert.Len(t, statements, 3)
	assert.Contains(t, statements[0], `CREATE TABLE IF NOT EXISTS "bakery_journal"`)
	assert.Contains(t, statements[2], "jsonb_path_ops")
}
