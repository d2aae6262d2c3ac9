package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/internal/adapters"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/internal/instrument"
)

const (
	engineName                     = "postgres"
	defaultEventTableName          = "events"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgPartialAppend            = "fewer rows inserted than events supplied"
	logMsgSchemaFailed             = "failed to create journal schema"
	logActionQuery                 = "query"
	logActionAppend                = "append"
	logActionSchema                = "schema"
	colEventType                   = "event_type"
	colOccurredAt                  = "occurred_at"
	colPayload                     = "payload"
	colMetadata                    = "metadata"
	colSequenceNumber              = "sequence_number"
	dialectPostgres                = "postgres"
	castJsonb                      = "?::jsonb"
	containsJsonb                  = "? @> ?::jsonb"
)

type sqlQueryString = string

// EventStore appends journal events to a PostgreSQL table and queries them back.
type EventStore struct {
	db             adapters.DBAdapter
	eventTableName string
	observer       instrument.Observer
}

type queryResultRow struct {
	eventType      string
	occurredAt     time.Time
	payload        []byte
	metadata       []byte
	sequenceNumber int64
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolAndReplica creates a new EventStore which sends eventually consistent queries to the replica.
func NewEventStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	if replica == nil {
		return newEventStore(adapters.NewPGXAdapter(db), options...)
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB (lib/pq driver) with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
		observer:       instrument.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// EnsureSchema creates the journal table and its indexes when they do not exist.
func (es EventStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range es.schemaStatements() {
		start := time.Now()
		_, execErr := es.db.Exec(ctx, stmt)
		es.observer.LogQueryWithDuration(ctx, stmt, logActionSchema, time.Since(start))

		if execErr != nil {
			es.observer.LogError(ctx, logMsgSchemaFailed, execErr)

			return errors.Join(eventstore.ErrCreatingSchemaFailed, execErr)
		}
	}

	return nil
}

func (es EventStore) schemaStatements() []sqlQueryString {
	return []sqlQueryString{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	%s BIGSERIAL PRIMARY KEY,
	%s TIMESTAMPTZ NOT NULL,
	%s TEXT NOT NULL,
	%s JSONB NOT NULL,
	%s JSONB NOT NULL DEFAULT '{}'
)`, es.eventTableName, colSequenceNumber, colOccurredAt, colEventType, colPayload, colMetadata),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (%s)`,
			es.eventTableName+"_event_type_idx", es.eventTableName, colEventType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q USING gin (%s jsonb_path_ops)`,
			es.eventTableName+"_payload_idx", es.eventTableName, colPayload),
	}
}

// Query retrieves the events matching the eventstore.Filter in journal order.
//
// A context carrying eventstore.WithEventualConsistency may be served by the replica.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error) {
	op, ctx := es.observer.StartQuery(ctx)

	sqlQuery, buildQueryErr := es.buildSelectQuery(filter)
	if buildQueryErr != nil {
		es.observer.LogError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr)
		op.Failure(instrument.ErrorTypeBuildQuery)

		return nil, buildQueryErr
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	es.observer.LogQueryWithDuration(ctx, sqlQuery, logActionQuery, time.Since(start))

	if queryErr != nil {
		es.observer.LogError(ctx, logMsgDBQueryFailed, queryErr, instrument.LogAttrQuery, sqlQuery)
		op.Failure(instrument.ClassifyContextError(ctx, instrument.ErrorTypeDatabaseQuery))

		return nil, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	events, errorType, scanErr := es.processQueryResults(ctx, rows)
	if scanErr != nil {
		op.Failure(errorType)

		return nil, scanErr
	}

	op.Success(len(events))
	es.observer.LogOperation(
		ctx,
		instrument.LogMsgQueryCompleted,
		instrument.LogAttrEventCount, len(events),
		instrument.LogAttrDurationMS, instrument.ToMilliseconds(op.Elapsed()),
	)

	return events, nil
}

func (es EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		es.observer.LogWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

func (es EventStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (eventstore.StorableEvents, string, error) {
	result := queryResultRow{}
	events := make(eventstore.StorableEvents, 0)

	for rows.Next() {
		rowScanErr := rows.Scan(&result.eventType, &result.occurredAt, &result.payload, &result.metadata, &result.sequenceNumber)
		if rowScanErr != nil {
			es.observer.LogError(ctx, logMsgScanRowFailed, rowScanErr)

			return nil, instrument.ErrorTypeRowScan, errors.Join(eventstore.ErrScanningDBRowFailed, rowScanErr)
		}

		event, buildErr := eventstore.BuildStorableEvent(result.eventType, result.occurredAt, result.payload, result.metadata)
		if buildErr != nil {
			es.observer.LogError(ctx, logMsgBuildStorableEventFailed, buildErr, instrument.LogAttrEventType, result.eventType)

			return nil, instrument.ErrorTypeBuildEvent, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildErr)
		}

		events = append(events, event.WithSequenceNumber(eventstore.SequenceNumberUint(result.sequenceNumber)))
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		es.observer.LogError(ctx, logMsgScanRowFailed, rowsErr)

		return nil, instrument.ClassifyContextError(ctx, instrument.ErrorTypeRowScan), errors.Join(eventstore.ErrScanningDBRowFailed, rowsErr)
	}

	return events, "", nil
}

// Append inserts one or multiple events atomically with a single multi-row INSERT.
func (es EventStore) Append(
	ctx context.Context,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	op, ctx := es.observer.StartAppend(ctx, allEvents)

	sqlQuery, buildQueryErr := es.buildInsertQuery(allEvents)
	if buildQueryErr != nil {
		es.observer.LogError(ctx, logMsgBuildInsertQueryFailed, buildQueryErr, instrument.LogAttrEventCount, len(allEvents))
		op.Failure(instrument.ErrorTypeBuildQuery)

		return buildQueryErr
	}

	start := time.Now()
	result, execErr := es.db.Exec(ctx, sqlQuery)
	es.observer.LogQueryWithDuration(ctx, sqlQuery, logActionAppend, time.Since(start))

	if execErr != nil {
		es.observer.LogError(ctx, logMsgDBExecFailed, execErr, instrument.LogAttrQuery, sqlQuery)
		op.Failure(instrument.ClassifyContextError(ctx, instrument.ErrorTypeDatabaseExec))

		return errors.Join(eventstore.ErrAppendingEventFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		es.observer.LogError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		op.Failure(instrument.ErrorTypeRowsAffected)

		return errors.Join(eventstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	if rowsAffected < int64(len(allEvents)) {
		es.observer.LogError(
			ctx,
			logMsgPartialAppend,
			eventstore.ErrPartialAppend,
			instrument.LogAttrExpectedEvents, len(allEvents),
			instrument.LogAttrRowsAffected, rowsAffected,
		)
		op.Failure(instrument.ErrorTypePartialAppend)

		return eventstore.ErrPartialAppend
	}

	op.Success(len(allEvents))
	es.observer.LogOperation(
		ctx,
		instrument.LogMsgEventsAppended,
		instrument.LogAttrEventCount, len(allEvents),
		instrument.LogAttrDurationMS, instrument.ToMilliseconds(op.Elapsed()),
	)

	return nil
}

func (es EventStore) buildInsertQuery(events eventstore.StorableEvents) (sqlQueryString, error) {
	rows := make([]any, 0, len(events))

	for _, event := range events {
		rows = append(rows, goqu.Record{
			colEventType:  event.EventType,
			colOccurredAt: event.OccurredAt.UTC(),
			colPayload:    goqu.L(castJsonb, string(event.PayloadJSON)),
			colMetadata:   goqu.L(castJsonb, string(event.MetadataJSON)),
		})
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(es.eventTableName).
		Rows(rows...)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	whereExpressions, predicateErr := es.whereExpressions(filter)
	if predicateErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, predicateErr)
	}

	if len(whereExpressions) > 0 {
		selectStmt = selectStmt.Where(goqu.And(whereExpressions...))
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) whereExpressions(filter eventstore.Filter) ([]exp.Expression, error) {
	expressions := make([]exp.Expression, 0)

	if eventTypes := filter.EventTypes(); len(eventTypes) > 0 {
		expressions = append(expressions, goqu.C(colEventType).In(eventTypes))
	}

	if predicates := filter.Predicates(); len(predicates) > 0 {
		predicateExpressions := make([]exp.Expression, 0, len(predicates))

		for _, predicate := range predicates {
			containment, err := jsoniter.ConfigFastest.MarshalToString(map[string]string{predicate.Key(): predicate.Val()})
			if err != nil {
				return nil, err
			}

			predicateExpressions = append(predicateExpressions, goqu.L(containsJsonb, goqu.C(colPayload), containment))
		}

		if filter.AllPredicatesMustMatch() {
			expressions = append(expressions, goqu.And(predicateExpressions...))
		} else {
			expressions = append(expressions, goqu.Or(predicateExpressions...))
		}
	}

	if !filter.OccurredFrom().IsZero() {
		expressions = append(expressions, goqu.C(colOccurredAt).Gte(filter.OccurredFrom().UTC()))
	}

	if !filter.OccurredUntil().IsZero() {
		expressions = append(expressions, goqu.C(colOccurredAt).Lte(filter.OccurredUntil().UTC()))
	}

	if filter.SequenceNumberHigherThan() > 0 {
		expressions = append(expressions, goqu.C(colSequenceNumber).Gt(filter.SequenceNumberHigherThan()))
	}

	return expressions, nil
}
