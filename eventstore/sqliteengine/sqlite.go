// Package sqliteengine is a file based journal engine on the pure Go modernc.org/sqlite driver.
//
// Timestamps are stored as unix nanoseconds and payloads as JSON text,
// so predicates are translated to json_extract comparisons.
package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	_ "modernc.org/sqlite" // database/sql driver "sqlite"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/internal/adapters"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/internal/instrument"
)

const (
	engineName                     = "sqlite"
	driverName                     = "sqlite"
	defaultEventTableName          = "events"
	dialectSQLite                  = "sqlite3"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgDBExecFailed             = "database execution failed during event append"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgSchemaFailed             = "failed to create journal schema"
	logActionQuery                 = "query"
	logActionAppend                = "append"
	logActionSchema                = "schema"
	colEventType                   = "event_type"
	colOccurredAt                  = "occurred_at"
	colPayload                     = "payload"
	colMetadata                    = "metadata"
	colSequenceNumber              = "sequence_number"
	jsonExtractEquals              = "json_extract(?, ?) = ?"
)

var validTableName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// EventStore appends journal events to a SQLite table and queries them back.
type EventStore struct {
	db             adapters.DBAdapter
	eventTableName string
	observer       instrument.Observer
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

func WithTableName(tableName string) Option {
	return func(es *EventStore) error {
		if tableName == "" {
			return eventstore.ErrEmptyEventsTableName
		}

		if !validTableName.MatchString(tableName) {
			return eventstore.ErrInvalidEventsTableName
		}

		es.eventTableName = tableName

		return nil
	}
}

func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.observer.Logger = logger
		return nil
	}
}

func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(es *EventStore) error {
		es.observer.MetricsCollector = collector
		return nil
	}
}

func WithTracing(collector eventstore.TracingCollector) Option {
	return func(es *EventStore) error {
		es.observer.TracingCollector = collector
		return nil
	}
}

func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(es *EventStore) error {
		es.observer.ContextualLogger = logger
		return nil
	}
}

// OpenDB opens a SQLite database file with a busy timeout and a single writer connection.
// Use ":memory:" only in tests; every extra connection would see its own empty database.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	return db, nil
}

// NewEventStoreFromSQLDB creates a new EventStore on a database opened with the "sqlite" driver.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	es := EventStore{
		db:             adapters.NewSQLAdapter(db),
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

// EnsureSchema creates the journal table and its event type index when they do not exist.
func (es EventStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
	%s INTEGER PRIMARY KEY AUTOINCREMENT,
	%s INTEGER NOT NULL,
	%s TEXT NOT NULL,
	%s TEXT NOT NULL,
	%s TEXT NOT NULL DEFAULT '{}'
)`, es.eventTableName, colSequenceNumber, colOccurredAt, colEventType, colPayload, colMetadata),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (%s)`, es.eventTableName+"_event_type_idx", es.eventTableName, colEventType),
	}

	for _, stmt := range statements {
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

// Append inserts one or multiple events atomically with a single multi-row INSERT.
func (es EventStore) Append(ctx context.Context, event eventstore.StorableEvent, additionalEvents ...eventstore.StorableEvent) error {
	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	op, ctx := es.observer.StartAppend(ctx, allEvents)

	sqlQuery, buildErr := es.buildInsertQuery(allEvents)
	if buildErr != nil {
		es.observer.LogError(ctx, logMsgBuildInsertQueryFailed, buildErr)
		op.Failure(instrument.ErrorTypeBuildQuery)

		return buildErr
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

// Query retrieves the events matching the eventstore.Filter in journal order.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error) {
	op, ctx := es.observer.StartQuery(ctx)

	sqlQuery, buildErr := es.buildSelectQuery(filter)
	if buildErr != nil {
		es.observer.LogError(ctx, logMsgBuildSelectQueryFailed, buildErr)
		op.Failure(instrument.ErrorTypeBuildQuery)

		return nil, buildErr
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	es.observer.LogQueryWithDuration(ctx, sqlQuery, logActionQuery, time.Since(start))

	if queryErr != nil {
		es.observer.LogError(ctx, logMsgDBQueryFailed, queryErr, instrument.LogAttrQuery, sqlQuery)
		op.Failure(instrument.ClassifyContextError(ctx, instrument.ErrorTypeDatabaseQuery))

		return nil, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			es.observer.LogWarn(ctx, logMsgCloseRowsFailed, closeErr)
		}
	}()

	events := make(eventstore.StorableEvents, 0)

	for rows.Next() {
		var (
			eventType      string
			occurredAtNS   int64
			payload        []byte
			metadata       []byte
			sequenceNumber int64
		)

		if scanErr := rows.Scan(&eventType, &occurredAtNS, &payload, &metadata, &sequenceNumber); scanErr != nil {
			es.observer.LogError(ctx, logMsgScanRowFailed, scanErr)
			op.Failure(instrument.ErrorTypeRowScan)

			return nil, errors.Join(eventstore.ErrScanningDBRowFailed, scanErr)
		}

		event, buildEventErr := eventstore.BuildStorableEvent(eventType, time.Unix(0, occurredAtNS).UTC(), payload, metadata)
		if buildEventErr != nil {
			es.observer.LogError(ctx, logMsgBuildStorableEventFailed, buildEventErr, instrument.LogAttrEventType, eventType)
			op.Failure(instrument.ErrorTypeBuildEvent)

			return nil, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildEventErr)
		}

		events = append(events, event.WithSequenceNumber(eventstore.SequenceNumberUint(sequenceNumber)))
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		es.observer.LogError(ctx, logMsgScanRowFailed, rowsErr)
		op.Failure(instrument.ClassifyContextError(ctx, instrument.ErrorTypeRowScan))

		return nil, errors.Join(eventstore.ErrScanningDBRowFailed, rowsErr)
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

func (es EventStore) buildInsertQuery(events eventstore.StorableEvents) (string, error) {
	rows := make([]any, 0, len(events))

	for _, event := range events {
		rows = append(rows, goqu.Record{
			colEventType:  event.EventType,
			colOccurredAt: event.OccurredAt.UnixNano(),
			colPayload:    string(event.PayloadJSON),
			colMetadata:   string(event.MetadataJSON),
		})
	}

	sqlQuery, _, toSQLErr := goqu.Dialect(dialectSQLite).Insert(es.eventTableName).Rows(rows...).ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) buildSelectQuery(filter eventstore.Filter) (string, error) {
	selectStmt := goqu.Dialect(dialectSQLite).
		From(es.eventTableName).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	expressions := make([]exp.Expression, 0)

	if eventTypes := filter.EventTypes(); len(eventTypes) > 0 {
		expressions = append(expressions, goqu.C(colEventType).In(eventTypes))
	}

	if predicates := filter.Predicates(); len(predicates) > 0 {
		predicateExpressions := make([]exp.Expression, 0, len(predicates))

		for _, predicate := range predicates {
			path := fmt.Sprintf(`$.%q`, predicate.Key())
			predicateExpressions = append(predicateExpressions, goqu.L(jsonExtractEquals, goqu.C(colPayload), path, predicate.Val()))
		}

		if filter.AllPredicatesMustMatch() {
			expressions = append(expressions, goqu.And(predicateExpressions...))
		} else {
			expressions = append(expressions, goqu.Or(predicateExpressions...))
		}
	}

	if !filter.OccurredFrom().IsZero() {
		expressions = append(expressions, goqu.C(colOccurredAt).Gte(filter.OccurredFrom().UnixNano()))
	}

	if !filter.OccurredUntil().IsZero() {
		expressions = append(expressions, goqu.C(colOccurredAt).Lte(filter.OccurredUntil().UnixNano()))
	}

	if filter.SequenceNumberHigherThan() > 0 {
		expressions = append(expressions, goqu.C(colSequenceNumber).Gt(filter.SequenceNumberHigherThan()))
	}

	if len(expressions) > 0 {
		selectStmt = selectStmt.Where(goqu.And(expressions...))
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

var _ eventstore.Engine = EventStore{}
