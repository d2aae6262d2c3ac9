package eventstore

import (
	"context"
	"errors"
)

var ErrEmptyEventsTableName = errors.New("events table name must not be empty")
var ErrInvalidEventsTableName = errors.New("events table name must be a lowercase sql identifier")
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrNoEventsSupplied = errors.New("at least one event must be supplied")
var ErrBuildingQueryFailed = errors.New("building the query failed")
var ErrQueryingEventsFailed = errors.New("querying events failed")
var ErrScanningDBRowFailed = errors.New("scanning a database row failed")
var ErrBuildingStorableEventFailed = errors.New("building a storable event from a database row failed")
var ErrAppendingEventFailed = errors.New("appending events failed")
var ErrGettingRowsAffectedFailed = errors.New("getting the rows affected count failed")
var ErrPartialAppend = errors.New("fewer rows were inserted than events supplied")
var ErrCreatingSchemaFailed = errors.New("creating the events schema failed")

// SequenceNumberUint is the position of an event in the journal, assigned by the engine.
type SequenceNumberUint = uint

// Appender appends one or multiple events atomically.
type Appender interface {
	Append(ctx context.Context, event StorableEvent, additionalEvents ...StorableEvent) error
}

// Querier reads events back in journal order.
type Querier interface {
	Query(ctx context.Context, filter Filter) (StorableEvents, error)
}

// Engine is the contract every journal engine fulfills.
type Engine interface {
	Appender
	Querier
}
