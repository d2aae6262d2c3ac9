// Package instrument holds the observability plumbing shared by the journal engines.
//
// Every collaborator is optional. A zero Observer is valid and records nothing.
package instrument

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

const (
	MetricQueryDuration  = "journal_query_duration_seconds"
	MetricAppendDuration = "journal_append_duration_seconds"
	MetricEventsQueried  = "journal_events_queried_total"
	MetricEventsAppended = "journal_events_appended_total"
	MetricDatabaseErrors = "journal_database_errors_total"

	SpanNameQuery  = "journal.query"
	SpanNameAppend = "journal.append"

	SpanAttrOperation    = "operation"
	SpanAttrEngine       = "engine"
	SpanAttrEventCount   = "event_count"
	SpanAttrEventType    = "event_type"
	SpanAttrErrorType    = "error_type"
	SpanAttrDurationMS   = "duration_ms"
	SpanAttrRowsAffected = "rows_affected"

	OperationQuery  = "query"
	OperationAppend = "append"

	StatusSuccess = "success"
	StatusError   = "error"

	LabelStatus = "status"

	ErrorTypeBuildQuery     = "build_query_error"
	ErrorTypeDatabaseQuery  = "database_query_error"
	ErrorTypeDatabaseExec   = "database_exec_error"
	ErrorTypeRowScan        = "row_scan_error"
	ErrorTypeRowsAffected   = "rows_affected_error"
	ErrorTypeBuildEvent     = "build_event_error"
	ErrorTypePartialAppend  = "partial_append"
	ErrorTypeCanceled       = "context_canceled"
	ErrorTypeNoEvents       = "no_events"
	ErrorTypeJSONPredicates = "json_predicate_error"

	LogMsgSQLExecuted     = "executed sql for: "
	LogMsgOperation       = "journal operation: "
	LogMsgQueryCompleted  = "query completed"
	LogMsgEventsAppended  = "events appended"
	LogAttrError          = "error"
	LogAttrQuery          = "query"
	LogAttrEventType      = "event_type"
	LogAttrEventCount     = "event_count"
	LogAttrDurationMS     = "duration_ms"
	LogAttrRowsAffected   = "rows_affected"
	LogAttrExpectedEvents = "expected_events"
)

// Observer bundles the optional logging, metrics and tracing collaborators of an engine.
type Observer struct {
	Engine           string
	Logger           eventstore.Logger
	MetricsCollector eventstore.MetricsCollector
	TracingCollector eventstore.TracingCollector
	ContextualLogger eventstore.ContextualLogger
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func ToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

/***** logging *****/

// LogQueryWithDuration logs a statement with its execution time at debug level.
func (o Observer) LogQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	args := []any{LogAttrDurationMS, ToMilliseconds(duration), LogAttrQuery, sqlQuery}

	if o.Logger != nil {
		o.Logger.Debug(LogMsgSQLExecuted+action, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, LogMsgSQLExecuted+action, args...)
	}
}

// LogOperation logs operational information at info level.
func (o Observer) LogOperation(ctx context.Context, action string, args ...any) {
	if o.Logger != nil {
		o.Logger.Info(LogMsgOperation+action, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(ctx, LogMsgOperation+action, args...)
	}
}

// LogWarn logs a non-critical problem, e.g. a failed rows.Close().
func (o Observer) LogWarn(ctx context.Context, message string, err error) {
	if o.Logger != nil {
		o.Logger.Warn(message, LogAttrError, err.Error())
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, message, LogAttrError, err.Error())
	}
}

// LogError logs a failure at error level.
func (o Observer) LogError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{LogAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if o.Logger != nil {
		o.Logger.Error(message, allArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

/***** metrics *****/

func (o Observer) labels(operation, status string) map[string]string {
	labels := map[string]string{
		SpanAttrOperation: operation,
		LabelStatus:       status,
	}

	if o.Engine != "" {
		labels[SpanAttrEngine] = o.Engine
	}

	return labels
}

func (o Observer) recordDuration(ctx context.Context, metric string, duration time.Duration, operation, status string) {
	if o.MetricsCollector == nil {
		return
	}

	labels := o.labels(operation, status)

	if contextual, ok := o.MetricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	o.MetricsCollector.RecordDuration(metric, duration, labels)
}

func (o Observer) recordValue(ctx context.Context, metric string, value float64, operation, status string) {
	if o.MetricsCollector == nil {
		return
	}

	labels := o.labels(operation, status)

	if contextual, ok := o.MetricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	o.MetricsCollector.RecordValue(metric, value, labels)
}

func (o Observer) recordError(ctx context.Context, operation, errorType string) {
	if o.MetricsCollector == nil {
		return
	}

	labels := o.labels(operation, StatusError)
	labels[SpanAttrErrorType] = errorType

	if contextual, ok := o.MetricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, MetricDatabaseErrors, labels)
		return
	}

	o.MetricsCollector.IncrementCounter(MetricDatabaseErrors, labels)
}

/***** tracing *****/

// Operation tracks one query or append from start to finish.
// It records the span, the duration metric and the error counter in one place.
type Operation struct {
	observer  Observer
	ctx       context.Context
	span      eventstore.SpanContext
	operation string
	start     time.Time
}

// StartQuery begins observing a Query call.
func (o Observer) StartQuery(ctx context.Context) (*Operation, context.Context) {
	return o.start(ctx, OperationQuery, SpanNameQuery, nil)
}

// StartAppend begins observing an Append call.
func (o Observer) StartAppend(ctx context.Context, events eventstore.StorableEvents) (*Operation, context.Context) {
	attrs := map[string]string{SpanAttrEventCount: fmt.Sprintf("%d", len(events))}

	if len(events) > 0 {
		attrs[SpanAttrEventType] = events[0].EventType
	}

	return o.start(ctx, OperationAppend, SpanNameAppend, attrs)
}

func (o Observer) start(ctx context.Context, operation, spanName string, attrs map[string]string) (*Operation, context.Context) {
	op := &Operation{observer: o, ctx: ctx, operation: operation, start: time.Now()}

	if o.TracingCollector != nil {
		spanAttrs := map[string]string{SpanAttrOperation: operation}
		if o.Engine != "" {
			spanAttrs[SpanAttrEngine] = o.Engine
		}

		for k, v := range attrs {
			spanAttrs[k] = v
		}

		op.ctx, op.span = o.TracingCollector.StartSpan(ctx, spanName, spanAttrs)
	}

	return op, op.ctx
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed() time.Duration {
	return time.Since(op.start)
}

// Success finishes the operation with the number of events it read or wrote.
func (op *Operation) Success(eventCount int) {
	duration := op.Elapsed()

	switch op.operation {
	case OperationQuery:
		op.observer.recordDuration(op.ctx, MetricQueryDuration, duration, op.operation, StatusSuccess)
		op.observer.recordValue(op.ctx, MetricEventsQueried, float64(eventCount), op.operation, StatusSuccess)
	default:
		op.observer.recordDuration(op.ctx, MetricAppendDuration, duration, op.operation, StatusSuccess)
		op.observer.recordValue(op.ctx, MetricEventsAppended, float64(eventCount), op.operation, StatusSuccess)
	}

	if op.span == nil {
		return
	}

	attrs := map[string]string{
		SpanAttrEventCount: fmt.Sprintf("%d", eventCount),
		SpanAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	}

	op.span.SetStatus(StatusSuccess)
	op.observer.TracingCollector.FinishSpan(op.span, StatusSuccess, attrs)
}

// Failure finishes the operation with the classified error type.
func (op *Operation) Failure(errorType string) {
	duration := op.Elapsed()

	metric := MetricAppendDuration
	if op.operation == OperationQuery {
		metric = MetricQueryDuration
	}

	op.observer.recordDuration(op.ctx, metric, duration, op.operation, StatusError)
	op.observer.recordError(op.ctx, op.operation, errorType)

	if op.span == nil {
		return
	}

	op.span.SetStatus(StatusError)
	op.span.AddAttribute(SpanAttrErrorType, errorType)
	op.observer.TracingCollector.FinishSpan(op.span, StatusError, map[string]string{
		SpanAttrErrorType:  errorType,
		SpanAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	})
}

// ClassifyContextError maps context cancellation to its own error type.
func ClassifyContextError(ctx context.Context, fallback string) string {
	if ctx.Err() != nil {
		return ErrorTypeCanceled
	}

	return fallback
}
