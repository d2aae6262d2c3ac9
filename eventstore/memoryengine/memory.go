// Package memoryengine keeps the journal in process memory.
//
// It is the default engine of the simulation and the reference behavior for the database engines:
// predicates only match string payload values, exactly like the JSONB containment and json_extract checks.
package memoryengine

import (
	"context"
	"errors"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/internal/instrument"
)

const (
	engineName         = "memory"
	logMsgAppendFailed = "append rejected"
	logMsgQueryFailed  = "query rejected"
)

// EventStore is a goroutine safe in-memory journal.
type EventStore struct {
	mu       sync.RWMutex
	events   eventstore.StorableEvents
	observer instrument.Observer
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

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

func NewEventStore(options ...Option) (*EventStore, error) {
	es := &EventStore{
		events:   make(eventstore.StorableEvents, 0),
		observer: instrument.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// Append stores the events atomically and assigns consecutive sequence numbers starting at 1.
func (es *EventStore) Append(ctx context.Context, event eventstore.StorableEvent, additionalEvents ...eventstore.StorableEvent) error {
	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	op, ctx := es.observer.StartAppend(ctx, allEvents)

	if err := ctx.Err(); err != nil {
		es.observer.LogError(ctx, logMsgAppendFailed, err)
		op.Failure(instrument.ErrorTypeCanceled)

		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	es.mu.Lock()
	for _, e := range allEvents {
		es.events = append(es.events, e.WithSequenceNumber(eventstore.SequenceNumberUint(len(es.events)+1)))
	}
	es.mu.Unlock()

	op.Success(len(allEvents))
	es.observer.LogOperation(
		ctx,
		instrument.LogMsgEventsAppended,
		instrument.LogAttrEventCount, len(allEvents),
		instrument.LogAttrDurationMS, instrument.ToMilliseconds(op.Elapsed()),
	)

	return nil
}

// Query returns copies of the matching events in journal order.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error) {
	op, ctx := es.observer.StartQuery(ctx)

	if err := ctx.Err(); err != nil {
		es.observer.LogError(ctx, logMsgQueryFailed, err)
		op.Failure(instrument.ErrorTypeCanceled)

		return nil, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	es.mu.RLock()
	result := make(eventstore.StorableEvents, 0)
	for _, e := range es.events {
		if filter.MatchesEnvelope(e) && matchesPredicates(filter, e.PayloadJSON) {
			result = append(result, e)
		}
	}
	es.mu.RUnlock()

	op.Success(len(result))
	es.observer.LogOperation(
		ctx,
		instrument.LogMsgQueryCompleted,
		instrument.LogAttrEventCount, len(result),
		instrument.LogAttrDurationMS, instrument.ToMilliseconds(op.Elapsed()),
	)

	return result, nil
}

// Len returns the number of stored events.
func (es *EventStore) Len() int {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return len(es.events)
}

func matchesPredicates(filter eventstore.Filter, payload []byte) bool {
	predicates := filter.Predicates()
	if len(predicates) == 0 {
		return true
	}

	for _, predicate := range predicates {
		matched := matchesPredicate(predicate, payload)

		if filter.AllPredicatesMustMatch() && !matched {
			return false
		}

		if !filter.AllPredicatesMustMatch() && matched {
			return true
		}
	}

	return filter.AllPredicatesMustMatch()
}

func matchesPredicate(predicate eventstore.FilterPredicate, payload []byte) bool {
	value := jsoniter.ConfigFastest.Get(payload, predicate.Key())
	if value.ValueType() != jsoniter.StringValue {
		return false
	}

	return value.ToString() == predicate.Val()
}

var _ eventstore.Engine = (*EventStore)(nil)
