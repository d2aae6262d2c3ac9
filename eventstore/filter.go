package eventstore

import (
	"slices"
	"strings"
	"time"
)

type FilterEventTypeString = string
type FilterKeyString = string
type FilterValString = string

/***** Filter *****/

// Filter selects journal entries. An empty Filter matches every event.
//
// Event types are ORed. Predicates match top-level payload keys against string values and are ORed
// unless AllPredicatesOf was used. The time range and sequence bound are ANDed with everything else.
type Filter struct {
	eventTypes               []FilterEventTypeString
	predicates               []FilterPredicate
	allPredicatesMustMatch   bool
	occurredFrom             time.Time
	occurredUntil            time.Time
	sequenceNumberHigherThan SequenceNumberUint
}

func (f Filter) EventTypes() []FilterEventTypeString {
	return f.eventTypes
}

func (f Filter) Predicates() []FilterPredicate {
	return f.predicates
}

func (f Filter) AllPredicatesMustMatch() bool {
	return f.allPredicatesMustMatch
}

func (f Filter) OccurredFrom() time.Time {
	return f.occurredFrom
}

func (f Filter) OccurredUntil() time.Time {
	return f.occurredUntil
}

func (f Filter) SequenceNumberHigherThan() SequenceNumberUint {
	return f.sequenceNumberHigherThan
}

// MatchesEventType reports whether the event type passes the type part of the filter.
func (f Filter) MatchesEventType(eventType string) bool {
	if len(f.eventTypes) == 0 {
		return true
	}

	_, found := slices.BinarySearch(f.eventTypes, eventType)

	return found
}

// MatchesEnvelope reports whether the non-payload criteria (type, time range, sequence bound) hold.
func (f Filter) MatchesEnvelope(event StorableEvent) bool {
	if !f.MatchesEventType(event.EventType) {
		return false
	}

	if !f.occurredFrom.IsZero() && event.OccurredAt.Before(f.occurredFrom) {
		return false
	}

	if !f.occurredUntil.IsZero() && event.OccurredAt.After(f.occurredUntil) {
		return false
	}

	return event.SequenceNumber > f.sequenceNumberHigherThan
}

/***** FilterPredicate *****/

type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

// P builds a FilterPredicate.
func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

/***** FilterBuilder *****/

// FilterBuilder builds a Filter that engines translate into their query language.
// Every method returns a new builder, so partially built filters can be shared.
type FilterBuilder struct {
	filter Filter
}

// BuildEventFilter starts a FilterBuilder which must be finished with Finalize() or MatchingAnyEvent().
func BuildEventFilter() FilterBuilder {
	return FilterBuilder{}
}

// MatchingAnyEvent directly creates an empty Filter.
func (fb FilterBuilder) MatchingAnyEvent() Filter {
	return Filter{}
}

// AnyEventTypeOf adds one or multiple event types expecting ANY of them to match.
//
// It sanitizes the input:
//   - removing empty event types ("")
//   - sorting the event types
//   - removing duplicate event types
func (fb FilterBuilder) AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterBuilder {
	all := append([]FilterEventTypeString{eventType}, eventTypes...)
	all = append(all, fb.filter.eventTypes...)
	all = slices.DeleteFunc(all, func(e FilterEventTypeString) bool { return e == "" })
	slices.Sort(all)
	fb.filter.eventTypes = slices.Clip(slices.Compact(all))

	return fb
}

// AndAnyPredicateOf adds one or multiple predicates expecting ANY of them to match.
func (fb FilterBuilder) AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterBuilder {
	fb.filter.allPredicatesMustMatch = false
	fb.filter.predicates = fb.sanitizePredicates(predicate, predicates...)

	return fb
}

// AndAllPredicatesOf adds one or multiple predicates expecting ALL of them to match.
func (fb FilterBuilder) AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterBuilder {
	fb.filter.allPredicatesMustMatch = true
	fb.filter.predicates = fb.sanitizePredicates(predicate, predicates...)

	return fb
}

// OccurredFrom restricts the filter to events that occurred at or after t.
func (fb FilterBuilder) OccurredFrom(t time.Time) FilterBuilder {
	fb.filter.occurredFrom = t

	return fb
}

// OccurredUntil restricts the filter to events that occurred at or before t.
func (fb FilterBuilder) OccurredUntil(t time.Time) FilterBuilder {
	fb.filter.occurredUntil = t

	return fb
}

// WithSequenceNumberHigherThan restricts the filter to events after the given position.
func (fb FilterBuilder) WithSequenceNumberHigherThan(sequenceNumber SequenceNumberUint) FilterBuilder {
	fb.filter.sequenceNumberHigherThan = sequenceNumber

	return fb
}

// Finalize returns the built Filter.
func (fb FilterBuilder) Finalize() Filter {
	return fb.filter
}

// sanitizePredicates removes partial predicates (key or val is ""), sorts them and removes duplicates.
func (fb FilterBuilder) sanitizePredicates(predicate FilterPredicate, predicates ...FilterPredicate) []FilterPredicate {
	all := append([]FilterPredicate{predicate}, predicates...)
	all = slices.DeleteFunc(all, func(p FilterPredicate) bool { return p.key == "" || p.val == "" })
	slices.SortFunc(all, func(a, b FilterPredicate) int {
		if c := strings.Compare(a.key, b.key); c != 0 {
			return c
		}

		return strings.Compare(a.val, b.val)
	})

	return slices.Clip(slices.Compact(all))
}
