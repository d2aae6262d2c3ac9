// Package eventstore provides the core abstractions of the bakery's append-only event journal.
//
// The simulation records what happens (items produced and sold, supplies purchased, complaints,
// staffing changes, the final stop reason) as StorableEvents. Engines persist them in
// Postgres, SQLite or memory; the simulation itself never reads them back.
//
// Key types:
//   - StorableEvent: scalar DTO for one journal entry
//   - Filter: criteria for reading entries back (event types, JSON payload predicates, time range)
//   - Engine: the Append/Query contract implemented by every engine package
//
// Common usage pattern:
//
//	filter := BuildEventFilter().
//		AnyEventTypeOf(core.ItemSoldEventType, core.CustomerComplainedEventType).
//		AndAnyPredicateOf(P("ItemKind", "cake")).
//		Finalize()
//
//	events, err := engine.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
// The observability interfaces (Logger, ContextualLogger, MetricsCollector, TracingCollector) are
// dependency-free on purpose and are shared by the engines and the simulation packages.
package eventstore
