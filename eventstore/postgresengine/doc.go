// Package postgresengine is the PostgreSQL journal engine.
//
// Events are inserted with goqu-rendered SQL through one of three connection types:
// pgxpool.Pool (optionally with a read replica), database/sql with lib/pq, or sqlx.
// Payloads are stored as JSONB so predicates translate to containment checks.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(
//		pool,
//		postgresengine.WithTableName("bakery_journal"),
//		postgresengine.WithLogger(logger),
//	)
//	_ = store.EnsureSchema(ctx)
//	_ = store.Append(ctx, event)
//	events, _ := store.Query(eventstore.WithEventualConsistency(ctx), filter)
package postgresengine
