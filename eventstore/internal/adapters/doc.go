// Package adapters hides the differences between the database libraries the journal engines accept:
// pgxpool.Pool (with an optional read replica), database/sql and sqlx.
//
// Engines only render SQL strings and hand them to a DBAdapter.
package adapters
