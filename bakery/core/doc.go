// Package core holds the bakery vocabulary: item kinds, supplies, worker roles and the domain events
// the simulation records in its journal.
//
// The package is pure. It knows nothing about locking, goroutines or storage.
package core
