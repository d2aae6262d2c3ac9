// Package shell connects the bakery's domain events to the journal.
//
// It maps domain events to storable events and back, attaches run metadata, and provides the
// asynchronous Journal recorder that the simulation tasks hand their events to. Appends are retried
// with exponential backoff; a journal that keeps failing never stops the simulation.
//
// In Hexagonal Architecture terminology, this would be called the 'infrastructure' layer.
package shell
