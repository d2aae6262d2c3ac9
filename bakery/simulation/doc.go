// Package simulation assembles one bakery run: the shared ledger, every worker, seller and customer task,
// the staffing controller and the supervisor that stops them.
//
// A Simulation runs once. Observability collaborators and the event journal are optional and injected
// with functional options.
package simulation
