// Package ledger is the shared state of a bakery run.
//
// Every field group has its own mutex: one per item kind for inventory, and one each for supplies, staffing,
// statistics, seller availability, the complaint flag, the customer registry and the run flag. Operations
// take exactly one group lock and release it before returning, so no caller ever holds two. Snapshot is the
// only operation that takes all of them, always in the same order, and only to copy.
//
// Debiting inventory and crediting statistics are separate critical sections. A reader can observe one
// without the other for a moment.
package ledger
