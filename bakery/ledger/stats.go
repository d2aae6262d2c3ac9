package ledger

import (
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

// Stats returns a copy of the running totals.
func (l *Ledger) Stats() Stats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	return l.stats
}

// RecordSale credits a committed sale.
func (l *Ledger) RecordSale(kind core.ItemKind, qty int, amount float64) {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	l.stats.Sold[kind] += qty
	l.stats.Profit += amount
	l.stats.Served++
}

// RecordRefund debits a refunded sale and counts the complaint.
func (l *Ledger) RecordRefund(amount float64) {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	l.stats.Profit -= amount
	l.stats.Refunded += amount
	l.stats.Complaints++
}

// RecordFrustrated counts a customer who gave up waiting.
func (l *Ledger) RecordFrustrated() {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	l.stats.Frustrated++
}

// RecordMissing counts an order that failed for lack of stock.
func (l *Ledger) RecordMissing() {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	l.stats.MissingRequests++
}

// RecordFled counts a customer who left because of an active complaint. It is not a stop condition.
func (l *Ledger) RecordFled() {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	l.stats.Fled++
}

// RecordProduced counts a unit created by a production role.
func (l *Ledger) RecordProduced(kind core.ItemKind, quality int) {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	l.stats.Produced[kind]++
	if quality < l.qualityThreshold {
		l.stats.LowQuality++
	}
}

// RecordFinished counts a unit baked by an oven.
func (l *Ledger) RecordFinished(kind core.ItemKind) {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	l.stats.Finished[kind]++
}

// RecordConsumed counts a unit used up as a recipe ingredient.
func (l *Ledger) RecordConsumed(kind core.ItemKind) {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()

	l.stats.Consumed[kind]++
}
