package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/***** sellers *****/

// MarkSellerBusy takes one seller out of the available pool. It fails when none is left.
func (l *Ledger) MarkSellerBusy() bool {
	l.sellersMu.Lock()
	defer l.sellersMu.Unlock()

	if l.availableSellers == 0 {
		return false
	}

	l.availableSellers--

	return true
}

// MarkSellerIdle returns one seller to the pool, never above the configured total.
func (l *Ledger) MarkSellerIdle() {
	l.sellersMu.Lock()
	defer l.sellersMu.Unlock()

	if l.availableSellers < l.totalSellers {
		l.availableSellers++
	}
}

// AvailableSellers is the number of sellers free to take a customer.
func (l *Ledger) AvailableSellers() int {
	l.sellersMu.Lock()
	defer l.sellersMu.Unlock()

	return l.availableSellers
}

/***** complaint flag *****/

// RaiseComplaint sets the disruption flag and clears it again after clearAfter. A newer complaint extends
// the disruption: only the timer of the latest one clears the flag.
func (l *Ledger) RaiseComplaint(ctx context.Context, clearAfter time.Duration) {
	l.complaintMu.Lock()
	defer l.complaintMu.Unlock()

	l.complaintActive = true
	l.complaintGen++
	gen := l.complaintGen

	if l.complaintTimer != nil {
		l.complaintTimer.Stop()
	}

	l.complaintTimer = time.AfterFunc(clearAfter, func() {
		l.complaintMu.Lock()
		defer l.complaintMu.Unlock()

		if l.complaintGen == gen {
			l.complaintActive = false
		}
	})

	l.observer.Debug(ctx, logMsgComplaintRaised)
}

// ComplaintActive reports whether a complaint is still holding up the shop.
func (l *Ledger) ComplaintActive() bool {
	l.complaintMu.Lock()
	defer l.complaintMu.Unlock()

	return l.complaintActive
}

/***** customer registry *****/

// RegisterCustomer tracks a live customer and counts it as waiting. signal is called by SignalCustomers.
func (l *Ledger) RegisterCustomer(id uuid.UUID, signal func()) error {
	l.customersMu.Lock()
	if _, found := l.customers[id]; found {
		l.customersMu.Unlock()

		return fmt.Errorf("%w: %s", ErrDuplicateCustomer, id)
	}

	l.customers[id] = signal
	l.customersMu.Unlock()

	l.statsMu.Lock()
	l.stats.Waiting++
	l.stats.Arrived++
	l.statsMu.Unlock()

	return nil
}

// DeregisterCustomer stops tracking a customer and decrements the waiting count. Removing an absent
// customer is a no-op and returns false.
func (l *Ledger) DeregisterCustomer(id uuid.UUID) bool {
	l.customersMu.Lock()
	if _, found := l.customers[id]; !found {
		l.customersMu.Unlock()

		return false
	}

	delete(l.customers, id)
	l.customersMu.Unlock()

	l.statsMu.Lock()
	l.stats.Waiting--
	l.statsMu.Unlock()

	return true
}

// LiveCustomers counts the registered customers not yet finished.
func (l *Ledger) LiveCustomers() int {
	l.customersMu.Lock()
	defer l.customersMu.Unlock()

	return len(l.customers)
}

// SignalCustomers calls the signal function of every tracked customer and returns how many there were.
// The functions run outside the lock, so they may deregister.
func (l *Ledger) SignalCustomers() int {
	l.customersMu.Lock()
	signals := make([]func(), 0, len(l.customers))
	for _, signal := range l.customers {
		signals = append(signals, signal)
	}
	l.customersMu.Unlock()

	for _, signal := range signals {
		if signal != nil {
			signal()
		}
	}

	return len(signals)
}
