package ledger

import (
	"fmt"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

// Supply returns the current count of one supply.
func (l *Ledger) Supply(kind core.SupplyKind) int {
	l.suppliesMu.Lock()
	defer l.suppliesMu.Unlock()

	return l.supplies[kind]
}

// AdjustSupply adds delta to a supply. A delta that would make it negative changes nothing.
func (l *Ledger) AdjustSupply(kind core.SupplyKind, delta int) error {
	l.suppliesMu.Lock()
	defer l.suppliesMu.Unlock()

	if l.supplies[kind]+delta < 0 {
		return fmt.Errorf("%w: %s has %d, delta %d", ErrNegativeSupply, kind, l.supplies[kind], delta)
	}

	l.supplies[kind] += delta

	return nil
}

// HasSupplies reports whether at least one unit of every kind is in stock. The answer is only a hint:
// nothing is reserved.
func (l *Ledger) HasSupplies(kinds ...core.SupplyKind) bool {
	l.suppliesMu.Lock()
	defer l.suppliesMu.Unlock()

	return l.hasSuppliesLocked(kinds)
}

func (l *Ledger) hasSuppliesLocked(kinds []core.SupplyKind) bool {
	for _, k := range kinds {
		if l.supplies[k] < 1 {
			return false
		}
	}

	return true
}

// ConsumeSupplies removes one unit of every kind, or nothing if any is missing.
func (l *Ledger) ConsumeSupplies(kinds ...core.SupplyKind) bool {
	l.suppliesMu.Lock()
	defer l.suppliesMu.Unlock()

	if !l.hasSuppliesLocked(kinds) {
		return false
	}

	for _, k := range kinds {
		l.supplies[k]--
	}

	return true
}
