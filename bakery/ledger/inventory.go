package ledger

import (
	"fmt"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

func (l *Ledger) checkCell(kind core.ItemKind, flavor int) error {
	if kind < 0 || int(kind) >= core.NumItemKinds || flavor < 0 || flavor >= l.flavors[kind] {
		return fmt.Errorf("%w: %s/%d", ErrUnknownFlavor, kind, flavor)
	}

	return nil
}

// Flavors returns the configured flavor count of a kind.
func (l *Ledger) Flavors(kind core.ItemKind) int {
	return l.flavors[kind]
}

// UnitPrice returns the price of one unit of a flavor.
func (l *Ledger) UnitPrice(kind core.ItemKind, flavor int) float64 {
	if l.checkCell(kind, flavor) != nil {
		return 0
	}

	return l.prices[kind][flavor]
}

// Inventory returns the count of one cell.
func (l *Ledger) Inventory(kind core.ItemKind, flavor int) int {
	if l.checkCell(kind, flavor) != nil {
		return 0
	}

	l.inventoryMu[kind].Lock()
	defer l.inventoryMu[kind].Unlock()

	return l.inventory[kind][flavor]
}

// HasInventory reports whether any flavor of the kind is in stock. Like HasSupplies it reserves nothing.
func (l *Ledger) HasInventory(kind core.ItemKind) bool {
	l.inventoryMu[kind].Lock()
	defer l.inventoryMu[kind].Unlock()

	for _, n := range l.inventory[kind] {
		if n > 0 {
			return true
		}
	}

	return false
}

// AdjustInventory adds delta to one cell. A delta that would make it negative changes nothing.
func (l *Ledger) AdjustInventory(kind core.ItemKind, flavor int, delta int) error {
	if err := l.checkCell(kind, flavor); err != nil {
		return err
	}

	l.inventoryMu[kind].Lock()
	defer l.inventoryMu[kind].Unlock()

	if l.inventory[kind][flavor]+delta < 0 {
		return fmt.Errorf("%w: %s/%d has %d, delta %d", ErrNegativeInventory, kind, flavor, l.inventory[kind][flavor], delta)
	}

	l.inventory[kind][flavor] += delta

	return nil
}

// TakeInventory removes qty units from one cell, or nothing if it holds fewer.
func (l *Ledger) TakeInventory(kind core.ItemKind, flavor int, qty int) error {
	if qty <= 0 {
		return ErrInvalidCount
	}

	return l.AdjustInventory(kind, flavor, -qty)
}

// ReturnInventory puts qty units back into a cell, e.g. when a recipe failed after its item was taken.
func (l *Ledger) ReturnInventory(kind core.ItemKind, flavor int, qty int) error {
	if qty <= 0 {
		return ErrInvalidCount
	}

	return l.AdjustInventory(kind, flavor, qty)
}

// TakeFirstAvailable removes one unit from the first stocked flavor, checking kinds in the given order.
func (l *Ledger) TakeFirstAvailable(kinds ...core.ItemKind) (core.ItemKind, int, bool) {
	for _, kind := range kinds {
		if flavor, ok := l.takeFirstFlavor(kind); ok {
			return kind, flavor, true
		}
	}

	return 0, 0, false
}

func (l *Ledger) takeFirstFlavor(kind core.ItemKind) (int, bool) {
	l.inventoryMu[kind].Lock()
	defer l.inventoryMu[kind].Unlock()

	for f, n := range l.inventory[kind] {
		if n > 0 {
			l.inventory[kind][f]--

			return f, true
		}
	}

	return 0, false
}

// Sale is the result of CommitSale.
type Sale struct {
	Requested int
	Available int
	Fulfilled int
	UnitPrice float64
	Amount    float64
}

// Partial reports whether fewer units than requested were sold.
func (s Sale) Partial() bool {
	return s.Fulfilled > 0 && s.Fulfilled < s.Requested
}

// CommitSale debits the requested units from a cell. With fewer available, it debits what is there if
// allowPartial is set, otherwise nothing. A non-empty sale is then credited to the statistics in a second,
// separate critical section.
func (l *Ledger) CommitSale(kind core.ItemKind, flavor int, requested int, allowPartial bool) (Sale, error) {
	if err := l.checkCell(kind, flavor); err != nil {
		return Sale{}, err
	}

	if requested <= 0 {
		return Sale{}, ErrInvalidCount
	}

	sale := Sale{Requested: requested, UnitPrice: l.prices[kind][flavor]}

	l.inventoryMu[kind].Lock()
	sale.Available = l.inventory[kind][flavor]

	switch {
	case sale.Available >= requested:
		sale.Fulfilled = requested
	case sale.Available > 0 && allowPartial:
		sale.Fulfilled = sale.Available
	}

	l.inventory[kind][flavor] -= sale.Fulfilled
	l.inventoryMu[kind].Unlock()

	if sale.Fulfilled == 0 {
		return sale, nil
	}

	sale.Amount = sale.UnitPrice * float64(sale.Fulfilled)
	l.RecordSale(kind, sale.Fulfilled, sale.Amount)

	return sale, nil
}
