package ledger

import (
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
)

// Stats are the running totals of a run.
type Stats struct {
	Profit          float64
	Refunded        float64
	Complaints      int
	Frustrated      int
	MissingRequests int
	Fled            int
	Served          int
	Arrived         int
	Waiting         int
	LowQuality      int
	Produced        [core.NumItemKinds]int
	Finished        [core.NumItemKinds]int
	Sold            [core.NumItemKinds]int
	Consumed        [core.NumItemKinds]int
}

// Snapshot is a consistent copy of the ledger. It shares no memory with it.
type Snapshot struct {
	Running          bool
	Elapsed          time.Duration
	Inventory        [core.NumItemKinds][]int
	Supplies         [core.NumSupplyKinds]int
	WorkersPerRole   [core.NumRoles]int
	AvailableSellers int
	TotalSellers     int
	ComplaintActive  bool
	LiveCustomers    int
	Stats            Stats
}

// InventoryTotal sums all flavors of a kind.
func (s Snapshot) InventoryTotal(kind core.ItemKind) int {
	total := 0
	for _, n := range s.Inventory[kind] {
		total += n
	}

	return total
}

// Drained counts every unit that left the kind's inventory for good: sales and use as an ingredient.
func (s Snapshot) Drained(kind core.ItemKind) int {
	return s.Stats.Sold[kind] + s.Stats.Consumed[kind]
}

// InternalConsumption derives how much of a kind dependent production used up.
func (s Snapshot) InternalConsumption(kind core.ItemKind) int {
	switch kind {
	case core.Bread:
		return s.Stats.Produced[core.Sandwich]
	case core.Paste:
		return s.Stats.Produced[core.SweetPatisserie] + s.Stats.Produced[core.SavoryPatisserie]
	default:
		return 0
	}
}

// Demand approximates external demand for a kind.
func (s Snapshot) Demand(kind core.ItemKind) int {
	return s.Drained(kind) - s.InternalConsumption(kind)
}

// WorkersIn sums the staffing of one discipline.
func (s Snapshot) WorkersIn(d core.Discipline) int {
	total := 0
	for _, r := range core.RolesOf(d) {
		total += s.WorkersPerRole[r]
	}

	return total
}
