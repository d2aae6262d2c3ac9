package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
)

var (
	ErrUnknownFlavor       = errors.New("unknown flavor")
	ErrNegativeInventory   = errors.New("inventory must not become negative")
	ErrNegativeSupply      = errors.New("supply must not become negative")
	ErrInvalidCount        = errors.New("count must be positive")
	ErrCrossDiscipline     = errors.New("workers can only move between roles of the same discipline")
	ErrInsufficientWorkers = errors.New("donor role has fewer workers than requested")
	ErrDuplicateCustomer   = errors.New("customer is already registered")
)

const (
	logMsgReassigned       = "workers reassigned"
	logMsgReassignRejected = "worker reassignment rejected"
	logMsgComplaintRaised  = "complaint raised"
	logAttrFromRole        = "from_role"
	logAttrToRole          = "to_role"
	logAttrCount           = "count"
	logAttrAvailable       = "available"
	logAttrReason          = "reason"
)

// Ledger is the shared state of one run. Create it with New.
type Ledger struct {
	flavors          [core.NumItemKinds]int
	prices           [core.NumItemKinds][]float64
	qualityThreshold int
	totalSellers     int

	inventoryMu [core.NumItemKinds]sync.Mutex
	inventory   [core.NumItemKinds][]int

	suppliesMu sync.Mutex
	supplies   [core.NumSupplyKinds]int

	staffingMu sync.Mutex
	slots      [2][]core.Role

	statsMu sync.Mutex
	stats   Stats

	sellersMu        sync.Mutex
	availableSellers int

	complaintMu     sync.Mutex
	complaintActive bool
	complaintGen    uint64
	complaintTimer  *time.Timer

	customersMu sync.Mutex
	customers   map[uuid.UUID]func()

	controlMu sync.Mutex
	running   bool
	startedAt time.Time

	observer telemetry.Observer
}

// New creates a zeroed ledger seeded from cfg: empty inventory and supplies, the staff split evenly over
// the roles of each discipline, every seller available. An invalid cfg is a setup failure.
func New(cfg config.Config, options ...Option) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Ledger{
		flavors:          cfg.Flavors,
		qualityThreshold: cfg.QualityThreshold,
		totalSellers:     cfg.Sellers,
		availableSellers: cfg.Sellers,
		customers:        make(map[uuid.UUID]func()),
		running:          true,
		startedAt:        time.Now(),
	}

	for k := range l.inventory {
		l.inventory[k] = make([]int, cfg.Flavors[k])
		l.prices[k] = make([]float64, cfg.Flavors[k])

		for f := range l.prices[k] {
			l.prices[k][f] = cfg.PriceOf(core.ItemKind(k), f)
		}
	}

	l.slots[core.Production] = distribute(cfg.Chefs, core.ProductionRoles())
	l.slots[core.Finishing] = distribute(cfg.Bakers, core.FinishingRoles())

	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// distribute assigns total slots round-robin over roles, so the first roles get the remainder.
func distribute(total int, roles []core.Role) []core.Role {
	perRole := total / len(roles)
	remainder := total % len(roles)
	slots := make([]core.Role, 0, total)

	for i, r := range roles {
		n := perRole
		if i < remainder {
			n++
		}

		for range n {
			slots = append(slots, r)
		}
	}

	return slots
}

// Running reports whether the run is still alive.
func (l *Ledger) Running() bool {
	l.controlMu.Lock()
	defer l.controlMu.Unlock()

	return l.running
}

// Stop clears the running flag. Only the first call returns true.
func (l *Ledger) Stop() bool {
	l.controlMu.Lock()
	defer l.controlMu.Unlock()

	if !l.running {
		return false
	}

	l.running = false

	return true
}

// Elapsed is the time since New.
func (l *Ledger) Elapsed() time.Duration {
	l.controlMu.Lock()
	defer l.controlMu.Unlock()

	return time.Since(l.startedAt)
}

// Close releases the complaint timer and forgets all tracked customers.
func (l *Ledger) Close() {
	l.complaintMu.Lock()
	if l.complaintTimer != nil {
		l.complaintTimer.Stop()
		l.complaintTimer = nil
	}
	l.complaintMu.Unlock()

	l.customersMu.Lock()
	clear(l.customers)
	l.customersMu.Unlock()
}

// lockAll takes every group lock in a fixed order. Only Snapshot uses it.
func (l *Ledger) lockAll() func() {
	l.controlMu.Lock()
	l.staffingMu.Lock()

	for k := range l.inventoryMu {
		l.inventoryMu[k].Lock()
	}

	l.suppliesMu.Lock()
	l.statsMu.Lock()
	l.sellersMu.Lock()
	l.complaintMu.Lock()
	l.customersMu.Lock()

	return func() {
		l.customersMu.Unlock()
		l.complaintMu.Unlock()
		l.sellersMu.Unlock()
		l.statsMu.Unlock()
		l.suppliesMu.Unlock()

		for k := len(l.inventoryMu) - 1; k >= 0; k-- {
			l.inventoryMu[k].Unlock()
		}

		l.staffingMu.Unlock()
		l.controlMu.Unlock()
	}
}

// Snapshot copies the whole ledger under all locks.
func (l *Ledger) Snapshot() Snapshot {
	unlock := l.lockAll()
	defer unlock()

	s := Snapshot{
		Running:          l.running,
		Elapsed:          time.Since(l.startedAt),
		Supplies:         l.supplies,
		Stats:            l.stats,
		AvailableSellers: l.availableSellers,
		TotalSellers:     l.totalSellers,
		ComplaintActive:  l.complaintActive,
		LiveCustomers:    len(l.customers),
	}

	for k := range l.inventory {
		s.Inventory[k] = append([]int(nil), l.inventory[k]...)
	}

	for _, slots := range l.slots {
		for _, r := range slots {
			s.WorkersPerRole[r]++
		}
	}

	return s
}
