package sales

import (
	"context"
	"maps"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/pause"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
)

const logMsgCustomerSkipped = "customer turned away, shop is full"

// Generator spawns customer batches at random intervals.
type Generator struct {
	ledger   *ledger.Ledger
	cfg      config.Config
	sellers  []*Seller
	rng      *rand.Rand
	observer telemetry.Observer

	wg       sync.WaitGroup
	inFlight atomic.Int64
	spawned  atomic.Int64
	skipped  atomic.Int64

	outcomesMu sync.Mutex
	outcomes   map[core.Outcome]int
}

func NewGenerator(l *ledger.Ledger, cfg config.Config, sellers []*Seller, rng *rand.Rand, observer telemetry.Observer) *Generator {
	return &Generator{
		ledger:   l,
		cfg:      cfg,
		sellers:  sellers,
		rng:      rng,
		observer: observer,
		outcomes: make(map[core.Outcome]int),
	}
}

// Run spawns customers until the ledger stops running or ctx is done, then waits for every customer it
// spawned to finish.
func (g *Generator) Run(ctx context.Context) {
	defer g.wg.Wait()

	for g.ledger.Running() && ctx.Err() == nil {
		if !pause.Sleep(ctx, g.cfg.UnitsOf(g.cfg.Arrival.Pick(g.rng))) {
			return
		}

		if !g.ledger.Running() {
			return
		}

		batch := g.cfg.Batch.Pick(g.rng)
		for range batch {
			g.Spawn(ctx)
		}
	}
}

// Spawn starts one customer unless the live-customer bound is reached. It reports whether it did.
func (g *Generator) Spawn(ctx context.Context) bool {
	if g.inFlight.Load() >= int64(g.cfg.MaxLiveCustomers) {
		g.skipped.Add(1)
		g.observer.Debug(ctx, logMsgCustomerSkipped)

		return false
	}

	number := int(g.spawned.Add(1))
	order := RandomOrder(g.rng, g.ledger, g.cfg)
	customer := NewCustomer(number, order, g.ledger, g.cfg, g.sellers, pause.NewRand(g.rng.Int63()), g.observer)

	g.inFlight.Add(1)
	g.wg.Add(1)

	go func() {
		defer g.wg.Done()
		defer g.inFlight.Add(-1)

		outcome := customer.Run(ctx)

		g.outcomesMu.Lock()
		g.outcomes[outcome]++
		g.outcomesMu.Unlock()
	}()

	return true
}

// Wait blocks until every spawned customer has finished.
func (g *Generator) Wait() {
	g.wg.Wait()
}

func (g *Generator) Spawned() int {
	return int(g.spawned.Load())
}

func (g *Generator) Skipped() int {
	return int(g.skipped.Load())
}

// Outcomes returns how many visits ended in each outcome so far.
func (g *Generator) Outcomes() map[core.Outcome]int {
	g.outcomesMu.Lock()
	defer g.outcomesMu.Unlock()

	return maps.Clone(g.outcomes)
}
