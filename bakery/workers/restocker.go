package workers

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/pause"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
)

// Restocker buys supplies. Besides its regular cycle it checks every retry pause for supplies under the
// critical level and buys those at once.
type Restocker struct {
	ledger   *ledger.Ledger
	cfg      config.Config
	rng      *rand.Rand
	observer telemetry.Observer
}

func NewRestocker(l *ledger.Ledger, cfg config.Config, rng *rand.Rand, observer telemetry.Observer) *Restocker {
	return &Restocker{ledger: l, cfg: cfg, rng: rng, observer: observer}
}

func (r *Restocker) Run(ctx context.Context) {
	nextCycle := time.Now()
	poll := r.cfg.Units(r.cfg.Timings.RetryPause)

	for r.ledger.Running() && ctx.Err() == nil {
		if !time.Now().Before(nextCycle) {
			r.Restock(ctx)
			nextCycle = time.Now().Add(r.cfg.UnitsOf(r.cfg.Timings.RestockCycle.Pick(r.rng)))
		} else {
			r.RestockUrgent(ctx)
		}

		pause.Sleep(ctx, min(poll, time.Until(nextCycle)))
	}
}

// Restock buys a random amount within the configured band for every supply below its minimum.
// It returns the number of purchases.
func (r *Restocker) Restock(ctx context.Context) int {
	purchases := 0

	for _, kind := range core.SupplyKinds() {
		if r.ledger.Supply(kind) >= r.cfg.SupplyMin[kind] {
			continue
		}

		band := config.Range{Min: r.cfg.SupplyMin[kind], Max: r.cfg.SupplyMax[kind]}
		r.purchase(ctx, kind, band.Pick(r.rng), false)
		purchases++
	}

	return purchases
}

// RestockUrgent buys for every supply below the critical level. It returns the number of purchases.
func (r *Restocker) RestockUrgent(ctx context.Context) int {
	purchases := 0

	for _, kind := range core.SupplyKinds() {
		if r.ledger.Supply(kind) >= r.cfg.Timings.CriticalSupply {
			continue
		}

		r.purchase(ctx, kind, r.cfg.Timings.UrgentPurchase.Pick(r.rng), true)
		purchases++
	}

	return purchases
}

func (r *Restocker) purchase(ctx context.Context, kind core.SupplyKind, amount int, urgent bool) {
	if amount <= 0 {
		return
	}

	_ = r.ledger.AdjustSupply(kind, amount)

	r.observer.Count(ctx, telemetry.MetricSuppliesPurchased, map[string]string{
		telemetry.LabelSupply: kind.String(),
		telemetry.LabelUrgent: strconv.FormatBool(urgent),
	})
	r.observer.Record(core.BuildSupplyPurchased(kind, amount, urgent, time.Now()))
}
