package workers

import (
	"context"
	"math/rand"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/pause"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
)

// Finisher is a baker in one finishing slot. Baking takes a unit out, scores it and puts it back, so
// inventory counts are unchanged.
type Finisher struct {
	ledger   *ledger.Ledger
	cfg      config.Config
	slot     int
	rng      *rand.Rand
	observer telemetry.Observer
}

func NewFinisher(l *ledger.Ledger, cfg config.Config, slot int, rng *rand.Rand, observer telemetry.Observer) *Finisher {
	return &Finisher{ledger: l, cfg: cfg, slot: slot, rng: rng, observer: observer}
}

func (f *Finisher) Run(ctx context.Context) {
	for f.ledger.Running() && ctx.Err() == nil {
		if !f.Step(ctx) {
			pause.Sleep(ctx, f.cfg.Units(f.cfg.Timings.RetryPause))
			continue
		}

		pause.Sleep(ctx, f.cfg.UnitsOf(f.cfg.BakerTime.Pick(f.rng)))
	}
}

// Step bakes one unit of the first stocked flavor of the oven's kinds.
func (f *Finisher) Step(ctx context.Context) bool {
	role, ok := f.ledger.RoleOf(core.Finishing, f.slot)
	if !ok {
		return false
	}

	kind, flavor, ok := f.ledger.TakeFirstAvailable(role.FinishedKinds()...)
	if !ok {
		return false
	}

	quality := qualityMin + f.rng.Intn(qualityMax-qualityMin+1)
	_ = f.ledger.ReturnInventory(kind, flavor, 1)
	f.ledger.RecordFinished(kind)

	f.observer.Count(ctx, telemetry.MetricItemsFinished, map[string]string{
		telemetry.LabelRole:     role.String(),
		telemetry.LabelItemKind: kind.String(),
	})
	f.observer.Record(core.BuildItemFinished(role, kind, flavor, quality, time.Now()))

	return true
}
