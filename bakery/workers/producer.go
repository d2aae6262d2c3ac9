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

const (
	qualityMin = 50
	qualityMax = 100

	logMsgProductionFailed = "ingredients vanished before consumption"
	logAttrRole            = "role"
	logAttrSlot            = "slot"
)

// CanProduce reports whether the role's ingredients are currently in stock. Nothing is reserved, so a
// positive answer can be stale by the time the worker consumes.
func CanProduce(l *ledger.Ledger, role core.Role) bool {
	recipe, ok := core.RecipeFor(role)
	if !ok {
		return false
	}

	if recipe.ItemInput != nil && !l.HasInventory(*recipe.ItemInput) {
		return false
	}

	return l.HasSupplies(recipe.Supplies...)
}

// Producer is a chef in one production slot.
type Producer struct {
	ledger   *ledger.Ledger
	cfg      config.Config
	slot     int
	rng      *rand.Rand
	observer telemetry.Observer
}

func NewProducer(l *ledger.Ledger, cfg config.Config, slot int, rng *rand.Rand, observer telemetry.Observer) *Producer {
	return &Producer{ledger: l, cfg: cfg, slot: slot, rng: rng, observer: observer}
}

// Run loops until the ledger stops running or ctx is done.
func (p *Producer) Run(ctx context.Context) {
	for p.ledger.Running() && ctx.Err() == nil {
		role, ok := p.ledger.RoleOf(core.Production, p.slot)
		if !ok {
			return
		}

		if !CanProduce(p.ledger, role) {
			pause.Sleep(ctx, p.cfg.Units(p.cfg.Timings.RetryPause))
			continue
		}

		if !p.Step(ctx) {
			pause.Sleep(ctx, p.cfg.Units(p.cfg.Timings.RetryPause))
			continue
		}

		pause.Sleep(ctx, p.cfg.UnitsOf(p.cfg.ChefTime.Pick(p.rng)))
	}
}

// Step produces one unit for the slot's current role. It returns false when the ingredients were not there
// at consumption time; nothing was changed then.
func (p *Producer) Step(ctx context.Context) bool {
	role, ok := p.ledger.RoleOf(core.Production, p.slot)
	if !ok {
		return false
	}

	recipe, ok := core.RecipeFor(role)
	if !ok {
		return false
	}

	var inputKind core.ItemKind
	var inputFlavor int
	tookInput := false

	if recipe.ItemInput != nil {
		inputKind, inputFlavor, tookInput = p.ledger.TakeFirstAvailable(*recipe.ItemInput)
		if !tookInput {
			p.failed(ctx, role)
			return false
		}
	}

	if !p.ledger.ConsumeSupplies(recipe.Supplies...) {
		if tookInput {
			_ = p.ledger.ReturnInventory(inputKind, inputFlavor, 1)
		}

		p.failed(ctx, role)

		return false
	}

	flavor := 0
	if recipe.Output != core.Paste {
		flavor = p.rng.Intn(p.ledger.Flavors(recipe.Output))
	}

	_ = p.ledger.AdjustInventory(recipe.Output, flavor, 1)

	if tookInput {
		p.ledger.RecordConsumed(inputKind)
	}

	quality := qualityMin + p.rng.Intn(qualityMax-qualityMin+1)
	p.ledger.RecordProduced(recipe.Output, quality)

	p.observer.Count(ctx, telemetry.MetricItemsProduced, map[string]string{
		telemetry.LabelRole:     role.String(),
		telemetry.LabelItemKind: recipe.Output.String(),
	})
	p.observer.Record(core.BuildItemProduced(role, recipe.Output, flavor, quality, time.Now()))

	return true
}

func (p *Producer) failed(ctx context.Context, role core.Role) {
	p.observer.Debug(ctx, logMsgProductionFailed, logAttrRole, role.String(), logAttrSlot, p.slot)
	p.observer.Count(ctx, telemetry.MetricProductionFailures, map[string]string{telemetry.LabelRole: role.String()})
}
