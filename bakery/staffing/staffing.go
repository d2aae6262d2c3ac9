// Package staffing rebalances chefs between production teams from observed supply and demand.
//
// A pass reads one ledger snapshot, decides on that copy alone and only then asks the ledger to move
// workers. Several rules can fire in one pass, each moving exactly one worker. Later rules see the
// staffing left by earlier ones, so two rules never drain the same donor below its floor.
package staffing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/pause"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
)

const (
	patisserieRatio   = 0.7
	cakeSweetsRatio   = 0.5
	breadShortage     = 5
	sandwichShortage  = 5
	breadFloor        = 2
	pasteShortage     = 3
	pasteSurplus      = 10
	patisserieBacklog = 10
	patisserieLow     = 5
	patisserieFloor   = 2

	logMsgPassDone   = "staffing pass done"
	logAttrDecisions = "decisions"
	logAttrApplied   = "applied"
)

// Decision moves one worker.
type Decision struct {
	Rule   int
	From   core.Role
	To     core.Role
	Reason string
}

func (d Decision) String() string {
	return fmt.Sprintf("rule %d: %s -> %s (%s)", d.Rule, d.From, d.To, d.Reason)
}

// Decide evaluates the rules in order on a snapshot. It never touches the ledger.
// Each accepted decision is applied to a working copy of the staffing before the next rule runs.
func Decide(s ledger.Snapshot) []Decision {
	var decisions []Decision

	working := s

	for _, rule := range []func(ledger.Snapshot) (Decision, bool){
		patisserieBalance,
		breadSandwichBalance,
		cakeSweetsBalance,
		pasteSupply,
	} {
		if d, ok := rule(working); ok {
			working.WorkersPerRole[d.From]--
			working.WorkersPerRole[d.To]++
			decisions = append(decisions, d)
		}
	}

	return decisions
}

func patisserieBalance(s ledger.Snapshot) (Decision, bool) {
	sweet := float64(s.InventoryTotal(core.SweetPatisserie))
	savory := float64(s.InventoryTotal(core.SavoryPatisserie))

	switch {
	case sweet < savory*patisserieRatio && s.WorkersPerRole[core.SavoryPatisserieTeam] > 1:
		return Decision{Rule: 1, From: core.SavoryPatisserieTeam, To: core.SweetPatisserieTeam, Reason: "sweet patisseries short"}, true
	case savory < sweet*patisserieRatio && s.WorkersPerRole[core.SweetPatisserieTeam] > 1:
		return Decision{Rule: 1, From: core.SweetPatisserieTeam, To: core.SavoryPatisserieTeam, Reason: "savory patisseries short"}, true
	default:
		return Decision{}, false
	}
}

func breadSandwichBalance(s ledger.Snapshot) (Decision, bool) {
	switch {
	case s.InventoryTotal(core.Bread) < breadShortage &&
		s.Demand(core.Bread) > s.Stats.Produced[core.Bread] &&
		s.WorkersPerRole[core.SandwichTeam] > 1:
		return Decision{Rule: 2, From: core.SandwichTeam, To: core.BreadTeam, Reason: "bread shortage"}, true

	case s.InventoryTotal(core.Sandwich) < sandwichShortage &&
		s.Demand(core.Sandwich) > s.Stats.Produced[core.Sandwich] &&
		s.WorkersPerRole[core.BreadTeam] > breadFloor:
		return Decision{Rule: 2, From: core.BreadTeam, To: core.SandwichTeam, Reason: "sandwich shortage"}, true

	default:
		return Decision{}, false
	}
}

func cakeSweetsBalance(s ledger.Snapshot) (Decision, bool) {
	cake := float64(s.InventoryTotal(core.Cake))
	sweets := float64(s.InventoryTotal(core.Sweets))

	switch {
	case cake < sweets*cakeSweetsRatio &&
		s.Demand(core.Cake) > s.Stats.Produced[core.Cake] &&
		s.WorkersPerRole[core.SweetsTeam] > 1:
		return Decision{Rule: 3, From: core.SweetsTeam, To: core.CakeTeam, Reason: "cake short"}, true

	case sweets < cake*cakeSweetsRatio &&
		s.Demand(core.Sweets) > s.Stats.Produced[core.Sweets] &&
		s.WorkersPerRole[core.CakeTeam] > 1:
		return Decision{Rule: 3, From: core.CakeTeam, To: core.SweetsTeam, Reason: "sweets short"}, true

	default:
		return Decision{}, false
	}
}

// pasteSupply keeps the shared patisserie input flowing. Ties go to the savory team on both sides.
func pasteSupply(s ledger.Snapshot) (Decision, bool) {
	paste := s.InventoryTotal(core.Paste)
	sweet := s.InventoryTotal(core.SweetPatisserie)
	savory := s.InventoryTotal(core.SavoryPatisserie)
	sweetTeam := s.WorkersPerRole[core.SweetPatisserieTeam]
	savoryTeam := s.WorkersPerRole[core.SavoryPatisserieTeam]

	switch {
	case paste < pasteShortage && sweet+savory > patisserieBacklog && sweetTeam+savoryTeam > patisserieFloor:
		from := core.SavoryPatisserieTeam
		if sweetTeam > savoryTeam {
			from = core.SweetPatisserieTeam
		}

		return Decision{Rule: 4, From: from, To: core.PasteTeam, Reason: "paste shortage"}, true

	case paste > pasteSurplus && s.WorkersPerRole[core.PasteTeam] > 1 && sweet+savory < patisserieLow:
		to := core.SavoryPatisserieTeam
		if sweet < savory {
			to = core.SweetPatisserieTeam
		}

		return Decision{Rule: 4, From: core.PasteTeam, To: to, Reason: "patisseries low"}, true

	default:
		return Decision{}, false
	}
}

// Controller runs Decide periodically and applies the decisions.
type Controller struct {
	ledger   *ledger.Ledger
	cfg      config.Config
	observer telemetry.Observer
}

func NewController(l *ledger.Ledger, cfg config.Config, observer telemetry.Observer) *Controller {
	return &Controller{ledger: l, cfg: cfg, observer: observer}
}

// Run calls Pass every control interval until the ledger stops running or ctx is done.
func (c *Controller) Run(ctx context.Context) {
	for c.ledger.Running() && ctx.Err() == nil {
		if !pause.Sleep(ctx, c.cfg.Units(c.cfg.Timings.ControlInterval)) {
			return
		}

		if !c.ledger.Running() {
			return
		}

		c.Pass(ctx)
	}
}

// Pass snapshots the ledger, decides and applies. It returns the decisions the ledger accepted.
func (c *Controller) Pass(ctx context.Context) []Decision {
	ctx, span := c.observer.StartSpan(ctx, telemetry.SpanStaffingPass, nil)

	decisions := Decide(c.ledger.Snapshot())
	applied := make([]Decision, 0, len(decisions))

	for _, d := range decisions {
		if err := c.ledger.ReassignWorkers(ctx, d.From, d.To, 1, d.Reason); err != nil {
			continue
		}

		applied = append(applied, d)
	}

	c.observer.Debug(ctx, logMsgPassDone, logAttrDecisions, len(decisions), logAttrApplied, len(applied))
	span.Finish(telemetry.StatusOK, map[string]string{
		telemetry.SpanAttrDecisions: strconv.Itoa(len(decisions)),
		telemetry.SpanAttrApplied:   strconv.Itoa(len(applied)),
	})

	return applied
}
