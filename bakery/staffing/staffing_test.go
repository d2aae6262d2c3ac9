package staffing_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
	"github.com/AntonStoeckl/bakery-simulation/bakery/staffing"
	"github.com/AntonStoeckl/bakery-simulation/testutil/helper"
)

// givenSnapshot has two chefs in every production team and the given inventory totals in flavor 0.
func givenSnapshot(totals map[core.ItemKind]int) ledger.Snapshot {
	var s ledger.Snapshot

	for _, k := range core.ItemKinds() {
		s.Inventory[k] = []int{totals[k]}
	}

	for _, r := range core.ProductionRoles() {
		s.WorkersPerRole[r] = 2
	}

	return s
}

func Test_Decide_NothingFiresOnAnEmptyShop(t *testing.T) {
	decisions := staffing.Decide(givenSnapshot(nil))

	assert.Empty(t, decisions)
}

func Test_Decide_PatisserieBalance(t *testing.T) {
	toSweet := staffing.Decide(givenSnapshot(map[core.ItemKind]int{core.SweetPatisserie: 3, core.SavoryPatisserie: 5}))
	toSavory := staffing.Decide(givenSnapshot(map[core.ItemKind]int{core.SweetPatisserie: 5, core.SavoryPatisserie: 3}))
	atThreshold := staffing.Decide(givenSnapshot(map[core.ItemKind]int{core.Paste: 5, core.SweetPatisserie: 7, core.SavoryPatisserie: 10}))

	require.Len(t, toSweet, 1)
	assert.Equal(t, core.SavoryPatisserieTeam, toSweet[0].From)
	assert.Equal(t, core.SweetPatisserieTeam, toSweet[0].To)
	require.Len(t, toSavory, 1)
	assert.Equal(t, core.SweetPatisserieTeam, toSavory[0].From)
	assert.Empty(t, atThreshold)
}

func Test_Decide_PatisserieBalanceKeepsDonorFloor(t *testing.T) {
	s := givenSnapshot(map[core.ItemKind]int{core.SweetPatisserie: 1, core.SavoryPatisserie: 5})
	s.WorkersPerRole[core.SavoryPatisserieTeam] = 1

	assert.Empty(t, staffing.Decide(s))
}

func Test_Decide_BreadShortageUsesDemandNetOfSandwiches(t *testing.T) {
	// arrange
	s := givenSnapshot(map[core.ItemKind]int{core.Bread: 1, core.Sandwich: 9})
	s.Stats.Produced[core.Bread] = 10
	s.Stats.Sold[core.Bread] = 8
	s.Stats.Consumed[core.Bread] = 6
	s.Stats.Produced[core.Sandwich] = 6

	// act
	netDemandTooLow := staffing.Decide(s)
	s.Stats.Sold[core.Bread] = 11
	netDemandHigh := staffing.Decide(s)

	// assert
	assert.Empty(t, netDemandTooLow)
	require.Len(t, netDemandHigh, 1)
	assert.Equal(t, core.SandwichTeam, netDemandHigh[0].From)
	assert.Equal(t, core.BreadTeam, netDemandHigh[0].To)
}

func Test_Decide_SandwichShortageKeepsTwoBakersOfBread(t *testing.T) {
	// arrange
	s := givenSnapshot(map[core.ItemKind]int{core.Bread: 20, core.Sandwich: 1})
	s.Stats.Sold[core.Sandwich] = 5
	s.Stats.Produced[core.Sandwich] = 3

	// act
	atFloor := staffing.Decide(s)
	s.WorkersPerRole[core.BreadTeam] = 3
	aboveFloor := staffing.Decide(s)

	// assert
	assert.Empty(t, atFloor)
	require.Len(t, aboveFloor, 1)
	assert.Equal(t, core.BreadTeam, aboveFloor[0].From)
	assert.Equal(t, core.SandwichTeam, aboveFloor[0].To)
}

func Test_Decide_CakeSweetsBalance(t *testing.T) {
	s := givenSnapshot(map[core.ItemKind]int{core.Cake: 1, core.Sweets: 10})
	s.Stats.Sold[core.Cake] = 4
	s.Stats.Produced[core.Cake] = 2

	decisions := staffing.Decide(s)

	require.Len(t, decisions, 1)
	assert.Equal(t, 3, decisions[0].Rule)
	assert.Equal(t, core.SweetsTeam, decisions[0].From)
	assert.Equal(t, core.CakeTeam, decisions[0].To)
}

func Test_Decide_PasteShortageTakesFromLargerTeamSavoryOnTie(t *testing.T) {
	// arrange
	tie := givenSnapshot(map[core.ItemKind]int{core.SweetPatisserie: 6, core.SavoryPatisserie: 6})
	sweetLarger := givenSnapshot(map[core.ItemKind]int{core.SweetPatisserie: 6, core.SavoryPatisserie: 6})
	sweetLarger.WorkersPerRole[core.SweetPatisserieTeam] = 3

	// act
	fromTie := staffing.Decide(tie)
	fromSweet := staffing.Decide(sweetLarger)

	// assert
	require.Len(t, fromTie, 1)
	assert.Equal(t, core.SavoryPatisserieTeam, fromTie[0].From)
	assert.Equal(t, core.PasteTeam, fromTie[0].To)
	require.Len(t, fromSweet, 1)
	assert.Equal(t, core.SweetPatisserieTeam, fromSweet[0].From)
}

func Test_Decide_PasteSurplusFeedsTheLowerPatisserie(t *testing.T) {
	tie := staffing.Decide(givenSnapshot(map[core.ItemKind]int{core.Paste: 11, core.SweetPatisserie: 2, core.SavoryPatisserie: 2}))
	sweetLower := staffing.Decide(givenSnapshot(map[core.ItemKind]int{core.Paste: 11, core.SweetPatisserie: 1, core.SavoryPatisserie: 2}))

	require.Len(t, tie, 1)
	assert.Equal(t, core.SavoryPatisserieTeam, tie[0].To)
	require.Len(t, sweetLower, 2)
	assert.Equal(t, 1, sweetLower[0].Rule)
	assert.Equal(t, core.SweetPatisserieTeam, sweetLower[1].To)
}

func Test_Decide_SeveralRulesFireInOrder(t *testing.T) {
	s := givenSnapshot(map[core.ItemKind]int{core.SweetPatisserie: 3, core.SavoryPatisserie: 9, core.Cake: 0, core.Sweets: 8})
	s.Stats.Sold[core.Cake] = 1

	decisions := staffing.Decide(s)

	require.Len(t, decisions, 3)
	assert.Equal(t, 1, decisions[0].Rule)
	assert.Equal(t, 3, decisions[1].Rule)
	assert.Equal(t, 4, decisions[2].Rule)
}

func Test_Decide_LaterRulesSeeEarlierMoves(t *testing.T) {
	// arrange
	s := givenSnapshot(map[core.ItemKind]int{core.SavoryPatisserie: 11})
	for _, r := range core.ProductionRoles() {
		s.WorkersPerRole[r] = 1
	}
	s.WorkersPerRole[core.SavoryPatisserieTeam] = 2

	// act
	decisions := staffing.Decide(s)

	// assert
	require.Len(t, decisions, 2)
	assert.Equal(t, core.SavoryPatisserieTeam, decisions[0].From)
	assert.Equal(t, core.SweetPatisserieTeam, decisions[0].To)
	assert.Equal(t, 4, decisions[1].Rule)
	assert.Equal(t, core.SweetPatisserieTeam, decisions[1].From)
	assert.Equal(t, core.PasteTeam, decisions[1].To)

	workers := s.WorkersPerRole
	for _, d := range decisions {
		workers[d.From]--
		workers[d.To]++
	}

	for _, r := range core.ProductionRoles() {
		assert.GreaterOrEqual(t, workers[r], 1, r.String())
	}
}

func Test_Controller_Pass_MovesExactlyOneWorker(t *testing.T) {
	// arrange
	cfg := helper.GivenFastConfig()
	cfg.Chefs = 14
	logger, logSpy := helper.NewSpyLogger()
	l, err := ledger.New(cfg, ledger.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(l.Close)
	require.NoError(t, l.AdjustInventory(core.SweetPatisserie, 0, 3))
	require.NoError(t, l.AdjustInventory(core.SavoryPatisserie, 0, 5))
	controller := staffing.NewController(l, cfg, telemetry.Observer{Logger: logger})

	// act
	applied := controller.Pass(context.Background())

	// assert
	require.Len(t, applied, 1)
	assert.Equal(t, 1, l.Workers(core.SavoryPatisserieTeam))
	assert.Equal(t, 3, l.Workers(core.SweetPatisserieTeam))
	assert.Equal(t, 1, logSpy.CountLogs(slog.LevelInfo, "workers reassigned"))
	assert.Equal(t, 14, l.Snapshot().WorkersIn(core.Production))
}

func Test_Controller_Pass_LeavesSingleWorkerTeamsAlone(t *testing.T) {
	// arrange
	cfg := helper.GivenFastConfig()
	l, err := ledger.New(cfg)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	require.NoError(t, l.AdjustInventory(core.SweetPatisserie, 0, 3))
	require.NoError(t, l.AdjustInventory(core.SavoryPatisserie, 0, 5))
	controller := staffing.NewController(l, cfg, telemetry.Observer{})

	// act
	applied := controller.Pass(context.Background())

	// assert
	assert.Empty(t, applied)
	assert.Equal(t, 1, l.Workers(core.SavoryPatisserieTeam))
}

func Test_Controller_Pass_TwoRulesNeverDrainTheSameDonor(t *testing.T) {
	// arrange
	cfg := helper.GivenFastConfig()
	cfg.Chefs = 8
	tracingSpy := helper.NewTracingCollectorSpy()
	l, err := ledger.New(cfg)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	require.NoError(t, l.ReassignWorkers(context.Background(), core.PasteTeam, core.SavoryPatisserieTeam, 1, "arrange"))
	require.NoError(t, l.AdjustInventory(core.SavoryPatisserie, 0, 11))
	controller := staffing.NewController(l, cfg, telemetry.Observer{TracingCollector: tracingSpy})

	// act
	applied := controller.Pass(context.Background())

	// assert
	require.Len(t, applied, 2)
	for _, r := range core.ProductionRoles() {
		assert.GreaterOrEqual(t, l.Workers(r), 1, r.String())
	}
	assert.Equal(t, 1, l.Workers(core.SavoryPatisserieTeam))
	assert.Equal(t, 1, l.Workers(core.SweetPatisserieTeam))
	assert.Equal(t, 2, l.Workers(core.PasteTeam))
	assert.Equal(t, 8, l.Snapshot().WorkersIn(core.Production))

	require.True(t, tracingSpy.HasSpan(telemetry.SpanStaffingPass, telemetry.StatusOK))
	record := tracingSpy.GetSpanRecords()[0]
	assert.Equal(t, "2", record.EndAttributes[telemetry.SpanAttrDecisions])
	assert.Equal(t, "2", record.EndAttributes[telemetry.SpanAttrApplied])
}
