package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/bakery/audit"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/shell"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/memoryengine"
)

func givenRunEvents(t *testing.T, runID uuid.UUID, events ...core.DomainEvent) eventstore.StorableEvents {
	t.Helper()

	storableEvents := make(eventstore.StorableEvents, 0, len(events))
	for _, event := range events {
		storableEvent, err := shell.StorableEventFrom(event, shell.BuildRunEventMetadata(runID))
		require.NoError(t, err)

		storableEvents = append(storableEvents, storableEvent)
	}

	return storableEvents
}

func givenTrade(start time.Time) []core.DomainEvent {
	customer := uuid.New()
	seller := uuid.New()

	return []core.DomainEvent{
		core.BuildItemSold(customer, seller, core.Cake, 0, 2, 2, 15, start),
		core.BuildCustomerLeft(customer, core.LeavingSatisfied, core.Cake, 0, 2, time.Second, start.Add(time.Second)),
		core.BuildItemSold(uuid.New(), seller, core.Bread, 1, 1, 1, 2.5, start.Add(2*time.Second)),
		core.BuildCustomerComplained(uuid.New(), core.Bread, 1, 2.5, start.Add(3*time.Second)),
		core.BuildCustomerLeft(uuid.New(), core.LeavingFrustrated, core.Sweets, 0, 1, time.Minute, start.Add(4*time.Second)),
		core.BuildCustomerLeft(uuid.New(), core.LeavingMissingItems, core.Paste, 0, 3, time.Second, start.Add(5*time.Second)),
	}
}

func Test_Project_ConsistentRunHasNoMismatches(t *testing.T) {
	// arrange
	runID := uuid.New()
	start := time.Now()
	events := append(givenTrade(start),
		core.BuildSimulationStopped(core.StopTimeElapsed, 30, 1, 1, 1, 4, time.Minute, start.Add(time.Minute)))

	// act
	audits, err := audit.Project(givenRunEvents(t, runID, events...))

	// assert
	require.NoError(t, err)
	require.Len(t, audits, 1)

	run := audits[0]
	assert.Equal(t, runID.String(), run.RunID)
	assert.True(t, run.Complete())
	assert.Equal(t, 7, run.Events)
	assert.Equal(t, 2, run.EventsByType[core.ItemSoldEventType])
	assert.Equal(t, 3, run.UnitsSold)
	assert.Equal(t, 3, run.Customers)
	assert.InDelta(t, 30.0, run.Projected.Profit, 0.0001)
	assert.Equal(t, audit.Totals{Profit: run.Projected.Profit, Complaints: 1, Frustrated: 1, MissingItems: 1}, run.Projected)
	assert.Empty(t, run.Mismatches())
}

func Test_Project_ReportsLostEventsAsMismatches(t *testing.T) {
	// arrange
	runID := uuid.New()
	start := time.Now()
	trade := givenTrade(start)
	withoutComplaint := append(trade[:3:3], trade[4:]...)
	events := append(withoutComplaint,
		core.BuildSimulationStopped(core.StopMaxComplaints, 30, 1, 1, 1, 4, time.Minute, start.Add(time.Minute)))

	// act
	audits, err := audit.Project(givenRunEvents(t, runID, events...))

	// assert
	require.NoError(t, err)
	require.Len(t, audits, 1)

	fields := make([]string, 0)
	for _, m := range audits[0].Mismatches() {
		fields = append(fields, m.Field)
	}

	assert.Equal(t, []string{"profit", "complaints"}, fields)
}

func Test_Project_SeparatesRunsAndOrdersThemByFirstEvent(t *testing.T) {
	// arrange
	earlier, later := uuid.New(), uuid.New()
	start := time.Now()

	storableEvents := append(
		givenRunEvents(t, later, givenTrade(start.Add(time.Hour))...),
		givenRunEvents(t, earlier, givenTrade(start)...)...,
	)

	// act
	audits, err := audit.Project(storableEvents)

	// assert
	require.NoError(t, err)
	require.Len(t, audits, 2)
	assert.Equal(t, earlier.String(), audits[0].RunID)
	assert.Equal(t, later.String(), audits[1].RunID)
	assert.False(t, audits[0].Complete())
	assert.Nil(t, audits[0].Mismatches())
}

func Test_Project_FailsOnUnknownEventType(t *testing.T) {
	// arrange
	metadata, err := json.Marshal(shell.BuildRunEventMetadata(uuid.New()))
	require.NoError(t, err)

	storableEvent, err := eventstore.BuildStorableEvent("OvenExploded", time.Now(), []byte(`{}`), metadata)
	require.NoError(t, err)

	// act
	_, err = audit.Project(eventstore.StorableEvents{storableEvent})

	// assert
	assert.ErrorIs(t, err, audit.ErrProjectingRunFailed)
	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventUnknownEventType)
}

func Test_Load_QueriesTheJournal(t *testing.T) {
	// arrange
	ctx := context.Background()
	engine, err := memoryengine.NewEventStore()
	require.NoError(t, err)

	runID := uuid.New()
	storableEvents := givenRunEvents(t, runID, givenTrade(time.Now())...)
	require.NoError(t, engine.Append(ctx, storableEvents[0], storableEvents[1:]...))

	filter := eventstore.BuildEventFilter().AnyEventTypeOf(core.ItemSoldEventType).Finalize()

	// act
	audits, err := audit.Load(ctx, engine, filter)

	// assert
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, 2, audits[0].Events)
}
