package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/shell"
	shellconfig "github.com/AntonStoeckl/bakery-simulation/bakery/shell/config"
)

func givenSQLiteJournal(t *testing.T, path string, runID uuid.UUID, events ...core.DomainEvent) {
	t.Helper()

	ctx := context.Background()
	engine, closeEngine, err := shellconfig.OpenJournal(ctx, shellconfig.JournalSettings{Kind: shellconfig.JournalSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer closeEngine()

	for _, event := range events {
		storableEvent, err := shell.StorableEventFrom(event, shell.BuildRunEventMetadata(runID))
		require.NoError(t, err)
		require.NoError(t, engine.Append(ctx, storableEvent))
	}
}

func Test_Run_RejectsJournalsThatDoNotOutliveARun(t *testing.T) {
	_, err := run(context.Background(), Config{Journal: "memory"})

	assert.ErrorIs(t, err, errNotPersistent)
}

func Test_Run_CountsInconsistentRuns(t *testing.T) {
	// arrange
	t.Setenv("NO_COLOR", "1")
	path := filepath.Join(t.TempDir(), "journal.db")
	now := time.Now()
	consistent, broken := uuid.New(), uuid.New()

	givenSQLiteJournal(t, path, consistent,
		core.BuildItemSold(uuid.New(), uuid.New(), core.Cake, 0, 1, 1, 15, now),
		core.BuildSimulationStopped(core.StopTimeElapsed, 15, 0, 0, 0, 1, time.Minute, now),
	)
	givenSQLiteJournal(t, path, broken,
		core.BuildSimulationStopped(core.StopMaxComplaints, 0, 3, 0, 0, 3, time.Minute, now),
	)

	// act
	inconsistent, err := run(context.Background(), Config{Journal: "sqlite", SQLitePath: path})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, inconsistent)
}

func Test_Run_FiltersByRunID(t *testing.T) {
	// arrange
	t.Setenv("NO_COLOR", "1")
	path := filepath.Join(t.TempDir(), "journal.db")
	now := time.Now()
	wanted, other := uuid.New(), uuid.New()

	givenSQLiteJournal(t, path, wanted, core.BuildSimulationStopped(core.StopTimeElapsed, 0, 0, 0, 0, 0, time.Minute, now))
	givenSQLiteJournal(t, path, other, core.BuildSimulationStopped(core.StopMaxComplaints, 0, 3, 0, 0, 3, time.Minute, now))

	// act
	inconsistent, err := run(context.Background(), Config{Journal: "sqlite", SQLitePath: path, RunID: wanted.String()})

	// assert
	require.NoError(t, err)
	assert.Zero(t, inconsistent)
}
