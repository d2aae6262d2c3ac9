// Package audit rebuilds the totals of finished runs from the event journal and compares them with what
// each run reported when it stopped. Dropped or failed journal appends show up as mismatches.
package audit

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/shell"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

var ErrQueryingJournalFailed = errors.New("querying the journal failed")
var ErrProjectingRunFailed = errors.New("projecting a run from the journal failed")

const profitTolerance = 0.005

// Totals are the figures a run can be checked on.
type Totals struct {
	Profit       float64
	Complaints   int
	Frustrated   int
	MissingItems int
}

// Mismatch is one figure where the journal and the stop report disagree.
type Mismatch struct {
	Field     string
	Projected float64
	Reported  float64
}

// RunAudit is the journal view of one run, keyed by the correlation ID all its events share.
type RunAudit struct {
	RunID        string
	Events       int
	EventsByType map[string]int
	UnitsSold    int
	Customers    int
	FirstEvent   time.Time
	LastEvent    time.Time
	Projected    Totals
	Stopped      *core.SimulationStopped
}

// Complete reports whether the journal holds the run's SimulationStopped event.
func (r RunAudit) Complete() bool {
	return r.Stopped != nil
}

// Mismatches compares the projected totals with the stop report. An incomplete run has none.
func (r RunAudit) Mismatches() []Mismatch {
	if r.Stopped == nil {
		return nil
	}

	var mismatches []Mismatch

	if math.Abs(r.Projected.Profit-r.Stopped.Profit) > profitTolerance {
		mismatches = append(mismatches, Mismatch{Field: "profit", Projected: r.Projected.Profit, Reported: r.Stopped.Profit})
	}

	counts := []struct {
		field     string
		projected int
		reported  int
	}{
		{"complaints", r.Projected.Complaints, r.Stopped.Complaints},
		{"frustrated", r.Projected.Frustrated, r.Stopped.Frustrated},
		{"missing_items", r.Projected.MissingItems, r.Stopped.MissingItems},
	}

	for _, c := range counts {
		if c.projected != c.reported {
			mismatches = append(mismatches, Mismatch{Field: c.field, Projected: float64(c.projected), Reported: float64(c.reported)})
		}
	}

	return mismatches
}

// Load queries the journal, preferring a replica, and projects every run found.
func Load(ctx context.Context, querier eventstore.Querier, filter eventstore.Filter) ([]RunAudit, error) {
	storableEvents, err := querier.Query(eventstore.WithEventualConsistency(ctx), filter)
	if err != nil {
		return nil, errors.Join(ErrQueryingJournalFailed, err)
	}

	return Project(storableEvents)
}

// Project groups the events by run and folds each group into a RunAudit, ordered by first event.
func Project(storableEvents eventstore.StorableEvents) ([]RunAudit, error) {
	runs := make(map[string]*RunAudit)

	for _, storableEvent := range storableEvents {
		metadata, err := shell.EventMetadataFrom(storableEvent)
		if err != nil {
			return nil, errors.Join(ErrProjectingRunFailed, err)
		}

		event, err := shell.DomainEventFrom(storableEvent)
		if err != nil {
			return nil, errors.Join(ErrProjectingRunFailed, err)
		}

		run, found := runs[metadata.CorrelationID]
		if !found {
			run = &RunAudit{RunID: metadata.CorrelationID, EventsByType: make(map[string]int)}
			runs[metadata.CorrelationID] = run
		}

		run.apply(event, storableEvent.OccurredAt)
	}

	audits := make([]RunAudit, 0, len(runs))
	for _, run := range runs {
		audits = append(audits, *run)
	}

	slices.SortFunc(audits, func(a, b RunAudit) int {
		return a.FirstEvent.Compare(b.FirstEvent)
	})

	return audits, nil
}

func (r *RunAudit) apply(event core.DomainEvent, occurredAt time.Time) {
	r.Events++
	r.EventsByType[event.EventType()]++

	if r.FirstEvent.IsZero() || occurredAt.Before(r.FirstEvent) {
		r.FirstEvent = occurredAt
	}

	if occurredAt.After(r.LastEvent) {
		r.LastEvent = occurredAt
	}

	switch e := event.(type) {
	case core.ItemSold:
		r.Projected.Profit += e.Amount
		r.UnitsSold += e.Quantity

	case core.CustomerComplained:
		r.Projected.Profit -= e.RefundedAmount
		r.Projected.Complaints++

	case core.CustomerLeft:
		r.Customers++

		switch e.Outcome {
		case core.LeavingFrustrated.String():
			r.Projected.Frustrated++
		case core.LeavingMissingItems.String():
			r.Projected.MissingItems++
		}

	case core.SimulationStopped:
		r.Stopped = &e
	}
}
