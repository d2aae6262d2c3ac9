// Package report builds the final summary of a run and stores it as JSON, locally or in S3.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
)

var (
	ErrMarshalingReportFailed = errors.New("marshaling the run report failed")
	ErrStoringReportFailed    = errors.New("storing the run report failed")
)

const keyPrefix = "bakery-runs/"

// Store persists a report body under a key.
type Store interface {
	Put(ctx context.Context, key string, body []byte) error
}

// JournalStats summarize what the journal recorder did.
type JournalStats struct {
	Engine   string `json:"engine"`
	Appended int64  `json:"appended"`
	Dropped  int64  `json:"dropped"`
	Failed   int64  `json:"failed"`
}

// Input is everything a run hands over for its report.
type Input struct {
	RunID         uuid.UUID
	Reason        core.StopReason
	Final         ledger.Snapshot
	SellersServed []int
	Outcomes      map[core.Outcome]int
	Journal       *JournalStats
	GeneratedAt   time.Time
}

type RunReport struct {
	RunID           string           `json:"run_id"`
	StopReason      string           `json:"stop_reason"`
	ElapsedSeconds  float64          `json:"elapsed_seconds"`
	Profit          float64          `json:"profit"`
	Refunded        float64          `json:"refunded"`
	Complaints      int              `json:"complaints"`
	Frustrated      int              `json:"frustrated"`
	MissingRequests int              `json:"missing_requests"`
	Fled            int              `json:"fled"`
	Served          int              `json:"served"`
	Arrived         int              `json:"arrived"`
	LowQuality      int              `json:"low_quality"`
	Inventory       map[string][]int `json:"inventory"`
	Produced        map[string]int   `json:"produced"`
	Sold            map[string]int   `json:"sold"`
	Supplies        map[string]int   `json:"supplies"`
	Staffing        map[string]int   `json:"staffing"`
	SellersServed   []int            `json:"sellers_served"`
	Outcomes        map[string]int   `json:"outcomes"`
	Journal         *JournalStats    `json:"journal,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// Build flattens the final snapshot into a report keyed by readable names.
func Build(in Input) RunReport {
	s := in.Final
	r := RunReport{
		RunID:           in.RunID.String(),
		StopReason:      string(in.Reason),
		ElapsedSeconds:  s.Elapsed.Seconds(),
		Profit:          s.Stats.Profit,
		Refunded:        s.Stats.Refunded,
		Complaints:      s.Stats.Complaints,
		Frustrated:      s.Stats.Frustrated,
		MissingRequests: s.Stats.MissingRequests,
		Fled:            s.Stats.Fled,
		Served:          s.Stats.Served,
		Arrived:         s.Stats.Arrived,
		LowQuality:      s.Stats.LowQuality,
		Inventory:       make(map[string][]int, core.NumItemKinds),
		Produced:        make(map[string]int, core.NumItemKinds),
		Sold:            make(map[string]int, core.NumItemKinds),
		Supplies:        make(map[string]int, core.NumSupplyKinds),
		Staffing:        make(map[string]int, core.NumRoles),
		SellersServed:   append([]int(nil), in.SellersServed...),
		Outcomes:        make(map[string]int, len(in.Outcomes)),
		Journal:         in.Journal,
		GeneratedAt:     in.GeneratedAt.UTC(),
	}

	for _, k := range core.ItemKinds() {
		r.Inventory[k.String()] = append([]int(nil), s.Inventory[k]...)
		r.Produced[k.String()] = s.Stats.Produced[k]
		r.Sold[k.String()] = s.Stats.Sold[k]
	}

	for k := range core.NumSupplyKinds {
		r.Supplies[core.SupplyKind(k).String()] = s.Supplies[k]
	}

	for role := range core.NumRoles {
		r.Staffing[core.Role(role).String()] = s.WorkersPerRole[role]
	}

	for outcome, n := range in.Outcomes {
		r.Outcomes[outcome.String()] = n
	}

	return r
}

// Key is where the report is stored.
func (r RunReport) Key() string {
	return keyPrefix + r.RunID + ".json"
}

func (r RunReport) Marshal() ([]byte, error) {
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Join(ErrMarshalingReportFailed, err)
	}

	return body, nil
}

// Save marshals the report and puts it into the store under its key.
func Save(ctx context.Context, store Store, r RunReport) error {
	body, err := r.Marshal()
	if err != nil {
		return err
	}

	if err := store.Put(ctx, r.Key(), body); err != nil {
		return errors.Join(ErrStoringReportFailed, err)
	}

	return nil
}
