package simulation

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/pause"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
	"github.com/AntonStoeckl/bakery-simulation/bakery/sales"
	"github.com/AntonStoeckl/bakery-simulation/bakery/staffing"
	"github.com/AntonStoeckl/bakery-simulation/bakery/supervisor"
	"github.com/AntonStoeckl/bakery-simulation/bakery/workers"
)

var ErrNilRecorder = errors.New("event recorder must not be nil")
var ErrNilRunID = errors.New("run id must not be nil")
var ErrAlreadyRan = errors.New("a simulation runs only once")
var ErrSetupFailed = errors.New("setting up the simulation failed")

const (
	logMsgStarted = "simulation started"

	logAttrChefs      = "chefs"
	logAttrBakers     = "bakers"
	logAttrSellers    = "sellers"
	logAttrRestockers = "restockers"
	logAttrSeed       = "seed"
)

// Result is everything a finished run reports.
type Result struct {
	RunID         uuid.UUID
	Reason        core.StopReason
	Final         ledger.Snapshot
	SellersServed []int
	Outcomes      map[core.Outcome]int
	Spawned       int
	Skipped       int
}

type Simulation struct {
	cfg      config.Config
	runID    uuid.UUID
	seed     int64
	observer telemetry.Observer
	onStatus supervisor.StatusFunc
	ran      atomic.Bool
}

// New validates cfg and applies the options. An invalid cfg is a setup failure and nothing is started.
func New(cfg config.Config, options ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(ErrSetupFailed, err)
	}

	s := &Simulation{
		cfg:   cfg,
		runID: uuid.New(),
		seed:  time.Now().UnixNano(),
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, errors.Join(ErrSetupFailed, err)
		}
	}

	return s, nil
}

func (s *Simulation) RunID() uuid.UUID {
	return s.runID
}

// Run starts every task, blocks until a stop condition holds or ctx is done, and returns after the
// ordered shutdown finished.
func (s *Simulation) Run(ctx context.Context) (Result, error) {
	if !s.ran.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRan
	}

	l, err := ledger.New(
		s.cfg,
		ledger.WithLogger(s.observer.Logger),
		ledger.WithContextualLogger(s.observer.ContextualLogger),
		ledger.WithMetrics(s.observer.MetricsCollector),
		ledger.WithRecorder(s.observer.Recorder),
	)
	if err != nil {
		return Result{}, errors.Join(ErrSetupFailed, err)
	}

	sellers := make([]*sales.Seller, s.cfg.Sellers)
	tasks := make([]supervisor.Task, 0, s.cfg.Sellers+s.cfg.Chefs+s.cfg.Bakers+s.cfg.Restockers+2)

	for i := range sellers {
		sellers[i] = sales.NewSeller(i, l, s.cfg, s.rand(seedStrideSellers, i), s.observer)
		tasks = append(tasks, sellers[i].Run)
	}

	for slot := range s.cfg.Chefs {
		tasks = append(tasks, workers.NewProducer(l, s.cfg, slot, s.rand(seedStrideProducers, slot), s.observer).Run)
	}

	for slot := range s.cfg.Bakers {
		tasks = append(tasks, workers.NewFinisher(l, s.cfg, slot, s.rand(seedStrideFinishers, slot), s.observer).Run)
	}

	for i := range s.cfg.Restockers {
		tasks = append(tasks, workers.NewRestocker(l, s.cfg, s.rand(seedStrideRestockers, i), s.observer).Run)
	}

	generator := sales.NewGenerator(l, s.cfg, sellers, s.rand(seedGenerator, 0), s.observer)
	tasks = append(tasks, generator.Run, staffing.NewController(l, s.cfg, s.observer).Run)

	s.observer.Info(
		ctx,
		logMsgStarted,
		telemetry.LogAttrRunID, s.runID.String(),
		logAttrChefs, s.cfg.Chefs,
		logAttrBakers, s.cfg.Bakers,
		logAttrSellers, s.cfg.Sellers,
		logAttrRestockers, s.cfg.Restockers,
		logAttrSeed, s.seed,
	)

	outcome := supervisor.NewSupervisor(l, s.cfg, s.observer, s.onStatus).Run(ctx, tasks...)

	served := make([]int, len(sellers))
	for i, seller := range sellers {
		served[i] = seller.Served()
	}

	return Result{
		RunID:         s.runID,
		Reason:        outcome.Reason,
		Final:         outcome.Final,
		SellersServed: served,
		Outcomes:      generator.Outcomes(),
		Spawned:       generator.Spawned(),
		Skipped:       generator.Skipped(),
	}, nil
}

func (s *Simulation) rand(stride, i int) *rand.Rand {
	return pause.NewRand(s.seed + int64(stride) + int64(i))
}
