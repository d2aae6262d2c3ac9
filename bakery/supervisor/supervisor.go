// Package supervisor owns the stop conditions of a run and its orderly shutdown.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/internal/telemetry"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
)

const (
	logMsgStopping       = "simulation stopping"
	logMsgStopped        = "simulation stopped"
	logMsgShutdownSlow   = "tasks still running after shutdown signal"
	logAttrReason        = "reason"
	logAttrProfit        = "profit"
	shutdownWarnAfterMul = 2
)

// Limits are the five stop thresholds.
type Limits struct {
	MaxComplaints      int
	MaxFrustrated      int
	MaxMissingRequests int
	ProfitThreshold    float64
	Duration           time.Duration
}

func LimitsOf(cfg config.Config) Limits {
	return Limits{
		MaxComplaints:      cfg.MaxComplaints,
		MaxFrustrated:      cfg.MaxFrustrated,
		MaxMissingRequests: cfg.MaxMissingRequests,
		ProfitThreshold:    cfg.ProfitThreshold,
		Duration:           cfg.Duration(),
	}
}

// EvaluateStop checks the conditions in a fixed order and returns the first one that holds.
func EvaluateStop(s ledger.Snapshot, limits Limits) (core.StopReason, bool) {
	switch {
	case s.Stats.Complaints >= limits.MaxComplaints:
		return core.StopMaxComplaints, true
	case s.Stats.Frustrated >= limits.MaxFrustrated:
		return core.StopMaxFrustrated, true
	case s.Stats.MissingRequests >= limits.MaxMissingRequests:
		return core.StopMaxMissingRequests, true
	case s.Stats.Profit >= limits.ProfitThreshold:
		return core.StopProfitReached, true
	case s.Elapsed >= limits.Duration:
		return core.StopTimeElapsed, true
	default:
		return core.StopNone, false
	}
}

// Task is a simulation loop. It must return soon after its context is done.
type Task func(ctx context.Context)

// StatusFunc receives the snapshot of every poll. It runs on the supervisor goroutine.
type StatusFunc func(s ledger.Snapshot)

// Result is what a finished run leaves behind.
type Result struct {
	Reason core.StopReason
	Final  ledger.Snapshot
}

type Supervisor struct {
	ledger   *ledger.Ledger
	cfg      config.Config
	limits   Limits
	observer telemetry.Observer
	onStatus StatusFunc

	tasks      sync.WaitGroup
	cancel     context.CancelFunc
	shutdownMu sync.Mutex
	result     *Result
}

func NewSupervisor(l *ledger.Ledger, cfg config.Config, observer telemetry.Observer, onStatus StatusFunc) *Supervisor {
	return &Supervisor{
		ledger:   l,
		cfg:      cfg,
		limits:   LimitsOf(cfg),
		observer: observer,
		onStatus: onStatus,
	}
}

// Run starts the tasks, polls the stop conditions every control interval and shuts down once one holds
// or ctx is done. A canceled ctx ends the run with StopCanceled.
func (s *Supervisor) Run(ctx context.Context, tasks ...Task) Result {
	taskCtx, cancel := context.WithCancel(ctx)

	s.shutdownMu.Lock()
	if s.result != nil {
		s.shutdownMu.Unlock()
		cancel()

		return *s.result
	}
	s.cancel = cancel

	for _, task := range tasks {
		s.tasks.Add(1)

		go func() {
			defer s.tasks.Done()
			task(taskCtx)
		}()
	}
	s.shutdownMu.Unlock()

	ticker := time.NewTicker(s.cfg.Units(s.cfg.Timings.ControlInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.Shutdown(context.WithoutCancel(ctx), core.StopCanceled)

		case <-ticker.C:
			if reason, stop := s.Poll(ctx); stop {
				return s.Shutdown(ctx, reason)
			}
		}
	}
}

// Poll takes one snapshot, reports it and evaluates the stop conditions on it.
// A ledger stopped by someone else counts as canceled.
func (s *Supervisor) Poll(ctx context.Context) (core.StopReason, bool) {
	snapshot := s.ledger.Snapshot()

	s.observer.Value(ctx, telemetry.MetricProfit, snapshot.Stats.Profit, nil)
	s.observer.Value(ctx, telemetry.MetricLiveCustomers, float64(snapshot.LiveCustomers), nil)

	if s.onStatus != nil {
		s.onStatus(snapshot)
	}

	if !snapshot.Running {
		return core.StopCanceled, true
	}

	return EvaluateStop(snapshot, s.limits)
}

// Shutdown clears the running flag, cancels the tasks, signals every tracked customer, waits for all of
// them and then releases the ledger. Only the first call does the work; later calls return its result.
func (s *Supervisor) Shutdown(ctx context.Context, reason core.StopReason) Result {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()

	if s.result != nil {
		return *s.result
	}

	ctx, span := s.observer.StartSpan(ctx, telemetry.SpanSupervisorStop, map[string]string{telemetry.SpanAttrStopReason: string(reason)})

	s.ledger.Stop()
	s.observer.Info(ctx, logMsgStopping, logAttrReason, string(reason))

	if s.cancel != nil {
		s.cancel()
	}

	s.ledger.SignalCustomers()
	s.awaitTasks(ctx)

	final := s.ledger.Snapshot()
	s.ledger.Close()

	s.observer.Record(core.BuildSimulationStopped(
		reason,
		final.Stats.Profit,
		final.Stats.Complaints,
		final.Stats.Frustrated,
		final.Stats.MissingRequests,
		final.Stats.Arrived,
		final.Elapsed,
		time.Now(),
	))

	s.observer.Info(ctx, logMsgStopped,
		logAttrReason, string(reason),
		logAttrProfit, final.Stats.Profit,
		telemetry.LogAttrElapsed, final.Elapsed.String(),
	)

	span.Finish(telemetry.StatusOK, nil)

	s.result = &Result{Reason: reason, Final: final}

	return *s.result
}

// awaitTasks waits for every task. It warns once if they take longer than a few control intervals.
func (s *Supervisor) awaitTasks(ctx context.Context) {
	done := make(chan struct{})

	go func() {
		s.tasks.Wait()
		close(done)
	}()

	slow := time.NewTimer(shutdownWarnAfterMul * s.cfg.Units(s.cfg.Timings.ControlInterval))
	defer slow.Stop()

	select {
	case <-done:
		return
	case <-slow.C:
		s.observer.Warn(ctx, logMsgShutdownSlow)
	}

	<-done
}
