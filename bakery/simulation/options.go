package simulation

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/supervisor"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

// Option defines a functional option for configuring a Simulation.
type Option func(*Simulation) error

// WithLogger sets the logger handed to every task.
//
// Debug level: production failures, seller rejections
// Info level: lifecycle, reassignments, stop reason
// Warn level: stuck sellers, journal drops
// Error level: journal failures.
func WithLogger(logger eventstore.Logger) Option {
	return func(s *Simulation) error {
		s.observer.Logger = logger
		return nil
	}
}

// WithContextualLogger sets a logger that receives the task context for trace correlation.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(s *Simulation) error {
		s.observer.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(s *Simulation) error {
		s.observer.MetricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(s *Simulation) error {
		s.observer.TracingCollector = collector
		return nil
	}
}

// WithRecorder sets where the domain events of the run go, usually a shell.Journal.
func WithRecorder(recorder core.EventRecorder) Option {
	return func(s *Simulation) error {
		if recorder == nil {
			return ErrNilRecorder
		}

		s.observer.Recorder = recorder

		return nil
	}
}

// WithSeed makes the random draws of every task reproducible.
func WithSeed(seed int64) Option {
	return func(s *Simulation) error {
		s.seed = seed
		return nil
	}
}

// WithRunID sets the run ID instead of generating one.
func WithRunID(runID uuid.UUID) Option {
	return func(s *Simulation) error {
		if runID == uuid.Nil {
			return ErrNilRunID
		}

		s.runID = runID

		return nil
	}
}

// WithStatus sets the callback that receives the snapshot of every supervisor poll.
func WithStatus(onStatus supervisor.StatusFunc) Option {
	return func(s *Simulation) error {
		s.onStatus = onStatus
		return nil
	}
}
