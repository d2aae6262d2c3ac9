package ledger

import (
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

// Option defines a functional option for configuring a Ledger.
type Option func(*Ledger) error

// WithLogger sets the logger for reassignment decisions and rejections.
func WithLogger(logger eventstore.Logger) Option {
	return func(l *Ledger) error {
		l.observer.Logger = logger

		return nil
	}
}

// WithContextualLogger sets a context-aware logger.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(l *Ledger) error {
		l.observer.ContextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(l *Ledger) error {
		l.observer.MetricsCollector = collector

		return nil
	}
}

// WithRecorder sets where WorkersReassigned events go.
func WithRecorder(recorder core.EventRecorder) Option {
	return func(l *Ledger) error {
		l.observer.Recorder = recorder

		return nil
	}
}
