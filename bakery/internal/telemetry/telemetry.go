// Package telemetry carries the optional logging, metrics, tracing and journal collaborators of the
// simulation tasks. A zero Observer is valid and records nothing.
package telemetry

import (
	"context"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

const (
	MetricItemsProduced      = "bakery_items_produced_total"
	MetricItemsFinished      = "bakery_items_finished_total"
	MetricItemsSold          = "bakery_items_sold_total"
	MetricRevenue            = "bakery_revenue"
	MetricSuppliesPurchased  = "bakery_supplies_purchased_total"
	MetricCustomerOutcomes   = "bakery_customer_outcomes_total"
	MetricCustomerWait       = "bakery_customer_wait_seconds"
	MetricServiceDuration    = "bakery_service_duration_seconds"
	MetricSellerRejections   = "bakery_seller_rejections_total"
	MetricSellerResets       = "bakery_seller_resets_total"
	MetricReassignments      = "bakery_reassignments_total"
	MetricProductionFailures = "bakery_production_failures_total"
	MetricProfit             = "bakery_profit"
	MetricLiveCustomers      = "bakery_live_customers"

	SpanCustomerVisit  = "bakery.customer_visit"
	SpanStaffingPass   = "bakery.staffing_pass"
	SpanSupervisorStop = "bakery.supervisor_stop"

	SpanAttrDecisions  = "bakery.staffing.decisions"
	SpanAttrApplied    = "bakery.staffing.applied"
	SpanAttrStopReason = "bakery.stop_reason"

	LabelRole      = "role"
	LabelItemKind  = "item_kind"
	LabelSupply    = "supply_kind"
	LabelOutcome   = "outcome"
	LabelUrgent    = "urgent"
	LabelFromRole  = "from_role"
	LabelToRole    = "to_role"
	LabelStatus    = "status"
	StatusOK       = "ok"
	StatusError    = "error"
	LogAttrError   = "error"
	LogAttrRunID   = "run_id"
	LogAttrElapsed = "elapsed"
)

type Observer struct {
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	MetricsCollector eventstore.MetricsCollector
	TracingCollector eventstore.TracingCollector
	Recorder         core.EventRecorder
}

func (o Observer) Debug(ctx context.Context, msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, msg, args...)
	}
}

func (o Observer) Info(ctx context.Context, msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Info(msg, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (o Observer) Warn(ctx context.Context, msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Warn(msg, args...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, msg, args...)
	}
}

func (o Observer) Error(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{LogAttrError, err.Error()}, args...)

	if o.Logger != nil {
		o.Logger.Error(msg, allArgs...)
	}

	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// Count increments a counter.
func (o Observer) Count(ctx context.Context, metric string, labels map[string]string) {
	if o.MetricsCollector == nil {
		return
	}

	if contextual, ok := o.MetricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	o.MetricsCollector.IncrementCounter(metric, labels)
}

// Value records a gauge-like value.
func (o Observer) Value(ctx context.Context, metric string, value float64, labels map[string]string) {
	if o.MetricsCollector == nil {
		return
	}

	if contextual, ok := o.MetricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	o.MetricsCollector.RecordValue(metric, value, labels)
}

func (o Observer) Duration(ctx context.Context, metric string, d time.Duration, labels map[string]string) {
	if o.MetricsCollector == nil {
		return
	}

	if contextual, ok := o.MetricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	o.MetricsCollector.RecordDuration(metric, d, labels)
}

// Record forwards a domain event to the journal recorder, if any.
func (o Observer) Record(event core.DomainEvent) {
	if o.Recorder != nil {
		o.Recorder.Record(event)
	}
}

// Span is a started span. A Span from an Observer without tracing does nothing.
type Span struct {
	tracing eventstore.TracingCollector
	span    eventstore.SpanContext
}

// StartSpan starts a span if a TracingCollector is configured.
func (o Observer) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, Span) {
	if o.TracingCollector == nil {
		return ctx, Span{}
	}

	spanCtx, span := o.TracingCollector.StartSpan(ctx, name, attrs)

	return spanCtx, Span{tracing: o.TracingCollector, span: span}
}

func (s Span) AddAttribute(key, value string) {
	if s.span != nil {
		s.span.AddAttribute(key, value)
	}
}

func (s Span) Finish(status string, attrs map[string]string) {
	if s.span == nil {
		return
	}

	s.span.SetStatus(status)
	s.tracing.FinishSpan(s.span, status, attrs)
}
