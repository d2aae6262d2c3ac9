package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/promadapters"
)

var metricDescriptions = map[string]string{
	"bakery_items_produced_total":          "Units created by the production roles",
	"bakery_items_finished_total":          "Units completed by the finishing roles",
	"bakery_items_sold_total":              "Units sold to customers",
	"bakery_revenue":                       "Revenue of the latest committed sale",
	"bakery_customer_outcomes_total":       "Customer visits by outcome",
	"bakery_profit":                        "Profit at the latest supervisor poll",
	"bakery_live_customers":                "Customers inside the shop at the latest supervisor poll",
	"bakery_reassignments_total":           "Workers moved between production roles",
	"bakery_journal_events_appended_total": "Domain events appended to the journal",
	"bakery_journal_events_dropped_total":  "Domain events dropped because the journal buffer was full",
}

// metricsServer serves a private Prometheus registry.
type metricsServer struct {
	server    *http.Server
	collector *promadapters.MetricsCollector
}

func startMetricsServer(addr string) *metricsServer {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	s := &metricsServer{
		server:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		collector: promadapters.NewMetricsCollector(registry, promadapters.WithDescriptions(metricDescriptions)),
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("❌ Metrics server failed: %v", err)
		}
	}()

	return s
}

func (s *metricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// fanoutMetrics records into several collectors. Contextual collectors get the context.
type fanoutMetrics []eventstore.MetricsCollector

// combineMetrics drops nil collectors and avoids the fan-out for a single one.
func combineMetrics(all ...eventstore.MetricsCollector) eventstore.MetricsCollector {
	var present fanoutMetrics

	for _, c := range all {
		if c != nil {
			present = append(present, c)
		}
	}

	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	default:
		return present
	}
}

func (f fanoutMetrics) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	for _, c := range f {
		c.RecordDuration(metric, duration, labels)
	}
}

func (f fanoutMetrics) IncrementCounter(metric string, labels map[string]string) {
	for _, c := range f {
		c.IncrementCounter(metric, labels)
	}
}

func (f fanoutMetrics) RecordValue(metric string, value float64, labels map[string]string) {
	for _, c := range f {
		c.RecordValue(metric, value, labels)
	}
}

func (f fanoutMetrics) RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	for _, c := range f {
		if contextual, ok := c.(eventstore.ContextualMetricsCollector); ok {
			contextual.RecordDurationContext(ctx, metric, duration, labels)
			continue
		}

		c.RecordDuration(metric, duration, labels)
	}
}

func (f fanoutMetrics) IncrementCounterContext(ctx context.Context, metric string, labels map[string]string) {
	for _, c := range f {
		if contextual, ok := c.(eventstore.ContextualMetricsCollector); ok {
			contextual.IncrementCounterContext(ctx, metric, labels)
			continue
		}

		c.IncrementCounter(metric, labels)
	}
}

func (f fanoutMetrics) RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string) {
	for _, c := range f {
		if contextual, ok := c.(eventstore.ContextualMetricsCollector); ok {
			contextual.RecordValueContext(ctx, metric, value, labels)
			continue
		}

		c.RecordValue(metric, value, labels)
	}
}
