// Package oteladapters implements the journal and simulation observability interfaces on OpenTelemetry.
//
// The simulation wires them up when an OTLP endpoint is configured:
//   - MetricsCollector maps durations to histograms, increments to counters and values to gauges
//   - TracingCollector wraps a trace.Tracer
//   - SlogBridgeLogger and OTelLogger are contextual loggers with trace correlation
package oteladapters
