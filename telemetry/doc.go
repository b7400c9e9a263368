// Package telemetry wires OpenTelemetry tracing and metrics for the
// caching layer.
//
// It is pure instrumentation setup: exporter construction and provider
// lifecycle, no cache logic. The store consumes the resulting meter and
// tracer.
package telemetry
