// Package otel provides OpenTelemetry metric exporter bindings for
// memberauth counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// counter and Int64ObservableGauge per histogram bucket. The exporter does
// not own the MeterProvider; callers supply the Meter.
package otel
