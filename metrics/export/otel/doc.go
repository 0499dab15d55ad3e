// Package otel exposes Engine metrics through an OpenTelemetry meter.
//
// Each counter becomes an Int64ObservableCounter and each latency bucket an
// Int64ObservableGauge holding its cumulative count. Values are read from
// the Engine snapshot inside a single registered callback.
package otel
