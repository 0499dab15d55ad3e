// Package prometheus renders Engine counters and the ValidateAccess latency
// histogram in Prometheus text exposition format.
//
// Counters are named identity_*_total and the histogram is
// identity_validate_latency_seconds. Nothing is registered globally;
// callers mount Handler where they serve metrics.
package prometheus
