package goIdentity

import (
	"testing"
	"time"
)

// loginOutcomes lists the counters one call records, per outcome.
var loginOutcomes = [...][]MetricID{
	{MetricSessionCreated, MetricLoginSuccess},
	{MetricInvalidCredentials, MetricLoginFailure},
	{MetricMFARequired},
	{MetricLoginBlocked, MetricLoginFailure},
}

var refreshOutcomes = [...][]MetricID{
	{MetricRefreshSuccess},
	{MetricRefreshSuccess},
	{MetricRefreshSuccess},
	{MetricRefreshFailure, MetricRefreshReuseDetected, MetricSessionInvalidated},
}

func newMetricsEngine(cfg MetricsConfig) *Engine {
	return &Engine{metrics: NewMetrics(cfg)}
}

func BenchmarkEngineMetricsLoginSuccess(b *testing.B) {
	e := newMetricsEngine(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		e.metricInc(MetricSessionCreated)
		e.metricInc(MetricLoginSuccess)
	}
}

func BenchmarkEngineMetricsDisabled(b *testing.B) {
	for _, tc := range []struct {
		name string
		e    *Engine
	}{
		{"off", newMetricsEngine(MetricsConfig{})},
		{"nil", &Engine{}},
	} {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					tc.e.metricInc(MetricLoginSuccess)
				}
			})
		})
	}
}

func BenchmarkEngineMetricsLoginTraffic(b *testing.B) {
	e := newMetricsEngine(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			for _, id := range loginOutcomes[n%len(loginOutcomes)] {
				e.metricInc(id)
			}
			n++
		}
	})
}

func BenchmarkEngineMetricsRefreshTraffic(b *testing.B) {
	e := newMetricsEngine(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			for _, id := range refreshOutcomes[n%len(refreshOutcomes)] {
				e.metricInc(id)
			}
			n++
		}
	})
}

// Same timing wrapper as ValidateAccess.
func BenchmarkEngineMetricsValidateLatency(b *testing.B) {
	e := newMetricsEngine(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if e.metrics.LatencyEnabled() {
				start := time.Now()
				e.metrics.Observe(MetricValidateLatency, time.Since(start))
			}
		}
	})
}

func BenchmarkEngineMetricsSnapshotDuringLogins(b *testing.B) {
	e := newMetricsEngine(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				e.metricInc(MetricLoginSuccess)
				e.metrics.Observe(MetricValidateLatency, 7*time.Millisecond)
			}
		}
	}()
	defer close(done)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.MetricsSnapshot()
	}
}
