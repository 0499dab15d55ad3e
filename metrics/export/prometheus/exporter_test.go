package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goIdentity "github.com/MrEthical07/goIdentity"
)

type fakeSource struct {
	snapshot goIdentity.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goIdentity.MetricsSnapshot { return f.snapshot }
func (f fakeSource) EventsDropped() uint64                       { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters:   map[goIdentity.MetricID]uint64{},
			Histograms: map[goIdentity.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{
				goIdentity.MetricLoginSuccess: 7,
			},
			Histograms: map[goIdentity.MetricID][]uint64{
				goIdentity.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "identity_login_success_total 7") {
		t.Fatalf("expected login_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "identity_validate_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "identity_validate_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "identity_events_dropped_total 2") {
		t.Fatalf("expected events dropped counter in output, got:\n%s", out)
	}
}

type healthySource struct {
	fakeSource
	status goIdentity.HealthStatus
}

func (h healthySource) Health(context.Context) goIdentity.HealthStatus { return h.status }

func TestRenderReportsSessionBackend(t *testing.T) {
	disabled := fakeSource{snapshot: goIdentity.MetricsSnapshot{
		Counters:   map[goIdentity.MetricID]uint64{},
		Histograms: map[goIdentity.MetricID][]uint64{},
	}}

	out := NewPrometheusExporterFromSource(healthySource{
		fakeSource: disabled,
		status: goIdentity.HealthStatus{
			Backend:          goIdentity.BackendRedis,
			BackendAvailable: true,
			BackendLatency:   1500 * time.Microsecond,
		},
	}).Render()
	if !strings.Contains(out, "# TYPE identity_session_backend_up gauge") {
		t.Fatalf("expected backend gauge family, got:\n%s", out)
	}
	if !strings.Contains(out, `identity_session_backend_up{backend="redis"} 1`) {
		t.Fatalf("expected backend up sample, got:\n%s", out)
	}
	if !strings.Contains(out, `identity_session_backend_ping_seconds{backend="redis"} 0.0015`) {
		t.Fatalf("expected backend latency sample, got:\n%s", out)
	}
	if strings.Contains(out, "identity_login_success_total") {
		t.Fatalf("expected counters omitted while metrics are disabled, got:\n%s", out)
	}

	out = NewPrometheusExporterFromSource(healthySource{
		fakeSource: disabled,
		status:     goIdentity.HealthStatus{Backend: goIdentity.BackendRedis},
	}).Render()
	if !strings.Contains(out, `identity_session_backend_up{backend="redis"} 0`) {
		t.Fatalf("expected backend down sample, got:\n%s", out)
	}
}

func TestRenderEscapesHelpAndKeepsFamilyOrder(t *testing.T) {
	var out exposition
	out.counter("identity_test_total", "line one\nback\\slash", 3)

	want := "# HELP identity_test_total line one\\nback\\\\slash\n" +
		"# TYPE identity_test_total counter\n" +
		"identity_test_total 3\n"
	if got := out.String(); got != want {
		t.Fatalf("unexpected exposition:\n%q\nwant:\n%q", got, want)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters:   map[goIdentity.MetricID]uint64{goIdentity.MetricLoginSuccess: 1},
			Histograms: map[goIdentity.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goIdentity.MetricsSnapshot{
			Counters: map[goIdentity.MetricID]uint64{
				goIdentity.MetricLoginSuccess:        1000,
				goIdentity.MetricLoginFailure:        40,
				goIdentity.MetricRefreshSuccess:      800,
				goIdentity.MetricRefreshFailure:      10,
				goIdentity.MetricSessionCreated:      800,
				goIdentity.MetricSessionInvalidated:  20,
				goIdentity.MetricVerificationFailure: 3,
			},
			Histograms: map[goIdentity.MetricID][]uint64{
				goIdentity.MetricValidateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
