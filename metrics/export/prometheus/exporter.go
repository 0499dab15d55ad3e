package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goIdentity.MetricsSnapshot
	EventsDropped() uint64
}

// healthSource is implemented by *goIdentity.Engine.
type healthSource interface {
	Health(ctx context.Context) goIdentity.HealthStatus
}

// PrometheusExporter renders Engine counters, the ValidateAccess latency
// histogram and, for sources that report it, session backend health in
// the Prometheus text format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter reads from engine.
func NewPrometheusExporter(engine *goIdentity.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource reads from any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves the exposition; backend pings use the request context.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.RenderContext(r.Context())))
	})
}

// Render is RenderContext with a background context.
func (p *PrometheusExporter) Render() string {
	return p.RenderContext(context.Background())
}

// RenderContext returns the exposition text. Counters and the histogram
// are omitted when Engine metrics are disabled and no event was dropped;
// backend gauges are written whenever the source reports health.
func (p *PrometheusExporter) RenderContext(ctx context.Context) string {
	if p == nil || p.source == nil {
		return ""
	}

	var out exposition
	out.Grow(8192)

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.EventsDropped()
	if len(snapshot.Counters) > 0 || len(snapshot.Histograms) > 0 || dropped > 0 {
		for _, def := range internaldefs.CounterDefs {
			out.counter(def.Name, def.Help, snapshot.Counters[def.ID])
		}
		for _, def := range internaldefs.HistogramDefs {
			buckets := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
			out.histogram(def.Name, def.Help, buckets)
		}
		out.counter(internaldefs.EventsDroppedName, internaldefs.EventsDroppedHelp, dropped)
	}

	if hs, ok := p.source.(healthSource); ok {
		out.backend(hs.Health(ctx))
	}
	return out.String()
}

type exposition struct {
	strings.Builder
}

func (e *exposition) family(name, help, kind string) {
	help = strings.ReplaceAll(help, `\`, `\\`)
	help = strings.ReplaceAll(help, "\n", `\n`)
	e.WriteString("# HELP " + name + " " + help + "\n")
	e.WriteString("# TYPE " + name + " " + kind + "\n")
}

func (e *exposition) sample(name, labels, value string) {
	e.WriteString(name)
	if labels != "" {
		e.WriteString("{" + labels + "}")
	}
	e.WriteString(" " + value + "\n")
}

func (e *exposition) counter(name, help string, value uint64) {
	e.family(name, help, "counter")
	e.sample(name, "", strconv.FormatUint(value, 10))
}

func (e *exposition) histogram(name, help string, cumulative [8]uint64) {
	e.family(name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		e.sample(name+"_bucket", `le="`+le+`"`, strconv.FormatUint(cumulative[i], 10))
	}
	e.sample(name+"_count", "", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	// Buckets are counts only; no sum is kept.
	e.sample(name+"_sum", "", "0")
}

func (e *exposition) backend(h goIdentity.HealthStatus) {
	labels := `backend="` + string(h.Backend) + `"`
	up := "0"
	if h.BackendAvailable {
		up = "1"
	}
	e.family(internaldefs.BackendUpName, internaldefs.BackendUpHelp, "gauge")
	e.sample(internaldefs.BackendUpName, labels, up)
	e.family(internaldefs.BackendLatencyName, internaldefs.BackendLatencyHelp, "gauge")
	e.sample(internaldefs.BackendLatencyName, labels, strconv.FormatFloat(h.BackendLatency.Seconds(), 'g', -1, 64))
}
