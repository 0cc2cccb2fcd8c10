package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/parkcrm/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the ingestion collectors. It implements core.Observer.
type Metrics struct {
	registry *prometheus.Registry

	RowsTotal      *prometheus.CounterVec
	WebhookTotal   *prometheus.CounterVec
	ImportRuns     *prometheus.CounterVec
	ImportDuration *prometheus.HistogramVec
}

var _ core.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Bulk import rows by outcome",
		}, []string{"source", "outcome"}),
		WebhookTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Webhook deliveries by result",
		}, []string{"result"}),
		ImportRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_runs_total",
			Help:      "Bulk import runs by result",
		}, []string{"source", "result"}),
		ImportDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Time taken by a bulk import run",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
}

// ObserveRun records one finished bulk run.
func (m *Metrics) ObserveRun(source string, stats *core.Statistics, err error, elapsed time.Duration) {
	m.ImportDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.ImportRuns.WithLabelValues(source, runResult(err)).Inc()

	// A failed run rolls back, so its per-row counts never reached storage.
	if err != nil || stats == nil {
		return
	}
	m.RowsTotal.WithLabelValues(source, "successful").Add(float64(stats.Successful))
	m.RowsTotal.WithLabelValues(source, "failed").Add(float64(stats.Failed))
	m.RowsTotal.WithLabelValues(source, "skipped").Add(float64(stats.Skipped))
}

func (m *Metrics) ObserveWebhook(outcome core.WebhookOutcome) {
	m.WebhookTotal.WithLabelValues(string(outcome)).Inc()
}

// Handler serves the private registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func runResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, core.ErrInvalidEncoding):
		return "invalid"
	default:
		return "error"
	}
}
