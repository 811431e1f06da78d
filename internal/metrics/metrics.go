// Package metrics holds the Prometheus instruments of the catalog service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paperpaper"

// Metrics groups every instrument. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// ImportRuns counts import runs by outcome ("success", "warning", "aborted").
	ImportRuns *prometheus.CounterVec

	// ImportEntries counts processed entries by result ("imported", "failed").
	ImportEntries *prometheus.CounterVec

	// ImportDuration observes the wall time of a whole import run.
	ImportDuration prometheus.Histogram

	// AttachmentsBound counts attachments stored by result ("stored", "failed").
	AttachmentsBound *prometheus.CounterVec

	// NotificationsSent counts notification sends by result ("sent", "failed").
	NotificationsSent *prometheus.CounterVec

	// TasksEnqueued counts background tasks by queue name.
	TasksEnqueued *prometheus.CounterVec

	// HTTPRequests counts handled requests by method, route and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration observes handler latency by route.
	HTTPDuration *prometheus.HistogramVec
}

// New registers the instruments on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ImportRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_runs_total",
			Help:      "Total number of bibliography import runs by outcome",
		}, []string{"outcome"}),
		ImportEntries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_entries_total",
			Help:      "Total number of bibliography entries processed by result",
		}, []string{"result"}),
		ImportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Duration of bibliography import runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		AttachmentsBound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_total",
			Help:      "Total number of article attachments stored by result",
		}, []string{"result"}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of notification emails attempted by result",
		}, []string{"result"}),
		TasksEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_enqueued_total",
			Help:      "Total number of background tasks enqueued by queue",
		}, []string{"queue"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) ImportFinished(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.ImportRuns.WithLabelValues(outcome).Inc()
	m.ImportDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) EntryProcessed(ok bool) {
	if m == nil {
		return
	}
	m.ImportEntries.WithLabelValues(result(ok, "imported")).Inc()
}

func (m *Metrics) AttachmentStored(ok bool) {
	if m == nil {
		return
	}
	m.AttachmentsBound.WithLabelValues(result(ok, "stored")).Inc()
}

func (m *Metrics) NotificationAttempted(ok bool) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(result(ok, "sent")).Inc()
}

func (m *Metrics) TaskEnqueued(queue string) {
	if m == nil {
		return
	}
	m.TasksEnqueued.WithLabelValues(queue).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func result(ok bool, success string) string {
	if ok {
		return success
	}
	return "failed"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
