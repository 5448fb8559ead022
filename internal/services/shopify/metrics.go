package shopify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for scraping and publishing.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	ItemsScrapedTotal *prometheus.CounterVec
	UploadsTotal      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopclone_requests_total",
			Help: "Total HTTP requests issued against Shopify.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopclone_request_duration_seconds",
			Help:    "Latency of HTTP requests issued against Shopify.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopclone_retries_total",
			Help: "Total number of retries scheduled after HTTP 429.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopclone_errors_total",
			Help: "Total number of request errors by type.",
		},
		[]string{"error_type"},
	)
	itemsScraped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopclone_items_scraped_total",
			Help: "Total number of raw records read from source stores.",
		},
		[]string{"kind"},
	)
	uploads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopclone_uploads_total",
			Help: "Publish outcomes per item kind.",
		},
		[]string{"kind", "outcome"},
	)

	registry.MustRegister(requests, requestDuration, retries, errorsTotal, itemsScraped, uploads)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
		ItemsScrapedTotal: itemsScraped,
		UploadsTotal:      uploads,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError classifies err and increments the matching counter.
func (m *Metrics) IncError(err error) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorTypeLabel(err)).Inc()
}

// AddItems adds n scraped records of the given kind.
func (m *Metrics) AddItems(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsScrapedTotal.WithLabelValues(kind).Add(float64(n))
}

// IncUpload records one publish outcome, e.g. ("product", "created").
func (m *Metrics) IncUpload(kind, outcome string) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) addUploads(kind, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UploadsTotal.WithLabelValues(kind, outcome).Add(float64(n))
}
