package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crimewatch"

// Upstream label values.
const (
	UpstreamPostcodes  = "postcodes"
	UpstreamCrimes     = "crimes"
	UpstreamPrediction = "prediction"
	UpstreamAccounts   = "accounts"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Upstream calls.
	UpstreamRequests *prometheus.CounterVec   // labels: upstream, outcome={success,<error kind>}
	UpstreamDuration *prometheus.HistogramVec // labels: upstream

	// Incident volume before and after per-category capping.
	IncidentsReceived prometheus.Counter
	IncidentsReturned prometheus.Counter

	PostcodeCache        *prometheus.CounterVec // labels: result={hit,miss}
	SupersededRequests   prometheus.Counter
	DigestsPublished     prometheus.Counter
	DigestPublishFailure prometheus.Counter

	HTTPRequests *prometheus.CounterVec // labels: route, status
	ServiceReady prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.IncidentsReceived,
		m.IncidentsReturned,
		m.PostcodeCache,
		m.SupersededRequests,
		m.DigestsPublished,
		m.DigestPublishFailure,
		m.HTTPRequests,
		m.ServiceReady,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by upstream and outcome.",
		}, []string{"upstream", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		IncidentsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_received_total",
			Help:      "Incidents returned by the incident-data API before capping.",
		}),
		IncidentsReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_returned_total",
			Help:      "Incidents returned to clients after per-category capping.",
		}),
		PostcodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postcode_cache_total",
			Help:      "Postcode cache lookups by result.",
		}, []string{"result"}),
		SupersededRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_requests_total",
			Help:      "Requests discarded because a newer request from the same session replaced them.",
		}),
		DigestsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digests_published_total",
			Help:      "Home-area incident digests written to Kafka.",
		}),
		DigestPublishFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digest_publish_failures_total",
			Help:      "Home-area incident digests that failed to publish.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route pattern and status code.",
		}, []string{"route", "status"}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_ready",
			Help:      "1 when the service is accepting traffic, 0 otherwise.",
		}),
	}
}
