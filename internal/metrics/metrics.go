// Package metrics exposes pipeline counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hackcli"

// Metrics is safe to use as a nil pointer; every recorder is a no-op then.
type Metrics struct {
	registry *prometheus.Registry

	listings      *prometheus.CounterVec
	geocode       *prometheus.CounterVec
	details       *prometheus.CounterVec
	cacheOps      *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastAccepted  prometheus.Gauge
	lastSuccessTS prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.listings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_total",
		Help:      "Listings processed by outcome and rejection reason",
	}, []string{"outcome", "reason"})
	m.geocode = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_lookups_total",
		Help:      "Location checks by source and result",
	}, []string{"source", "result"})
	m.details = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detail_fetches_total",
		Help:      "Detail page fetches by status",
	}, []string{"status"})
	m.cacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_operations_total",
		Help:      "Cache loads and saves by status",
	}, []string{"op", "status"})
	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of one pipeline run",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	m.lastAccepted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_accepted",
		Help:      "Hackathons accepted by the most recent run",
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent finished run",
	})

	m.registry.MustRegister(
		m.listings, m.geocode, m.details, m.cacheOps,
		m.runDuration, m.lastAccepted, m.lastSuccessTS,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Listing counts one listing. reason is empty for accepted listings.
func (m *Metrics) Listing(accepted bool, reason string) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.listings.WithLabelValues(outcome, reason).Inc()
}

// Geocode counts one location check. source is "cache" or "api".
func (m *Metrics) Geocode(source string, inRegion bool) {
	if m == nil {
		return
	}
	result := "out"
	if inRegion {
		result = "in"
	}
	m.geocode.WithLabelValues(source, result).Inc()
}

func (m *Metrics) GeocodeError() {
	if m == nil {
		return
	}
	m.geocode.WithLabelValues("api", "error").Inc()
}

func (m *Metrics) Detail(ok bool) {
	if m == nil {
		return
	}
	status := "error"
	if ok {
		status = "ok"
	}
	m.details.WithLabelValues(status).Inc()
}

func (m *Metrics) Cache(op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.cacheOps.WithLabelValues(op, status).Inc()
}

func (m *Metrics) Run(started time.Time, accepted int) {
	if m == nil {
		return
	}
	m.runDuration.Observe(time.Since(started).Seconds())
	m.lastAccepted.Set(float64(accepted))
	m.lastSuccessTS.Set(float64(time.Now().Unix()))
}
