// Package metrics exposes Prometheus collectors for ingestion, retrieval and answering.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vaani"

// Metrics holds the service collectors.
type Metrics struct {
	clausesIngested *prometheus.CounterVec
	ingestDuration  prometheus.Histogram
	queries         *prometheus.CounterVec
	queryDuration   prometheus.Histogram
	answers         *prometheus.CounterVec
	indexSize       prometheus.Gauge
	gatherer        prometheus.Gatherer
}

// New creates the collectors and registers them on reg. If reg is nil a fresh
// registry is used. A gatherer is kept for Handler when reg also implements it.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		clausesIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clauses_ingested_total",
				Help:      "Clauses offered for ingestion, by outcome (added or skipped).",
			},
			[]string{"outcome"},
		),
		ingestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time to embed, index and persist one ingestion batch.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Retrieval queries, by outcome.",
			},
			[]string{"outcome"},
		),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time to embed a question and search the index.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Generated answers, by decision.",
			},
			[]string{"decision"},
		),
		indexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_clauses",
			Help:      "Clauses currently held by the retrieval index.",
		}),
	}
	reg.MustRegister(m.clausesIngested, m.ingestDuration, m.queries, m.queryDuration, m.answers, m.indexSize)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// ObserveIngest records one ingestion batch.
func (m *Metrics) ObserveIngest(added, skipped int, d time.Duration) {
	if m == nil {
		return
	}
	m.clausesIngested.WithLabelValues("added").Add(float64(added))
	m.clausesIngested.WithLabelValues("skipped").Add(float64(skipped))
	m.ingestDuration.Observe(d.Seconds())
}

// ObserveQuery records one query; outcome is "ok", "empty" or "error".
func (m *Metrics) ObserveQuery(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(d.Seconds())
}

// ObserveAnswer counts one generated answer by its decision.
func (m *Metrics) ObserveAnswer(decision string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(decision).Inc()
}

// SetIndexSize sets the current clause count.
func (m *Metrics) SetIndexSize(n int) {
	if m == nil {
		return
	}
	m.indexSize.Set(float64(n))
}

// Handler serves the registered metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
