package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for the query counter.
const (
	outcomeOK         = "ok"
	outcomeParseError = "parse_error"
	outcomeEvalError  = "eval_error"
	outcomeTimeout    = "timeout"
)

// metrics holds the Prometheus collectors, registered on a private
// registry so multiple servers can coexist in one process.
type metrics struct {
	queries  *prometheus.CounterVec
	duration prometheus.Histogram
	triples  prometheus.Gauge
	inFlight prometheus.Gauge
	handler  http.Handler
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "currigraph_queries_total",
			Help: "SPARQL queries served, by query form and outcome.",
		}, []string{"form", "outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "currigraph_query_duration_seconds",
			Help:    "SPARQL query evaluation time.",
			Buckets: prometheus.DefBuckets,
		}),
		triples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "currigraph_dataset_triples",
			Help: "Triples in the served dataset snapshot.",
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "currigraph_http_in_flight_requests",
			Help: "HTTP requests currently being served.",
		}),
	}
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return m
}
