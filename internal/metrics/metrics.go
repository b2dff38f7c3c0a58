// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts upstream requests, download attempts and stored
// bytes for one harvest invocation. The CLI is short-lived, so counters are
// written to a node-exporter textfile instead of being scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pubmed_harvest"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the harvest counters on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	requests         *prometheus.CounterVec
	downloadAttempts *prometheus.CounterVec
	articles         *prometheus.CounterVec
	bytesStored      *prometheus.CounterVec
	lastRunFound     prometheus.Gauge
}

// New creates and registers the counters.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "E-utilities and PMC requests by operation and outcome",
		}, []string{"op", "outcome"}),

		downloadAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_attempts_total",
			Help:      "PDF download attempts by outcome",
		}, []string{"outcome"}),

		articles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_processed_total",
			Help:      "Articles processed by outcome",
		}, []string{"outcome"}),

		bytesStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stored_bytes_total",
			Help:      "Bytes written to storage by kind",
		}, []string{"kind"}),

		lastRunFound: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_articles_found",
			Help:      "Upstream match count of the most recent search",
		}),
	}

	m.reg.MustRegister(m.requests, m.downloadAttempts, m.articles, m.bytesStored, m.lastRunFound)
	return m
}

// Registry exposes the registry, e.g. for tests or an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveRequest matches pubmed.Observer.
func (m *Metrics) ObserveRequest(op string, err error) {
	m.requests.WithLabelValues(op, outcome(err)).Inc()
}

// ObserveDownload matches download.Observer.
func (m *Metrics) ObserveDownload(_ string, _ int, err error) {
	m.downloadAttempts.WithLabelValues(outcome(err)).Inc()
}

// ObserveStored matches storage.Observer.
func (m *Metrics) ObserveStored(kind string, n int) {
	m.bytesStored.WithLabelValues(kind).Add(float64(n))
}

// ObserveArticle counts one processed article.
func (m *Metrics) ObserveArticle(succeeded bool) {
	if succeeded {
		m.articles.WithLabelValues(OutcomeOK).Inc()
		return
	}
	m.articles.WithLabelValues(OutcomeError).Inc()
}

// SetFound records the upstream match count of a search.
func (m *Metrics) SetFound(n int) {
	m.lastRunFound.Set(float64(n))
}

// WriteTextfile writes the registry in the text exposition format,
// atomically replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
