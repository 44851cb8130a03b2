// Package stats holds the small set of Prometheus conventions shared by
// every metrics-emitting package in this module: a common name prefix and a
// latency bucket set sized for the optimizer's sub-millisecond passes.
package stats

import "github.com/prometheus/client_golang/prometheus"

// Prefix namespaces every metric emitted by this module.
const Prefix = "ruleopt_"

// LatencyBuckets is shared by every latency histogram in this module so that
// dashboards built against one package's latency metric work unmodified for
// another; NewHistogram callers measuring something else pass their own. Expressed in microseconds, it spans a single in-memory AST pass
// (tens of microseconds) up to a pathological chain near the column cap.
var LatencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000}

// NewCounterVec registers and returns a CounterVec under Prefix.
func NewCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: Prefix + name,
		Help: help,
	}, labels)
	prometheus.MustRegister(c)
	return c
}

// NewHistogramVec registers and returns a HistogramVec under Prefix using
// LatencyBuckets.
func NewHistogramVec(name, help string, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    Prefix + name,
		Help:    help,
		Buckets: LatencyBuckets,
	}, labels)
	prometheus.MustRegister(h)
	return h
}

// NewCounter registers and returns an unlabeled Counter under Prefix.
func NewCounter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: Prefix + name,
		Help: help,
	})
	prometheus.MustRegister(c)
	return c
}

// NewHistogram registers and returns an unlabeled Histogram under Prefix
// with caller-supplied buckets.
func NewHistogram(name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    Prefix + name,
		Help:    help,
		Buckets: buckets,
	})
	prometheus.MustRegister(h)
	return h
}
