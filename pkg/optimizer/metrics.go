package optimizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/comcast-ravel/ruleopt/pkg/stats"
)

// metrics is the Optimizer's Prometheus surface: one counter per kind of
// chain-pass outcome, a histogram of rows folded per merge, and a histogram
// of per-chain pass latency. Constructed and registered globally once per
// process, on the first call to newMetrics, and shared by every Optimizer.
type metrics struct {
	chainLatency  prometheus.Histogram
	mergedRuns    prometheus.Counter
	mergedRows    prometheus.Histogram
	overflowCount prometheus.Counter
	offloadSkips  prometheus.Counter
}

// Every Optimizer shares one set of collectors: constructing several
// Optimizers (one per chain shard, or one per test case) must not attempt
// to register the same metric name with Prometheus twice.
var (
	globalMetrics     *metrics
	globalMetricsOnce sync.Once
)

func newMetrics() *metrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = &metrics{
			chainLatency:  stats.NewHistogram("chain_pass_duration_us", "Duration of one chain optimization pass in microseconds.", stats.LatencyBuckets),
			mergedRuns:    stats.NewCounter("merged_runs_total", "Number of merge runs rewritten into a single rule."),
			mergedRows:    stats.NewHistogram("merged_run_rows", "Number of rows folded into each merge run.", []float64{2, 3, 4, 8, 16, 32}),
			overflowCount: stats.NewCounter("registry_overflow_total", "Number of chain passes aborted by a registry column overflow."),
			offloadSkips:  stats.NewCounter("offload_chain_skipped_total", "Number of chain passes skipped because the chain is hardware-offloaded."),
		}
	})
	return globalMetrics
}

func (m *metrics) observeChain(d time.Duration) {
	m.chainLatency.Observe(float64(d.Microseconds()))
}

func (m *metrics) merged(rows int) {
	m.mergedRuns.Inc()
	m.mergedRows.Observe(float64(rows))
}

func (m *metrics) overflow() { m.overflowCount.Inc() }

func (m *metrics) offloadSkipped() { m.offloadSkips.Inc() }
