package optimizer

import (
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/comcast-ravel/ruleopt/pkg/ruleset"
)

// Options configures an Optimizer.
type Options struct {
	// MaxColumns caps the selector registry's column count per chain.
	// Zero means DefaultMaxColumns.
	MaxColumns int
}

// Optimizer merges adjacent rules across every chain of every add-table
// command it is handed. One Optimizer can be reused across many calls to
// Optimize; it holds no per-call state.
type Optimizer struct {
	logger   log.FieldLogger
	printer  ruleset.RulePrinter
	recovery ruleset.SourceLineRecovery
	diag     io.Writer
	opts     Options
	metrics  *metrics
}

// NewOptimizer builds an Optimizer. diag receives the "Merging: ... into:"
// text diagnostics; logger receives structured Debug/Info events around
// phase transitions, a separate channel from diag.
func NewOptimizer(logger log.FieldLogger, printer ruleset.RulePrinter, recovery ruleset.SourceLineRecovery, diag io.Writer, opts Options) *Optimizer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Optimizer{
		logger:   logger,
		printer:  printer,
		recovery: recovery,
		diag:     diag,
		opts:     opts,
		metrics:  newMetrics(),
	}
}

// Optimize walks commands; for each add-table command it processes every
// chain of the table independently. It returns an integer status: zero on
// success, non-zero if any chain's pass hit an internal error building its
// merged rule (a condition that should not arise from well-formed input).
// A chain-level registry overflow or a hardware-offload skip is not such an
// error — both leave the chain untouched and do not affect the status.
func (o *Optimizer) Optimize(commands []ruleset.Command) int {
	status := 0
	for _, cmd := range commands {
		if cmd.Op != ruleset.CommandAddTable || cmd.Table == nil {
			continue
		}
		for name, chain := range cmd.Table.Chains {
			if err := o.optimizeChain(chain); err != nil {
				o.logger.WithError(err).WithField("chain", name).Warn("optimizer: chain pass aborted")
				status = 1
			}
		}
	}
	return status
}

func (o *Optimizer) optimizeChain(chain *ruleset.Chain) error {
	start := time.Now()
	defer func() { o.metrics.observeChain(time.Since(start)) }()

	logger := o.logger.WithField("chain", chain.Name)

	if chain.HasFlag(ruleset.ChainFlagHWOffload) {
		logger.Debug("optimizer: skipping hardware-offload chain")
		o.metrics.offloadSkipped()
		return nil
	}

	reg := newRegistry(o.opts.MaxColumns)
	if !reg.fill(chain.Rules) {
		logger.WithField("max_columns", o.opts.MaxColumns).Info("optimizer: registry overflow, chain left unchanged")
		o.metrics.overflow()
		return nil
	}
	logger.WithField("columns", reg.size()).Debug("optimizer: registry filled")

	m := buildMatrix(reg, chain.Rules)
	runs := scanRuns(m)
	if len(runs) == 0 {
		return nil
	}
	logger.WithField("runs", len(runs)).Debug("optimizer: adjacency scan complete")

	// Runs are in increasing row order and non-overlapping. Applying them
	// back to front means removing a later run's rows never invalidates the
	// row indices an earlier run still needs to look up.
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		plan := planMerge(m, run)
		if err := rewriteRun(o.diag, o.printer, o.recovery, chain.Rules, m, plan); err != nil {
			return &OptimizeError{Kind: ErrAllocation, Chain: chain.Name, Err: err}
		}
		chain.Rules = append(chain.Rules[:run.From+1], chain.Rules[run.To+1:]...)
		o.metrics.merged(run.length())
	}
	return nil
}
