package optimizer

import "github.com/comcast-ravel/ruleopt/pkg/ruleset"

// mergePlan names the columns a run's rewrite will touch, in column order.
// Every other populated column of the run is, by construction of matrix
// equality, identical across every row and carries through unchanged on
// the surviving rule — nothing to plan for those.
type mergePlan struct {
	Run     mergeRun
	Columns []int
}

// planMerge inspects the columns populated at the run's first row and
// records those whose statement is an expression (match) statement — the
// only kind this optimizer knows how to fold into a set or concatenation.
func planMerge(m *matrix, run mergeRun) mergePlan {
	plan := mergePlan{Run: run}
	for col := 0; col < m.reg.size(); col++ {
		if _, ok := m.cell(run.From, col).(*ruleset.ExpressionStmt); ok {
			plan.Columns = append(plan.Columns, col)
		}
	}
	return plan
}
