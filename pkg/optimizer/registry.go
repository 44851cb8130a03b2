package optimizer

import "github.com/comcast-ravel/ruleopt/pkg/ruleset"

// DefaultMaxColumns is the column cap the chain driver uses unless an
// Options value overrides it. 32 distinct selector-bearing statements per
// chain bounds both the matrix's memory and the registry's linear scan.
const DefaultMaxColumns = 32

// registry is the ordered set of distinct matchable statements encountered
// in a chain, in first-seen order. Column identity is decided by StmtEqual,
// so two statements that only differ in an expression statement's
// right-hand value land in the same column. StmtEqual never holds between
// two unsupported statements (or between one and anything else, including
// itself), so every unsupported statement is, by construction, assigned a
// column all its own.
//
// Per the column-descriptor simplification this module's design notes
// permit, a column's key is simply the first statement that produced it —
// there is no need to clone kind-relevant fields out into a separate
// key object, since Go statements are garbage collected and holding a
// reference to one imposes no lifetime obligation on the registry.
//
// assign records, per rule and per statement within that rule, the column
// fill chose for it. buildMatrix reads assign directly instead of
// re-deriving a statement's column with another StmtEqual search — re-
// deriving would silently lose any statement that isn't equal to its own
// registry key, which is exactly the case for an unsupported statement.
type registry struct {
	columns []ruleset.Statement
	maxCols int
	assign  [][]int
}

// newRegistry creates an empty registry capped at maxCols columns.
func newRegistry(maxCols int) *registry {
	if maxCols <= 0 {
		maxCols = DefaultMaxColumns
	}
	return &registry{maxCols: maxCols}
}

// columnOf returns the index of stmt's column, creating one if stmt does
// not match any existing column. ok is false on cap overflow, in which case
// the registry is left unchanged and the caller must abort the chain pass.
func (reg *registry) columnOf(stmt ruleset.Statement) (idx int, ok bool) {
	for i, key := range reg.columns {
		if StmtEqual(stmt, key) {
			return i, true
		}
	}
	if len(reg.columns) >= reg.maxCols {
		return 0, false
	}
	reg.columns = append(reg.columns, stmt)
	return len(reg.columns) - 1, true
}

// size returns the number of columns currently registered.
func (reg *registry) size() int { return len(reg.columns) }

// fill scans every rule in order, registering a column for each statement
// and recording the assignment in reg.assign. It returns false on overflow,
// matching a phase-1 abort: the chain's pass stops with no rewrites and no
// partial state is used by later phases.
func (reg *registry) fill(rules []*ruleset.Rule) bool {
	assign := make([][]int, len(rules))
	for ri, r := range rules {
		cols := make([]int, len(r.Statements))
		for si, s := range r.Statements {
			col, ok := reg.columnOf(s)
			if !ok {
				return false
			}
			cols[si] = col
		}
		assign[ri] = cols
	}
	reg.assign = assign
	return true
}
