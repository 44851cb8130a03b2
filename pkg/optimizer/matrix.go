package optimizer

import "github.com/comcast-ravel/ruleopt/pkg/ruleset"

// matrix is the R x S table described by the chain driver's second phase:
// R rows (one per rule in the chain), S columns (one per registry entry).
// cell(r, s) holds the statement inside row r's rule that belongs to
// column s, or nil if that rule does not carry a statement of that kind.
type matrix struct {
	reg  *registry
	rows [][]ruleset.Statement
}

// buildMatrix allocates and fills the matrix for rules against an
// already-filled registry. It requires reg.fill(rules) to have succeeded
// against this exact rules slice, and places each statement in the column
// reg.assign recorded for it rather than re-deriving the column with another
// StmtEqual search: a statement that isn't equal to its own registry key —
// every unsupported statement, by the default case in StmtEqual — would be
// silently lost by a re-derived search instead of occupying the column that
// keeps its row from matching any other.
func buildMatrix(reg *registry, rules []*ruleset.Rule) *matrix {
	m := &matrix{reg: reg, rows: make([][]ruleset.Statement, len(rules))}
	for r, rule := range rules {
		row := make([]ruleset.Statement, reg.size())
		cols := reg.assign[r]
		for si, s := range rule.Statements {
			row[cols[si]] = s
		}
		m.rows[r] = row
	}
	return m
}

// rowsEqual reports whether rows i and j agree column-by-column under
// StmtEqual — the "matrix-equal" relation the adjacency scanner groups on.
func (m *matrix) rowsEqual(i, j int) bool {
	ri, rj := m.rows[i], m.rows[j]
	for c := range ri {
		if !StmtEqual(ri[c], rj[c]) {
			return false
		}
	}
	return true
}

// numRows reports the row count.
func (m *matrix) numRows() int { return len(m.rows) }

// cell returns the statement at (row, col), or nil if that rule does not
// carry column col.
func (m *matrix) cell(row, col int) ruleset.Statement { return m.rows[row][col] }
