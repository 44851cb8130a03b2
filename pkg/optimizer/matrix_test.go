package optimizer

import (
	"testing"

	"github.com/comcast-ravel/ruleopt/pkg/ruleset"
)

// An unsupported statement must never let its row match another row, even
// one carrying what looks like "the same" unsupported statement, and even
// one that lacks any unsupported statement at all.
func TestBuildMatrixUnsupportedStatementNeverMatches(t *testing.T) {
	rules := []*ruleset.Rule{
		buildRule("tcp dport 22 <unsupported>", exprStmt(sharedDport, intVal(22)), &ruleset.UnsupportedStmt{Name: "quota"}),
		buildRule("tcp dport 23 <unsupported>", exprStmt(sharedDport, intVal(23)), &ruleset.UnsupportedStmt{Name: "quota"}),
	}
	reg := newRegistry(DefaultMaxColumns)
	if !reg.fill(rules) {
		t.Fatalf("unexpected registry overflow")
	}
	m := buildMatrix(reg, rules)
	if m.rowsEqual(0, 1) {
		t.Fatalf("rows carrying unsupported statements must never be matrix-equal")
	}
	if len(scanRuns(m)) != 0 {
		t.Fatalf("expected no merge runs across rows with unsupported statements")
	}
}

func TestBuildMatrixUnsupportedStatementBlocksRuleThatLacksIt(t *testing.T) {
	rules := []*ruleset.Rule{
		buildRule("tcp dport 22 <unsupported>", exprStmt(sharedDport, intVal(22)), &ruleset.UnsupportedStmt{Name: "quota"}),
		buildRule("tcp dport 23 accept", exprStmt(sharedDport, intVal(23)), acceptStmt()),
	}
	reg := newRegistry(DefaultMaxColumns)
	if !reg.fill(rules) {
		t.Fatalf("unexpected registry overflow")
	}
	m := buildMatrix(reg, rules)
	if m.rowsEqual(0, 1) {
		t.Fatalf("a rule with an unsupported statement must never be matrix-equal to one without it")
	}
}

// Every statement assigned a column by fill must land in that exact column
// when the matrix is built, not merely one that happens to StmtEqual it.
func TestBuildMatrixPlacesEveryStatementByItsFillAssignment(t *testing.T) {
	rules := []*ruleset.Rule{
		buildRule("a", &ruleset.UnsupportedStmt{Name: "x"}),
		buildRule("b", &ruleset.UnsupportedStmt{Name: "x"}),
		buildRule("c", &ruleset.UnsupportedStmt{Name: "x"}),
	}
	reg := newRegistry(DefaultMaxColumns)
	if !reg.fill(rules) {
		t.Fatalf("unexpected registry overflow")
	}
	if reg.size() != 3 {
		t.Fatalf("expected each unsupported statement to claim its own column, got %d columns", reg.size())
	}
	m := buildMatrix(reg, rules)
	for r := 0; r < 3; r++ {
		if m.cell(r, r) == nil {
			t.Fatalf("row %d missing its own statement in column %d", r, r)
		}
		for c := 0; c < 3; c++ {
			if c != r && m.cell(r, c) != nil {
				t.Fatalf("row %d unexpectedly populated in column %d", r, c)
			}
		}
	}
}
