package optimizer

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/comcast-ravel/ruleopt/pkg/ruleset"
)

func exprStmt(left ruleset.Expr, right ruleset.Expr) *ruleset.ExpressionStmt {
	return &ruleset.ExpressionStmt{Expr: &ruleset.RelationalExpr{Left: left, Op: ruleset.RelEq, Right: right}}
}

func payloadSelector(proto, field string) *ruleset.PayloadExpr {
	return &ruleset.PayloadExpr{Desc: &ruleset.PayloadDescriptor{Name: proto}, Tmpl: &ruleset.PayloadTemplate{Name: field}}
}

func intVal(n int64) *ruleset.ValueExpr { return &ruleset.ValueExpr{Int: big.NewInt(n)} }

func buildRule(line string, stmts ...ruleset.Statement) *ruleset.Rule {
	return &ruleset.Rule{Location: ruleset.Location{Indesc: ruleset.InputDescBuffer, Data: line}, Statements: stmts}
}

// planFor runs the first three phases over rules and returns the matrix plus
// the single merge plan expected from a fully-matrix-equal set of rows.
func planFor(t *testing.T, rules []*ruleset.Rule) (*matrix, mergePlan) {
	t.Helper()
	reg := newRegistry(DefaultMaxColumns)
	if !reg.fill(rules) {
		t.Fatalf("unexpected registry overflow")
	}
	m := buildMatrix(reg, rules)
	runs := scanRuns(m)
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1: %+v", len(runs), runs)
	}
	return m, planMerge(m, runs[0])
}

func TestRewriteSingleSelectorProducesAnonymousSetInOrder(t *testing.T) {
	// tcp dport {22,23,80} accept
	dport := func(n int64) ruleset.Statement {
		// same *PayloadDescriptor/*PayloadTemplate across rules, exactly as
		// an interning decoder would hand them out.
		return exprStmt(sharedDport, intVal(n))
	}
	rules := []*ruleset.Rule{
		buildRule("tcp dport 22 accept", dport(22), acceptStmt()),
		buildRule("tcp dport 23 accept", dport(23), acceptStmt()),
		buildRule("tcp dport 80 accept", dport(80), acceptStmt()),
	}
	m, plan := planFor(t, rules)
	if len(plan.Columns) != 1 {
		t.Fatalf("expected one participating column, got %+v", plan.Columns)
	}

	var diag bytes.Buffer
	if err := rewriteRun(&diag, ruleset.TextPrinter{}, ruleset.BufferLineRecovery{}, rules, m, plan); err != nil {
		t.Fatalf("rewriteRun: %v", err)
	}

	survivor := rules[0]
	es := survivor.Statements[0].(*ruleset.ExpressionStmt)
	set, ok := es.Expr.Right.(*ruleset.SetExpr)
	if !ok {
		t.Fatalf("right-hand side is %T, want *SetExpr", es.Expr.Right)
	}
	if len(set.Elements) != 3 {
		t.Fatalf("got %d set elements, want 3", len(set.Elements))
	}
	for i, want := range []int64{22, 23, 80} {
		got := set.Elements[i].Value.(*ruleset.ValueExpr).Int.Int64()
		if got != want {
			t.Fatalf("element %d = %d, want %d", i, got, want)
		}
	}

	out := diag.String()
	if !strings.HasPrefix(out, "Merging:\n") || !strings.Contains(out, "into:\n") {
		t.Fatalf("diagnostic output missing expected framing: %q", out)
	}
}

func TestRewriteMultiSelectorBuildsConcatenationAndSet(t *testing.T) {
	iifname := &ruleset.MetaExpr{Key: ruleset.MetaIIFName}
	ipDaddr := payloadSelector("ip", "daddr")
	tcpDportSel := payloadSelector("tcp", "dport")

	rule0 := buildRule("iifname eth0 ip daddr 1 tcp dport 22 accept",
		exprStmt(iifname, &ruleset.ValueExpr{Identifier: "eth0"}),
		exprStmt(ipDaddr, intVal(1)),
		exprStmt(tcpDportSel, intVal(22)),
		acceptStmt(),
	)
	rule1 := buildRule("iifname eth1 ip daddr 2 tcp dport 80 accept",
		exprStmt(iifname, &ruleset.ValueExpr{Identifier: "eth1"}),
		exprStmt(ipDaddr, intVal(2)),
		exprStmt(tcpDportSel, intVal(80)),
		acceptStmt(),
	)
	rules := []*ruleset.Rule{rule0, rule1}

	m, plan := planFor(t, rules)
	if len(plan.Columns) != 3 {
		t.Fatalf("expected three participating columns, got %+v", plan.Columns)
	}

	var diag bytes.Buffer
	if err := rewriteRun(&diag, ruleset.TextPrinter{}, ruleset.BufferLineRecovery{}, rules, m, plan); err != nil {
		t.Fatalf("rewriteRun: %v", err)
	}

	survivor := rules[0]
	if len(survivor.Statements) != 2 {
		t.Fatalf("got %d statements on survivor, want 2 (concat match + verdict): %+v", len(survivor.Statements), survivor.Statements)
	}
	es := survivor.Statements[0].(*ruleset.ExpressionStmt)
	left, ok := es.Expr.Left.(*ruleset.ConcatExpr)
	if !ok {
		t.Fatalf("left-hand side is %T, want *ConcatExpr", es.Expr.Left)
	}
	if len(left.Children) != 3 {
		t.Fatalf("got %d left concat children, want 3", len(left.Children))
	}
	right, ok := es.Expr.Right.(*ruleset.SetExpr)
	if !ok {
		t.Fatalf("right-hand side is %T, want *SetExpr", es.Expr.Right)
	}
	if len(right.Elements) != 2 {
		t.Fatalf("got %d set elements, want 2", len(right.Elements))
	}
	for _, el := range right.Elements {
		rowConcat, ok := el.Value.(*ruleset.ConcatExpr)
		if !ok || len(rowConcat.Children) != 3 {
			t.Fatalf("set element is not a 3-child concatenation: %+v", el.Value)
		}
	}
}

var sharedDport = payloadSelector("tcp", "dport")

func acceptStmt() ruleset.Statement { return &ruleset.VerdictStmt{Code: ruleset.VerdictAccept} }
