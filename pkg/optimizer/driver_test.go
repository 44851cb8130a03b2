package optimizer

import (
	"bytes"
	"io/ioutil"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/comcast-ravel/ruleopt/pkg/ruleset"
)

func newTestOptimizer(diag *bytes.Buffer) *Optimizer {
	logger := log.New()
	logger.SetOutput(ioutil.Discard)
	return NewOptimizer(logger, ruleset.TextPrinter{}, ruleset.BufferLineRecovery{}, diag, Options{})
}

func TestOptimizeSkipsNonAddTableCommands(t *testing.T) {
	var diag bytes.Buffer
	o := newTestOptimizer(&diag)
	status := o.Optimize([]ruleset.Command{{Op: ruleset.CommandOther}})
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	if diag.Len() != 0 {
		t.Fatalf("expected no diagnostics for a non-add-table command")
	}
}

func TestOptimizeHWOffloadChainUntouched(t *testing.T) {
	chain := &ruleset.Chain{
		Name:  "fast",
		Flags: ruleset.ChainFlagHWOffload,
		Rules: []*ruleset.Rule{
			buildRule("tcp dport 22 accept", exprStmt(sharedDport, intVal(22)), acceptStmt()),
			buildRule("tcp dport 23 accept", exprStmt(sharedDport, intVal(23)), acceptStmt()),
		},
	}
	before := len(chain.Rules)
	table := &ruleset.Table{Name: "t", Chains: map[string]*ruleset.Chain{"fast": chain}}

	var diag bytes.Buffer
	o := newTestOptimizer(&diag)
	status := o.Optimize([]ruleset.Command{{Op: ruleset.CommandAddTable, Table: table}})
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	if len(chain.Rules) != before {
		t.Fatalf("hardware-offload chain's rule count changed: got %d, want %d", len(chain.Rules), before)
	}
	if diag.Len() != 0 {
		t.Fatalf("expected no diagnostics for a hardware-offload chain")
	}
}

func TestOptimizeRegistryOverflowLeavesChainUnchanged(t *testing.T) {
	var rules []*ruleset.Rule
	for i := 0; i < DefaultMaxColumns+1; i++ {
		proto := &ruleset.PayloadDescriptor{Name: "proto"}
		tmpl := &ruleset.PayloadTemplate{Name: "field"}
		sel := &ruleset.PayloadExpr{Desc: proto, Tmpl: tmpl} // a fresh, never-equal column every time
		rules = append(rules, buildRule("rule", exprStmt(sel, intVal(int64(i)))))
	}
	chain := &ruleset.Chain{Name: "overflow", Rules: rules}
	table := &ruleset.Table{Name: "t", Chains: map[string]*ruleset.Chain{"overflow": chain}}

	var diag bytes.Buffer
	o := newTestOptimizer(&diag)
	status := o.Optimize([]ruleset.Command{{Op: ruleset.CommandAddTable, Table: table}})
	if status != 0 {
		t.Fatalf("status = %d, want 0 (overflow is recovered locally, not a caller error)", status)
	}
	if len(chain.Rules) != DefaultMaxColumns+1 {
		t.Fatalf("overflowing chain's rules were mutated: got %d rules, want %d", len(chain.Rules), DefaultMaxColumns+1)
	}
}

func TestOptimizeMergesAdjacentRulesAcrossChain(t *testing.T) {
	chain := &ruleset.Chain{
		Name: "input",
		Rules: []*ruleset.Rule{
			buildRule("tcp dport 22 accept", exprStmt(sharedDport, intVal(22)), acceptStmt()),
			buildRule("tcp dport 23 accept", exprStmt(sharedDport, intVal(23)), acceptStmt()),
			buildRule("tcp dport 80 accept", exprStmt(sharedDport, intVal(80)), acceptStmt()),
		},
	}
	table := &ruleset.Table{Name: "t", Chains: map[string]*ruleset.Chain{"input": chain}}

	var diag bytes.Buffer
	o := newTestOptimizer(&diag)
	status := o.Optimize([]ruleset.Command{{Op: ruleset.CommandAddTable, Table: table}})
	if status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	if len(chain.Rules) != 1 {
		t.Fatalf("got %d surviving rules, want 1", len(chain.Rules))
	}
	set, ok := chain.Rules[0].Statements[0].(*ruleset.ExpressionStmt).Expr.Right.(*ruleset.SetExpr)
	if !ok || len(set.Elements) != 3 {
		t.Fatalf("merged rule's match is not a 3-element set: %+v", chain.Rules[0].Statements[0])
	}
}
