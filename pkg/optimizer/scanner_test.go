package optimizer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/comcast-ravel/ruleopt/pkg/ruleset"
)

func verdictRow(code ruleset.VerdictCode) []ruleset.Statement {
	return []ruleset.Statement{&ruleset.VerdictStmt{Code: code}}
}

func TestScanRunsNoAdjacentEqualityProducesNoRuns(t *testing.T) {
	m := &matrix{rows: [][]ruleset.Statement{
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictDrop),
		verdictRow(ruleset.VerdictAccept),
	}}
	runs := scanRuns(m)
	if len(runs) != 0 {
		t.Fatalf("got %d runs, want 0: %+v", len(runs), runs)
	}
}

func TestScanRunsSingleRunSpansAllRows(t *testing.T) {
	m := &matrix{rows: [][]ruleset.Statement{
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictAccept),
	}}
	runs := scanRuns(m)
	want := []mergeRun{{From: 0, To: 2}}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Fatalf("scanRuns mismatch (-want +got):\n%s", diff)
	}
}

func TestScanRunsInterruptedRunProducesTwoRuns(t *testing.T) {
	m := &matrix{rows: [][]ruleset.Statement{
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictDrop),
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictAccept),
	}}
	runs := scanRuns(m)
	want := []mergeRun{{From: 0, To: 1}, {From: 3, To: 4}}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Fatalf("scanRuns mismatch (-want +got):\n%s", diff)
	}
}

func TestScanRunsFinalRunReachesLastRow(t *testing.T) {
	m := &matrix{rows: [][]ruleset.Statement{
		verdictRow(ruleset.VerdictDrop),
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictAccept),
	}}
	runs := scanRuns(m)
	want := []mergeRun{{From: 1, To: 3}}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Fatalf("scanRuns mismatch (-want +got):\n%s", diff)
	}
}

func TestScanRunsRunsAreNonOverlapping(t *testing.T) {
	m := &matrix{rows: [][]ruleset.Statement{
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictAccept),
		verdictRow(ruleset.VerdictDrop),
		verdictRow(ruleset.VerdictDrop),
	}}
	runs := scanRuns(m)
	want := []mergeRun{{From: 0, To: 2}, {From: 3, To: 4}}
	if diff := cmp.Diff(want, runs); diff != "" {
		t.Fatalf("scanRuns mismatch (-want +got):\n%s", diff)
	}
	for _, r := range runs {
		if r.length() < 2 {
			t.Fatalf("emitted a run shorter than 2 rows: %+v", r)
		}
	}
}

func TestScanRunsSingleRowIsNeverARun(t *testing.T) {
	m := &matrix{rows: [][]ruleset.Statement{
		verdictRow(ruleset.VerdictAccept),
	}}
	runs := scanRuns(m)
	if len(runs) != 0 {
		t.Fatalf("a lone row should never be emitted as a run, got %+v", runs)
	}
}
