// Package optimizer merges adjacent rules within a chain that differ only
// in the values tested by one or more match expressions, rewriting them
// into a single rule whose match uses an anonymous set — or, when several
// selectors vary together, a concatenated tuple set.
package optimizer

import "github.com/comcast-ravel/ruleopt/pkg/ruleset"

// StmtEqual reports whether two statements are equivalent for the purposes
// of column identity: same kind, same non-value parameters. An expression
// statement's right-hand comparand is deliberately excluded — differing
// values there are exactly what a merge collapses.
//
// Two nil statements are equal (both slots empty); a nil paired with a
// present statement is never equal.
func StmtEqual(a, b ruleset.Statement) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *ruleset.ExpressionStmt:
		return expressionStmtEqual(av, b.(*ruleset.ExpressionStmt))
	case *ruleset.CounterStmt:
		return true
	case *ruleset.NotrackStmt:
		return true
	case *ruleset.VerdictStmt:
		return verdictStmtEqual(av, b.(*ruleset.VerdictStmt))
	case *ruleset.LimitStmt:
		return limitStmtEqual(av, b.(*ruleset.LimitStmt))
	case *ruleset.LogStmt:
		return logStmtEqual(av, b.(*ruleset.LogStmt))
	case *ruleset.RejectStmt:
		return rejectStmtEqual(av, b.(*ruleset.RejectStmt))
	default:
		// Unsupported statement kinds (and anything added later without a
		// case here) never compare equal, which keeps a rule carrying one
		// out of every merge run. The safe default.
		return false
	}
}

func expressionStmtEqual(a, b *ruleset.ExpressionStmt) bool {
	if a.Expr == nil || b.Expr == nil {
		return false
	}
	return selectorEqual(a.Expr.Left, b.Expr.Left)
}

// selectorEqual compares the left-hand side of two relational expressions —
// the selector under test, never the value compared against it.
func selectorEqual(a, b ruleset.Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *ruleset.PayloadExpr:
		bv := b.(*ruleset.PayloadExpr)
		return av.Desc == bv.Desc && av.Tmpl == bv.Tmpl
	case *ruleset.ExthdrExpr:
		bv := b.(*ruleset.ExthdrExpr)
		return av.Desc == bv.Desc && av.Tmpl == bv.Tmpl
	case *ruleset.MetaExpr:
		bv := b.(*ruleset.MetaExpr)
		return av.Key == bv.Key && av.Base == bv.Base
	case *ruleset.CtExpr:
		bv := b.(*ruleset.CtExpr)
		return av.Key == bv.Key && av.Base == bv.Base && av.Dir == bv.Dir && av.NfProto == bv.NfProto
	case *ruleset.RtExpr:
		bv := b.(*ruleset.RtExpr)
		return av.Key == bv.Key
	case *ruleset.SocketExpr:
		bv := b.(*ruleset.SocketExpr)
		return av.Key == bv.Key && av.Level == bv.Level
	default:
		// Anything left-hand that isn't an enumerated selector kind is not a
		// column this optimizer recognizes.
		return false
	}
}

func verdictStmtEqual(a, b *ruleset.VerdictStmt) bool {
	if a.Code != b.Code {
		return false
	}
	if a.Chain == nil && b.Chain == nil {
		return true
	}
	if a.Chain == nil || b.Chain == nil {
		return false
	}
	return a.Chain.Name == b.Chain.Name
}

func limitStmtEqual(a, b *ruleset.LimitStmt) bool {
	return a.Rate == b.Rate && a.Unit == b.Unit && a.Burst == b.Burst &&
		a.Type == b.Type && a.Flags == b.Flags
}

func logStmtEqual(a, b *ruleset.LogStmt) bool {
	if a.Snaplen != b.Snaplen || a.Group != b.Group || a.QThreshold != b.QThreshold ||
		a.Level != b.Level || a.LogFlags != b.LogFlags || a.Flags != b.Flags {
		return false
	}
	return immediateEqual(a.Prefix, b.Prefix)
}

// immediateEqual compares two value expressions: equal only when both are
// absent, or both are present and carry equal content of the same form
// (equal integers, or equal identifier strings).
func immediateEqual(a, b *ruleset.ValueExpr) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.IsIdentifier() != b.IsIdentifier() {
		return false
	}
	if a.IsIdentifier() {
		return a.Identifier == b.Identifier
	}
	return a.Int.Cmp(b.Int) == 0
}

func rejectStmtEqual(a, b *ruleset.RejectStmt) bool {
	if a.Extended != nil || b.Extended != nil {
		return false
	}
	return a.Family == b.Family && a.Type == b.Type && a.ICMPCode == b.ICMPCode
}
