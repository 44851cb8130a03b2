package optimizer

import (
	"fmt"
	"io"

	"github.com/comcast-ravel/ruleopt/pkg/ruleset"
)

// rewriteRun performs the rewrite for one merge run, mutating the run's
// first rule (rules[run.From]) in place, and emits the "Merging: ... into:"
// diagnostic for it. The caller is responsible for removing
// rules[run.From+1 : run.To+1] from the chain afterward; this function only
// touches statement contents within the surviving rule.
func rewriteRun(w io.Writer, printer ruleset.RulePrinter, recovery ruleset.SourceLineRecovery, rules []*ruleset.Rule, m *matrix, plan mergePlan) error {
	fmt.Fprintln(w, "Merging:")
	for row := plan.Run.From; row <= plan.Run.To; row++ {
		fmt.Fprintln(w, recovery.Line(rules[row].Location))
	}

	survivor := rules[plan.Run.From]
	switch len(plan.Columns) {
	case 0:
		// Nothing expression-shaped varies across the run; every column is
		// uniform and the rows are fully identical statement-for-statement.
		// There is no rewrite to perform beyond row retirement.
	case 1:
		if err := rewriteSingleSelector(survivor, rules, m, plan); err != nil {
			return err
		}
	default:
		if err := rewriteMultiSelector(survivor, rules, m, plan); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "into:")
	fmt.Fprintln(w, "\t"+printer.PrintRule(survivor))
	return nil
}

func rewriteSingleSelector(survivor *ruleset.Rule, rules []*ruleset.Rule, m *matrix, plan mergePlan) error {
	col := plan.Columns[0]
	survStmt, ok := m.cell(plan.Run.From, col).(*ruleset.ExpressionStmt)
	if !ok {
		return fmt.Errorf("optimizer: column %d of run %d-%d is not an expression statement", col, plan.Run.From, plan.Run.To)
	}

	elems := make([]*ruleset.SetElemExpr, 0, plan.Run.length())
	for row := plan.Run.From; row <= plan.Run.To; row++ {
		rowStmt, ok := m.cell(row, col).(*ruleset.ExpressionStmt)
		if !ok {
			return fmt.Errorf("optimizer: row %d missing expression statement in column %d", row, col)
		}
		elems = append(elems, ruleset.NewSetElem(rowStmt.Expr.Right))
	}

	survStmt.Expr.Right = ruleset.NewAnonymousSet(elems...)
	return nil
}

func rewriteMultiSelector(survivor *ruleset.Rule, rules []*ruleset.Rule, m *matrix, plan mergePlan) error {
	cols := plan.Columns
	from := plan.Run.From

	leftChildren := make([]ruleset.Expr, 0, len(cols))
	survStmts := make([]*ruleset.ExpressionStmt, 0, len(cols))
	for _, col := range cols {
		stmt, ok := m.cell(from, col).(*ruleset.ExpressionStmt)
		if !ok {
			return fmt.Errorf("optimizer: column %d of run %d-%d is not an expression statement", col, plan.Run.From, plan.Run.To)
		}
		survStmts = append(survStmts, stmt)
		leftChildren = append(leftChildren, stmt.Expr.Left)
	}

	elems := make([]*ruleset.SetElemExpr, 0, plan.Run.length())
	for row := from; row <= plan.Run.To; row++ {
		rightChildren := make([]ruleset.Expr, 0, len(cols))
		for _, col := range cols {
			rowStmt, ok := m.cell(row, col).(*ruleset.ExpressionStmt)
			if !ok {
				return fmt.Errorf("optimizer: row %d missing expression statement in column %d", row, col)
			}
			rightChildren = append(rightChildren, rowStmt.Expr.Right)
		}
		elems = append(elems, ruleset.NewSetElem(ruleset.NewConcat(rightChildren...)))
	}

	primary := survStmts[0]
	primary.Expr.Left = ruleset.NewConcat(leftChildren...)
	primary.Expr.Right = ruleset.NewAnonymousSet(elems...)

	// The remaining participating columns' statements on the surviving rule
	// are now folded into the primary statement's concatenation; drop them
	// from the rule's statement list, preserving the order of what's left.
	drop := make(map[ruleset.Statement]bool, len(survStmts)-1)
	for _, s := range survStmts[1:] {
		drop[s] = true
	}
	kept := survivor.Statements[:0:0]
	for _, s := range survivor.Statements {
		if drop[s] {
			continue
		}
		kept = append(kept, s)
	}
	survivor.Statements = kept
	return nil
}
