package ruleset

import (
	"fmt"
	"strings"
)

// RulePrinter renders a Rule back to text. The optimizer package depends
// only on this interface, never on a concrete renderer, so a caller with a
// full grammar-aware printer can swap it in without touching the merge
// logic; cmd/ruleopt uses TextPrinter below.
type RulePrinter interface {
	PrintRule(r *Rule) string
	PrintStatement(s Statement) string
	PrintExpr(e Expr) string
}

// TextPrinter is a reference renderer good enough to echo merged rules in
// diagnostics and test fixtures. It is not a parser-grade pretty-printer:
// unsupported and exotic statement kinds fall back to a generic form rather
// than round-tripping exactly.
type TextPrinter struct{}

// PrintRule implements RulePrinter.
func (TextPrinter) PrintRule(r *Rule) string {
	parts := make([]string, 0, len(r.Statements))
	p := TextPrinter{}
	for _, s := range r.Statements {
		parts = append(parts, p.PrintStatement(s))
	}
	return strings.Join(parts, " ")
}

// PrintStatement implements RulePrinter.
func (p TextPrinter) PrintStatement(s Statement) string {
	switch st := s.(type) {
	case *ExpressionStmt:
		return p.PrintExpr(st.Expr)
	case *CounterStmt:
		return "counter"
	case *NotrackStmt:
		return "notrack"
	case *VerdictStmt:
		return p.printVerdict(st.Code, st.Chain)
	case *LimitStmt:
		unit := "second"
		if st.Unit != 1 {
			unit = fmt.Sprintf("%d seconds", st.Unit)
		}
		kind := "packets"
		if st.Type == LimitBytes {
			kind = "bytes"
		}
		if st.Burst != 0 {
			return fmt.Sprintf("limit rate %d/%s %s burst %d %s", st.Rate, unit, kind, st.Burst, kind)
		}
		return fmt.Sprintf("limit rate %d/%s %s", st.Rate, unit, kind)
	case *LogStmt:
		if st.Prefix != nil {
			return fmt.Sprintf("log prefix %q", st.Prefix.Identifier)
		}
		return "log"
	case *RejectStmt:
		switch st.Type {
		case RejectTCPReset:
			return "reject with tcp reset"
		case RejectICMPXUnreachable:
			return "reject with icmpx type admin-prohibited"
		default:
			return "reject"
		}
	case *UnsupportedStmt:
		return fmt.Sprintf("<unsupported %s>", st.Name)
	default:
		return "<unknown statement>"
	}
}

func (p TextPrinter) printVerdict(code VerdictCode, chain *ChainRefExpr) string {
	switch code {
	case VerdictJump:
		return "jump " + chainName(chain)
	case VerdictGoto:
		return "goto " + chainName(chain)
	default:
		return code.String()
	}
}

func chainName(c *ChainRefExpr) string {
	if c == nil {
		return "<nil chain>"
	}
	return c.Name
}

// PrintExpr implements RulePrinter.
func (p TextPrinter) PrintExpr(e Expr) string {
	switch ex := e.(type) {
	case *PayloadExpr:
		return fmt.Sprintf("%s %s", ex.Desc.Name, ex.Tmpl.Name)
	case *ExthdrExpr:
		return fmt.Sprintf("%s %s", ex.Desc.Name, ex.Tmpl.Name)
	case *MetaExpr:
		return "meta " + ex.Key.String()
	case *CtExpr:
		return "ct " + ex.Key.String()
	case *RtExpr:
		return "rt " + ex.Key.String()
	case *SocketExpr:
		return "socket " + ex.Key.String()
	case *RelationalExpr:
		if ex.Op == RelEq {
			return fmt.Sprintf("%s %s", p.PrintExpr(ex.Left), p.PrintExpr(ex.Right))
		}
		return fmt.Sprintf("%s %s %s", p.PrintExpr(ex.Left), ex.Op.String(), p.PrintExpr(ex.Right))
	case *ValueExpr:
		if ex.IsIdentifier() {
			return ex.Identifier
		}
		return ex.Int.String()
	case *SetElemExpr:
		return p.PrintExpr(ex.Value)
	case *SetExpr:
		parts := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			parts[i] = p.PrintExpr(el)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ConcatExpr:
		parts := make([]string, len(ex.Children))
		for i, c := range ex.Children {
			parts[i] = p.PrintExpr(c)
		}
		return strings.Join(parts, " . ")
	case *VerdictValueExpr:
		return p.printVerdict(ex.Code, ex.Chain)
	case *ChainRefExpr:
		return ex.Name
	default:
		return "<unknown expr>"
	}
}
