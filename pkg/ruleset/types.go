// Package ruleset is the data model the optimizer operates on: the tagged
// statement/expression variants of a packet-filter rule language, plus the
// rules, chains and tables that group them.
//
// This is deliberately a thin AST, not a bytecode or wire encoding — parsing
// rule text into this tree, printing it back out, and serializing it over
// netlink are all the job of collaborators outside this package (see
// location.go and print.go for the contracts those collaborators implement).
package ruleset

import "math/big"

// StmtKind tags the variant held by a Statement.
type StmtKind int

// Statement kinds the equality predicate understands. Any kind not listed
// here is Unsupported and never compares equal to anything, which is the
// safe default for a statement this package doesn't know how to reason
// about.
const (
	StmtUnsupported StmtKind = iota
	StmtExpression
	StmtCounter
	StmtNotrack
	StmtVerdict
	StmtLimit
	StmtLog
	StmtReject
)

func (k StmtKind) String() string {
	switch k {
	case StmtExpression:
		return "expression"
	case StmtCounter:
		return "counter"
	case StmtNotrack:
		return "notrack"
	case StmtVerdict:
		return "verdict"
	case StmtLimit:
		return "limit"
	case StmtLog:
		return "log"
	case StmtReject:
		return "reject"
	default:
		return "unsupported"
	}
}

// Statement is one element of a Rule: either a match (ExpressionStmt) or an
// action/modifier (counter, log, limit, verdict, reject, notrack, ...).
type Statement interface {
	// Kind reports which variant this statement is.
	Kind() StmtKind
}

// ExpressionStmt wraps a match expression — the statement form used when a
// rule tests a selector against a value. Expr is expected to be a
// *RelationalExpr; any other left-hand form stored here is not a selector
// the optimizer can merge on, so it simply never finds a matching column.
type ExpressionStmt struct {
	Expr *RelationalExpr
}

func (*ExpressionStmt) Kind() StmtKind { return StmtExpression }

// CounterStmt is the packet/byte counter statement. Two counters are equal
// whenever they're both present, regardless of their accumulated values; a
// merged rule keeps the first rule's counter with its values unchanged.
type CounterStmt struct {
	Packets uint64
	Bytes   uint64
}

func (*CounterStmt) Kind() StmtKind { return StmtCounter }

// NotrackStmt disables connection tracking for the packet. No fields.
type NotrackStmt struct{}

func (*NotrackStmt) Kind() StmtKind { return StmtNotrack }

// VerdictCode names the terminating or flow-control action of a VerdictStmt.
type VerdictCode int

const (
	VerdictAccept VerdictCode = iota
	VerdictDrop
	VerdictContinue
	VerdictReturn
	VerdictJump
	VerdictGoto
)

// VerdictStmt issues a verdict, optionally naming a target chain for Jump
// and Goto.
type VerdictStmt struct {
	Code  VerdictCode
	Chain *ChainRefExpr // nil unless Code is Jump or Goto
}

func (*VerdictStmt) Kind() StmtKind { return StmtVerdict }

// LimitType distinguishes packet-rate from byte-rate limiting.
type LimitType int

const (
	LimitPackets LimitType = iota
	LimitBytes
)

// LimitStmt throttles matches to a rate. All fields participate in equality.
type LimitStmt struct {
	Rate  uint64
	Unit  uint64 // seconds the Rate is measured over
	Burst uint64
	Type  LimitType
	Flags uint32
}

func (*LimitStmt) Kind() StmtKind { return StmtLimit }

// LogStmt sends matching packets to the kernel log. Prefix must be a
// *ValueExpr holding an identifier; only immediate-valued prefixes with
// equal content compare equal.
type LogStmt struct {
	Prefix     *ValueExpr
	Snaplen    uint32
	Group      uint16
	QThreshold uint16
	Level      uint32
	LogFlags   uint32
	Flags      uint32
}

func (*LogStmt) Kind() StmtKind { return StmtLog }

// RejectType distinguishes the kind of rejection response sent.
type RejectType int

const (
	RejectICMPUnreachable RejectType = iota
	RejectTCPReset
	RejectICMPXUnreachable
)

// RejectStmt sends a rejection response instead of silently dropping.
// Extended carries an optional expression payload; a merge candidate's
// Reject statement must have Extended == nil on both sides.
type RejectStmt struct {
	Extended Expr // must be nil for equality to hold
	Family   uint8
	Type     RejectType
	ICMPCode uint8
}

func (*RejectStmt) Kind() StmtKind { return StmtReject }

// UnsupportedStmt is a placeholder for any statement kind the optimizer does
// not implement equality for. It is never equal to anything, including
// another UnsupportedStmt, which keeps a rule containing one from ever being
// folded into a merge run.
type UnsupportedStmt struct {
	Name string
}

func (*UnsupportedStmt) Kind() StmtKind { return StmtUnsupported }

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// ExprKind tags the variant held by an Expr.
type ExprKind int

const (
	ExprPayload ExprKind = iota
	ExprExthdr
	ExprMeta
	ExprCt
	ExprRt
	ExprSocket
	ExprRelational
	ExprValue
	ExprSet
	ExprSetElem
	ExprConcat
	ExprVerdictValue
	ExprChainRef
)

// Expr is the tagged union of expression variants this module understands.
type Expr interface {
	Kind() ExprKind
}

// PayloadDescriptor and PayloadTemplate are opaque handles into the protocol
// header database (e.g. "the IPv4 header", "the dport field of a transport
// header"). They are interned by whoever builds the tree (DecodeTable's
// decoder in decode.go does so for YAML input) and compared by pointer
// identity, matching the C original's comparison of desc/tmpl pointers.
type PayloadDescriptor struct{ Name string }
type PayloadTemplate struct{ Name string }

// PayloadExpr selects a field out of a packet header, e.g. "tcp dport".
type PayloadExpr struct {
	Desc *PayloadDescriptor
	Tmpl *PayloadTemplate
}

func (*PayloadExpr) Kind() ExprKind { return ExprPayload }

// ExthdrDescriptor and ExthdrTemplate are the IPv6 extension-header analog of
// PayloadDescriptor/PayloadTemplate.
type ExthdrDescriptor struct{ Name string }
type ExthdrTemplate struct{ Name string }

// ExthdrExpr selects a field out of an IPv6 extension header.
type ExthdrExpr struct {
	Desc *ExthdrDescriptor
	Tmpl *ExthdrTemplate
}

func (*ExthdrExpr) Kind() ExprKind { return ExprExthdr }

// MetaKey names a piece of packet metadata (interface index, mark, ...).
type MetaKey int

// MetaBase distinguishes which packet the metadata is read from in cases
// where more than one is in scope (e.g. tunnel vs. outer packet).
type MetaBase int

// MetaExpr reads a metadata field, e.g. "meta iif".
type MetaExpr struct {
	Key  MetaKey
	Base MetaBase
}

func (*MetaExpr) Kind() ExprKind { return ExprMeta }

// CtKey names a connection-tracking field.
type CtKey int

// CtDirection selects the original or reply direction of a tracked
// connection.
type CtDirection int

// CtExpr reads a connection-tracking field, e.g. "ct state".
type CtExpr struct {
	Key      CtKey
	Base     MetaBase
	Dir      CtDirection
	NfProto  uint8
}

func (*CtExpr) Kind() ExprKind { return ExprCt }

// RtKey names a routing-table derived field, e.g. "rt classid".
type RtKey int

// RtExpr reads a routing-derived field.
type RtExpr struct {
	Key RtKey
}

func (*RtExpr) Kind() ExprKind { return ExprRt }

// SocketKey names a socket-derived field, e.g. "socket mark".
type SocketKey int

// SocketExpr reads a field from the originating socket.
type SocketExpr struct {
	Key   SocketKey
	Level uint32
}

func (*SocketExpr) Kind() ExprKind { return ExprSocket }

// RelOp names a relational comparison operator.
type RelOp int

const (
	RelEq RelOp = iota
	RelNeq
	RelLt
	RelLte
	RelGt
	RelGte
)

// RelationalExpr is the "match" form: a selector compared against a value.
// The optimizer's equality predicate compares Left structurally but
// deliberately ignores Right — differing Right values are exactly what gets
// merged.
type RelationalExpr struct {
	Left  Expr
	Op    RelOp
	Right Expr
}

func (*RelationalExpr) Kind() ExprKind { return ExprRelational }

// ValueExpr is an immediate: either an arbitrary-precision integer or an
// identifier string, never both.
type ValueExpr struct {
	Int        *big.Int
	Identifier string
}

func (*ValueExpr) Kind() ExprKind { return ExprValue }

// IsIdentifier reports whether this value carries an identifier rather than
// an integer.
func (v *ValueExpr) IsIdentifier() bool { return v.Int == nil }

// SetElemExpr wraps a single value as a set member. An element synthesized
// by the rewriter carries InternalLocation (see pkg/ruleset/build.go), which
// is the zero Location value.
type SetElemExpr struct {
	Value    Expr
	Location Location
}

func (*SetElemExpr) Kind() ExprKind { return ExprSetElem }

// SetExpr is a compound of SetElemExpr children. Anonymous sets (the only
// kind this optimizer constructs) are unnamed and exist solely as the
// right-hand side of one rewritten match; every anonymous set the rewriter
// builds carries InternalLocation.
type SetExpr struct {
	Elements  []*SetElemExpr
	Anonymous bool
	Location  Location
}

func (*SetExpr) Kind() ExprKind { return ExprSet }

// ConcatExpr is an ordered tuple of sub-expressions, used both as a compound
// selector (left-hand side of a multi-selector merge) and as the element
// type of a set built from such a selector (right-hand side). Every
// ConcatExpr the rewriter builds carries InternalLocation.
type ConcatExpr struct {
	Children []Expr
	Location Location
}

func (*ConcatExpr) Kind() ExprKind { return ExprConcat }

// VerdictValueExpr carries a verdict as a value, used inside a VerdictStmt.
// It is distinct from VerdictStmt itself because a verdict can also appear
// as ordinary data (e.g. inside a map) in the full language; this optimizer
// only ever reads it off a VerdictStmt.
type VerdictValueExpr struct {
	Code  VerdictCode
	Chain *ChainRefExpr
}

func (*VerdictValueExpr) Kind() ExprKind { return ExprVerdictValue }

// ChainRefExpr names a target chain. Only an identifier-valued chain
// reference is supported for equality purposes; a reference resolved to a
// concrete *Chain still carries the identifier it was written with so the
// comparison in equality.go can stay textual, matching the original's
// strcmp over expr->chain->identifier.
type ChainRefExpr struct {
	Name  string
	Chain *Chain // resolved target, nil until the owning table links it
}

func (*ChainRefExpr) Kind() ExprKind { return ExprChainRef }
