package ruleset

// The C original tracks ownership of expression subtrees with manual
// reference counting (expr_get/expr_free). In this port each expression has
// exactly one parent slot in the tree at any time and the rewriter (see
// pkg/optimizer/rewriter.go) moves children out of a donor rule's slot and
// into a newly built parent before the donor rule is discarded, the same
// transfer the original makes explicit with expr_get followed by
// expr_free of the old slot. Go's garbage collector makes the free side of
// that a no-op; what's left to get right is the move itself, so these
// constructors only build nodes — there is no acquire/release pair to call.

// NewSetElem wraps v as a set member. Like every node the rewriter builds,
// the element itself is synthesized, not parsed from source text, so it is
// stamped with InternalLocation. InternalLocation carries no source text and
// compares equal to the zero Location.
func NewSetElem(v Expr) *SetElemExpr {
	return &SetElemExpr{Value: v, Location: InternalLocation}
}

// NewAnonymousSet builds a fresh anonymous set from already-constructed
// elements, in the order given.
func NewAnonymousSet(elems ...*SetElemExpr) *SetExpr {
	return &SetExpr{Elements: elems, Anonymous: true, Location: InternalLocation}
}

// NewConcat builds an ordered tuple expression from its children, in column
// order.
func NewConcat(children ...Expr) *ConcatExpr {
	return &ConcatExpr{Children: children, Location: InternalLocation}
}
