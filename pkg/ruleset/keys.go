package ruleset

// Named MetaKey values covering the subset this module prints and tests
// against. The full language has many more (see
// include/uapi/linux/netfilter/nf_tables.h); keys outside this set still
// compare correctly by value, they just print as "meta key(unknown)".
const (
	MetaIIFName MetaKey = iota + 1
	MetaOIFName
	MetaMark
	MetaL4Proto
	MetaNFProto
	MetaProtocol
	MetaPriority
)

var metaKeyNames = map[MetaKey]string{
	MetaIIFName:  "iifname",
	MetaOIFName:  "oifname",
	MetaMark:     "mark",
	MetaL4Proto:  "l4proto",
	MetaNFProto:  "nfproto",
	MetaProtocol: "protocol",
	MetaPriority: "priority",
}

func (k MetaKey) String() string {
	if n, ok := metaKeyNames[k]; ok {
		return n
	}
	return "meta key(unknown)"
}

// MetaBase values. Base selects which packet ("this" one, or an outer/inner
// tunnel header) a meta/ct read is relative to; BaseNone is the common case.
const (
	BaseNone MetaBase = iota
	BaseTunnel
	BaseBridge
)

// Named CtKey values.
const (
	CtState CtKey = iota + 1
	CtStatus
	CtMark
	CtDirectionKey
)

var ctKeyNames = map[CtKey]string{
	CtState:        "state",
	CtStatus:       "status",
	CtMark:         "mark",
	CtDirectionKey: "direction",
}

func (k CtKey) String() string {
	if n, ok := ctKeyNames[k]; ok {
		return n
	}
	return "ct key(unknown)"
}

// CtDirection values.
const (
	CtDirOriginal CtDirection = iota
	CtDirReply
)

// Named RtKey values.
const (
	RtClassID RtKey = iota + 1
	RtNextHop
)

var rtKeyNames = map[RtKey]string{
	RtClassID: "classid",
	RtNextHop: "nexthop",
}

func (k RtKey) String() string {
	if n, ok := rtKeyNames[k]; ok {
		return n
	}
	return "rt key(unknown)"
}

// Named SocketKey values.
const (
	SocketMark SocketKey = iota + 1
	SocketTransparent
)

var socketKeyNames = map[SocketKey]string{
	SocketMark:        "mark",
	SocketTransparent: "transparent",
}

func (k SocketKey) String() string {
	if n, ok := socketKeyNames[k]; ok {
		return n
	}
	return "socket key(unknown)"
}

func (op RelOp) String() string {
	switch op {
	case RelEq:
		return "=="
	case RelNeq:
		return "!="
	case RelLt:
		return "<"
	case RelLte:
		return "<="
	case RelGt:
		return ">"
	case RelGte:
		return ">="
	default:
		return "?"
	}
}

func (c VerdictCode) String() string {
	switch c {
	case VerdictAccept:
		return "accept"
	case VerdictDrop:
		return "drop"
	case VerdictContinue:
		return "continue"
	case VerdictReturn:
		return "return"
	case VerdictJump:
		return "jump"
	case VerdictGoto:
		return "goto"
	default:
		return "unknown"
	}
}
