package ruleset

import (
	"fmt"
	"math/big"

	yaml "gopkg.in/yaml.v2"
)

// document is the on-disk shape of a table: the same level of detail a CLI
// front-end or test fixture would hand to this module once parsing and
// grammar concerns are somebody else's problem.
type document struct {
	Table tableDoc `yaml:"table"`
}

type tableDoc struct {
	Name   string     `yaml:"name"`
	Family string     `yaml:"family"`
	Chains []chainDoc `yaml:"chains"`
}

type chainDoc struct {
	Name      string     `yaml:"name"`
	HWOffload bool       `yaml:"hw_offload"`
	Rules     []ruleDoc  `yaml:"rules"`
}

type ruleDoc struct {
	Line       string          `yaml:"line"`
	Statements []statementDoc  `yaml:"statements"`
}

type statementDoc struct {
	Kind     string      `yaml:"kind"`
	Expr     *exprDoc    `yaml:"expr,omitempty"`
	Verdict  *verdictDoc `yaml:"verdict,omitempty"`
	Limit    *limitDoc   `yaml:"limit,omitempty"`
	Log      *logDoc     `yaml:"log,omitempty"`
	Reject   *rejectDoc  `yaml:"reject,omitempty"`
	Name     string      `yaml:"name,omitempty"` // StmtUnsupported's label
}

type exprDoc struct {
	Selector selectorDoc `yaml:"selector"`
	Op       string      `yaml:"op,omitempty"`
	Value    valueDoc    `yaml:"value"`
}

type selectorDoc struct {
	Kind  string `yaml:"kind"`
	Proto string `yaml:"proto,omitempty"`
	Field string `yaml:"field,omitempty"`
	Key   string `yaml:"key,omitempty"`
}

type valueDoc struct {
	Int        string `yaml:"int,omitempty"`
	Identifier string `yaml:"identifier,omitempty"`
}

type verdictDoc struct {
	Code  string `yaml:"code"`
	Chain string `yaml:"chain,omitempty"`
}

type limitDoc struct {
	Rate  uint64 `yaml:"rate"`
	Unit  uint64 `yaml:"unit"`
	Burst uint64 `yaml:"burst"`
	Type  string `yaml:"type,omitempty"`
	Flags uint32 `yaml:"flags,omitempty"`
}

type logDoc struct {
	Prefix     string `yaml:"prefix,omitempty"`
	Snaplen    uint32 `yaml:"snaplen,omitempty"`
	Group      uint16 `yaml:"group,omitempty"`
	QThreshold uint16 `yaml:"qthreshold,omitempty"`
	Level      uint32 `yaml:"level,omitempty"`
	LogFlags   uint32 `yaml:"logflags,omitempty"`
	Flags      uint32 `yaml:"flags,omitempty"`
}

type rejectDoc struct {
	Type     string `yaml:"type,omitempty"`
	Family   uint8  `yaml:"family,omitempty"`
	ICMPCode uint8  `yaml:"icmp_code,omitempty"`
}

// decoder interns PayloadDescriptor/PayloadTemplate/ExthdrDescriptor/
// ExthdrTemplate pointers across a whole document, since the optimizer's
// equality predicate compares those by pointer identity. Two "tcp dport"
// selectors decoded separately must come out as the same *PayloadTemplate
// or they will never be judged mergeable.
type decoder struct {
	payloadDescs map[string]*PayloadDescriptor
	payloadTmpls map[string]*PayloadTemplate
	exthdrDescs  map[string]*ExthdrDescriptor
	exthdrTmpls  map[string]*ExthdrTemplate
	chains       map[string]*Chain
}

func newDecoder() *decoder {
	return &decoder{
		payloadDescs: map[string]*PayloadDescriptor{},
		payloadTmpls: map[string]*PayloadTemplate{},
		exthdrDescs:  map[string]*ExthdrDescriptor{},
		exthdrTmpls:  map[string]*ExthdrTemplate{},
		chains:       map[string]*Chain{},
	}
}

// DecodeTable parses a YAML table document into a *Table. Every chain
// reference (jump/goto targets) is resolved against the chains defined in
// the same document; a reference to an unknown chain is left with a nil
// Chain and only its Name is usable.
func DecodeTable(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ruleset: decode table: %w", err)
	}

	d := newDecoder()
	table := &Table{
		Name:   doc.Table.Name,
		Family: doc.Table.Family,
		Chains: map[string]*Chain{},
	}

	// First pass: create every chain so forward references (a jump to a
	// chain defined later in the file) resolve.
	for _, cd := range doc.Table.Chains {
		c := &Chain{Name: cd.Name}
		if cd.HWOffload {
			c.Flags |= ChainFlagHWOffload
		}
		table.Chains[cd.Name] = c
		d.chains[cd.Name] = c
	}

	// Second pass: decode rules now that every chain has a home.
	for _, cd := range doc.Table.Chains {
		c := table.Chains[cd.Name]
		for _, rd := range cd.Rules {
			r, err := d.decodeRule(rd)
			if err != nil {
				return nil, fmt.Errorf("ruleset: chain %q: %w", cd.Name, err)
			}
			c.Rules = append(c.Rules, r)
		}
	}

	// Verdict statements that jump or goto count as a use of their target.
	for _, c := range table.Chains {
		for _, r := range c.Rules {
			for _, s := range r.Statements {
				v, ok := s.(*VerdictStmt)
				if !ok || v.Chain == nil || v.Chain.Chain == nil {
					continue
				}
				v.Chain.Chain.ChainUse++
			}
		}
	}

	return table, nil
}

func (d *decoder) decodeRule(rd ruleDoc) (*Rule, error) {
	loc := Location{Indesc: InputDescBuffer, Data: rd.Line}
	r := &Rule{Location: loc}
	for _, sd := range rd.Statements {
		s, err := d.decodeStatement(sd)
		if err != nil {
			return nil, err
		}
		r.Statements = append(r.Statements, s)
	}
	return r, nil
}

func (d *decoder) decodeStatement(sd statementDoc) (Statement, error) {
	switch sd.Kind {
	case "expression":
		if sd.Expr == nil {
			return nil, fmt.Errorf("expression statement missing expr")
		}
		rel, err := d.decodeRelational(*sd.Expr)
		if err != nil {
			return nil, err
		}
		return &ExpressionStmt{Expr: rel}, nil
	case "counter":
		return &CounterStmt{}, nil
	case "notrack":
		return &NotrackStmt{}, nil
	case "verdict":
		if sd.Verdict == nil {
			return nil, fmt.Errorf("verdict statement missing verdict")
		}
		return d.decodeVerdictStmt(*sd.Verdict)
	case "limit":
		if sd.Limit == nil {
			return nil, fmt.Errorf("limit statement missing limit")
		}
		lt := LimitPackets
		if sd.Limit.Type == "bytes" {
			lt = LimitBytes
		}
		return &LimitStmt{Rate: sd.Limit.Rate, Unit: sd.Limit.Unit, Burst: sd.Limit.Burst, Type: lt, Flags: sd.Limit.Flags}, nil
	case "log":
		ld := sd.Log
		if ld == nil {
			ld = &logDoc{}
		}
		var prefix *ValueExpr
		if ld.Prefix != "" {
			prefix = &ValueExpr{Identifier: ld.Prefix}
		}
		return &LogStmt{Prefix: prefix, Snaplen: ld.Snaplen, Group: ld.Group, QThreshold: ld.QThreshold, Level: ld.Level, LogFlags: ld.LogFlags, Flags: ld.Flags}, nil
	case "reject":
		rd := sd.Reject
		if rd == nil {
			rd = &rejectDoc{}
		}
		rt := RejectICMPUnreachable
		switch rd.Type {
		case "tcp-reset":
			rt = RejectTCPReset
		case "icmpx-unreachable":
			rt = RejectICMPXUnreachable
		}
		return &RejectStmt{Family: rd.Family, Type: rt, ICMPCode: rd.ICMPCode}, nil
	case "unsupported", "":
		return &UnsupportedStmt{Name: sd.Name}, nil
	default:
		return &UnsupportedStmt{Name: sd.Kind}, nil
	}
}

func (d *decoder) decodeVerdictStmt(vd verdictDoc) (*VerdictStmt, error) {
	code, err := verdictCodeByName(vd.Code)
	if err != nil {
		return nil, err
	}
	v := &VerdictStmt{Code: code}
	if code == VerdictJump || code == VerdictGoto {
		v.Chain = d.chainRef(vd.Chain)
	}
	return v, nil
}

func (d *decoder) chainRef(name string) *ChainRefExpr {
	return &ChainRefExpr{Name: name, Chain: d.chains[name]}
}

func verdictCodeByName(name string) (VerdictCode, error) {
	switch name {
	case "accept":
		return VerdictAccept, nil
	case "drop":
		return VerdictDrop, nil
	case "continue":
		return VerdictContinue, nil
	case "return":
		return VerdictReturn, nil
	case "jump":
		return VerdictJump, nil
	case "goto":
		return VerdictGoto, nil
	default:
		return 0, fmt.Errorf("unknown verdict code %q", name)
	}
}

func (d *decoder) decodeRelational(ed exprDoc) (*RelationalExpr, error) {
	left, err := d.decodeSelector(ed.Selector)
	if err != nil {
		return nil, err
	}
	op := RelEq
	switch ed.Op {
	case "", "eq":
		op = RelEq
	case "neq":
		op = RelNeq
	case "lt":
		op = RelLt
	case "lte":
		op = RelLte
	case "gt":
		op = RelGt
	case "gte":
		op = RelGte
	default:
		return nil, fmt.Errorf("unknown relational op %q", ed.Op)
	}
	right, err := d.decodeValue(ed.Value)
	if err != nil {
		return nil, err
	}
	return &RelationalExpr{Left: left, Op: op, Right: right}, nil
}

func (d *decoder) decodeSelector(sd selectorDoc) (Expr, error) {
	switch sd.Kind {
	case "payload":
		return &PayloadExpr{Desc: d.internPayloadDesc(sd.Proto), Tmpl: d.internPayloadTmpl(sd.Proto, sd.Field)}, nil
	case "exthdr":
		return &ExthdrExpr{Desc: d.internExthdrDesc(sd.Proto), Tmpl: d.internExthdrTmpl(sd.Proto, sd.Field)}, nil
	case "meta":
		k, err := metaKeyByName(sd.Key)
		if err != nil {
			return nil, err
		}
		return &MetaExpr{Key: k}, nil
	case "ct":
		k, err := ctKeyByName(sd.Key)
		if err != nil {
			return nil, err
		}
		return &CtExpr{Key: k}, nil
	case "rt":
		k, err := rtKeyByName(sd.Key)
		if err != nil {
			return nil, err
		}
		return &RtExpr{Key: k}, nil
	case "socket":
		k, err := socketKeyByName(sd.Key)
		if err != nil {
			return nil, err
		}
		return &SocketExpr{Key: k}, nil
	default:
		return nil, fmt.Errorf("unknown selector kind %q", sd.Kind)
	}
}

func (d *decoder) decodeValue(vd valueDoc) (Expr, error) {
	if vd.Identifier != "" {
		return &ValueExpr{Identifier: vd.Identifier}, nil
	}
	if vd.Int == "" {
		return nil, fmt.Errorf("value has neither int nor identifier")
	}
	n := new(big.Int)
	if _, ok := n.SetString(vd.Int, 0); !ok {
		return nil, fmt.Errorf("invalid integer value %q", vd.Int)
	}
	return &ValueExpr{Int: n}, nil
}

func (d *decoder) internPayloadDesc(proto string) *PayloadDescriptor {
	if desc, ok := d.payloadDescs[proto]; ok {
		return desc
	}
	desc := &PayloadDescriptor{Name: proto}
	d.payloadDescs[proto] = desc
	return desc
}

func (d *decoder) internPayloadTmpl(proto, field string) *PayloadTemplate {
	key := proto + "." + field
	if tmpl, ok := d.payloadTmpls[key]; ok {
		return tmpl
	}
	tmpl := &PayloadTemplate{Name: field}
	d.payloadTmpls[key] = tmpl
	return tmpl
}

func (d *decoder) internExthdrDesc(proto string) *ExthdrDescriptor {
	if desc, ok := d.exthdrDescs[proto]; ok {
		return desc
	}
	desc := &ExthdrDescriptor{Name: proto}
	d.exthdrDescs[proto] = desc
	return desc
}

func (d *decoder) internExthdrTmpl(proto, field string) *ExthdrTemplate {
	key := proto + "." + field
	if tmpl, ok := d.exthdrTmpls[key]; ok {
		return tmpl
	}
	tmpl := &ExthdrTemplate{Name: field}
	d.exthdrTmpls[key] = tmpl
	return tmpl
}

func metaKeyByName(name string) (MetaKey, error) {
	for k, v := range metaKeyNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown meta key %q", name)
}

func ctKeyByName(name string) (CtKey, error) {
	for k, v := range ctKeyNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown ct key %q", name)
}

func rtKeyByName(name string) (RtKey, error) {
	for k, v := range rtKeyNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown rt key %q", name)
}

func socketKeyByName(name string) (SocketKey, error) {
	for k, v := range socketKeyNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown socket key %q", name)
}
