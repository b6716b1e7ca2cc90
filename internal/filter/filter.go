package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/typecast"
)

// Op is a comparison operator.
type Op string

// Comparison operators.
const (
	OpGT   Op = "gt"
	OpGTEQ Op = "gteq"
	OpEQ   Op = "eq"
	OpLTEQ Op = "lteq"
	OpLT   Op = "lt"
)

func parseOp(s string) (Op, bool) {
	switch op := Op(strings.ToLower(s)); op {
	case OpGT, OpGTEQ, OpEQ, OpLTEQ, OpLT:
		return op, true
	default:
		return "", false
	}
}

func (o Op) compare(a, b float64) bool {
	switch o {
	case OpGT:
		return a > b
	case OpGTEQ:
		return a >= b
	case OpEQ:
		return a == b
	case OpLTEQ:
		return a <= b
	case OpLT:
		return a < b
	default:
		return false
	}
}

// Kind selects whether a clause reads raw components or compounds.
type Kind int

// Value kinds.
const (
	// KindAuto reads the compound when the attribute has one, else the raw
	// component.
	KindAuto Kind = iota
	KindRaw
	KindCompound
)

// ParseKind accepts "c"/"rc"/"raw" for raw components and "cc"/"compound"
// for compounds. An empty string is KindAuto.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return KindAuto, nil
	case "c", "rc", "raw":
		return KindRaw, nil
	case "cc", "compound":
		return KindCompound, nil
	default:
		return KindAuto, eris.Wrapf(ErrMalformed, "unknown value kind %q", s)
	}
}

// Resolve reports whether kind k reads the compound of n.
func (k Kind) Resolve(n attr.Name) bool {
	switch k {
	case KindRaw:
		return false
	case KindCompound:
		return true
	default:
		return attr.HasCompound(n)
	}
}

// Clause compares one attribute against a constant.
type Clause struct {
	Attribute attr.Name
	Op        Op
	Value     float64
	Kind      Kind
}

// String renders the clause in filter syntax.
func (c Clause) String() string {
	s := string(c.Attribute) + ":" + string(c.Op) + ":" + strconv.FormatFloat(c.Value, 'f', -1, 64)
	switch c.Kind {
	case KindRaw:
		s += ":c"
	case KindCompound:
		s += ":cc"
	}
	return s
}

// Valued exposes attribute values to filter clauses.
type Valued interface {
	Value(n attr.Name, compound bool) (float64, bool)
}

// Match reports whether v satisfies the clause. Missing values never match.
func (c Clause) Match(v Valued) bool {
	x, ok := v.Value(c.Attribute, c.Kind.Resolve(c.Attribute))
	if !ok || math.IsNaN(x) {
		return false
	}
	return c.Op.compare(x, c.Value)
}

// Filter is a conjunction of clauses.
type Filter []Clause

// String renders the filter in expression syntax.
func (f Filter) String() string {
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = c.String()
	}
	return strings.Join(parts, "+")
}

// Match reports whether v satisfies every clause.
func (f Filter) Match(v Valued) bool {
	for _, c := range f {
		if !c.Match(v) {
			return false
		}
	}
	return true
}

// ParseFilter parses clauses of the form "attr:op:value[:kind]" joined by
// "+". Any malformed clause fails the whole filter.
func ParseFilter(s string) (Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var f Filter
	for _, raw := range strings.Split(s, "+") {
		c, err := parseClause(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "clause %q", raw)
		}
		f = append(f, c)
	}
	return f, nil
}

func parseClause(s string) (Clause, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Clause{}, eris.Wrap(ErrMalformed, "want attr:op:value[:kind]")
	}

	name, err := attr.ParseName(parts[0])
	if err != nil {
		return Clause{}, eris.Wrapf(ErrMalformed, "unknown attribute %q", parts[0])
	}
	op, ok := parseOp(parts[1])
	if !ok {
		return Clause{}, eris.Wrapf(ErrMalformed, "unknown operator %q", parts[1])
	}
	value := typecast.Float(parts[2])
	if typecast.IsMissing(value) {
		return Clause{}, eris.Wrapf(ErrMalformed, "non-numeric value %q", parts[2])
	}
	kind := KindAuto
	if len(parts) == 4 {
		if kind, err = ParseKind(parts[3]); err != nil {
			return Clause{}, err
		}
	}

	c := Clause{Attribute: name, Op: op, Value: value, Kind: kind}
	if c.Kind.Resolve(name) && !attr.HasCompound(name) {
		return Clause{}, eris.Wrapf(ErrMalformed, "%s has no compound", name)
	}
	if !c.Kind.Resolve(name) && !attr.HasRaw(name) {
		return Clause{}, eris.Wrapf(ErrMalformed, "%s has no raw component", name)
	}
	return c, nil
}

// Located exposes a geography's identity to context matching.
type Located interface {
	Ident() model.Identity
}

// Subject is anything a context and filter can both be applied to.
type Subject interface {
	Located
	Valued
}

// matcher is a context with its county key already resolved.
type matcher struct {
	ctx          Context
	countyGeoID  string
	zipNameStart string
}

func newMatcher(c Context, lk *geo.Lookup) (matcher, error) {
	m := matcher{ctx: c}
	switch c.Group.Kind {
	case GroupCounty:
		county, ok := lk.CountyByKey(c.Group.CountyKey())
		if !ok {
			return matcher{}, eris.Wrapf(ErrMalformed, "unknown county %q", c.Group.String())
		}
		m.countyGeoID = county.GeoID
	case GroupZipPrefix:
		m.zipNameStart = "ZCTA5 " + c.Group.Prefix
	}
	return m, nil
}

func (m matcher) match(id model.Identity) bool {
	if m.ctx.Universe != "" && id.SumLevel != m.ctx.Universe {
		return false
	}
	switch m.ctx.Group.Kind {
	case GroupState:
		return strings.EqualFold(id.State, m.ctx.Group.State)
	case GroupCounty:
		if id.SumLevel == geo.SumLevelCounty && geo.ShortGeoID(id.GeoID) == m.countyGeoID {
			return true
		}
		for _, c := range id.Counties {
			if geo.ShortGeoID(c) == m.countyGeoID {
				return true
			}
		}
		return false
	case GroupZipPrefix:
		return strings.HasPrefix(id.Name, m.zipNameStart)
	default:
		return true
	}
}

// Apply keeps the items inside context c, preserving order. It fails when
// a county group names a county the lookup does not know.
func Apply[T Located](items []T, c Context, lk *geo.Lookup) ([]T, error) {
	m, err := newMatcher(c, lk)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if m.match(it.Ident()) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Select keeps the items inside context c that satisfy every clause of f,
// preserving order.
func Select[T Subject](items []T, c Context, f Filter, lk *geo.Lookup) ([]T, error) {
	m, err := newMatcher(c, lk)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if m.match(it.Ident()) && f.Match(it) {
			out = append(out, it)
		}
	}
	return out, nil
}
