// Package vector builds similarity vectors. Each vector scores a geography
// on a fixed set of subcomponents against population-wide statistics, and
// the Euclidean distance between two vectors' weighted scores measures how
// alike the geographies are.
package vector

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/stats"
	"github.com/sells-group/geodata/internal/typecast"
)

// DefaultSpreadFactor is the number of standard deviations above the median
// at which a score saturates.
const DefaultSpreadFactor = 3.0

// ErrInsufficientData is returned when a row lacks a value a vector needs.
var ErrInsufficientData = eris.New("vector: not enough data")

// ErrUnknownMode is returned for a mode that has no weights.
var ErrUnknownMode = eris.New("vector: unknown mode")

// Options configures a Builder.
type Options struct {
	// SpreadFactor is K in the scoring function. Zero means
	// DefaultSpreadFactor.
	SpreadFactor float64
	// YearBuiltMissing lists median-year-built values treated as missing.
	YearBuiltMissing []float64
}

// Vector is a geography's raw subcomponents (RS), their scores (S) and the
// weighted scores of each mode (WS).
type Vector struct {
	model.Identity
	RS map[attr.Name]float64
	S  map[attr.Name]int
	WS map[attr.Mode]map[attr.Name]float64
}

// Key returns the vector's equality key.
func (v *Vector) Key() model.Key {
	return v.Identity.Key()
}

type reference struct {
	sub    attr.Subcomponent
	median float64
	stdDev float64
}

// Builder scores rows against a fixed set of population statistics.
type Builder struct {
	k          float64
	opts       stats.Options
	refs       []reference
	scorable   map[attr.Name]bool
	unscorable []attr.Name
}

// NewBuilder derives each subcomponent's median and standard deviation by
// applying the subcomponent's formula to the statistics of its codes.
// Subcomponents whose statistics are undefined are left out of every mode.
func NewBuilder(global stats.Global, opts Options) *Builder {
	k := opts.SpreadFactor
	if k == 0 {
		k = DefaultSpreadFactor
	}
	b := &Builder{
		k:        k,
		opts:     stats.Options{YearBuiltMissing: opts.YearBuiltMissing},
		scorable: make(map[attr.Name]bool),
	}

	log := zap.L().With(zap.String("component", "vector"))
	for _, sub := range attr.Subcomponents() {
		ref := reference{
			sub:    sub,
			median: evaluate(sub, global.Median) + sub.Offset,
			stdDev: evaluate(sub, global.StdDev),
		}
		if math.IsNaN(ref.median) || math.IsNaN(ref.stdDev) {
			b.unscorable = append(b.unscorable, sub.Name)
			log.Warn("vector: subcomponent unscorable, statistics undefined",
				zap.String("subcomponent", string(sub.Name)),
			)
			continue
		}
		b.scorable[sub.Name] = true
		b.refs = append(b.refs, ref)
	}
	return b
}

// SpreadFactor returns K.
func (b *Builder) SpreadFactor() float64 {
	return b.k
}

// Unscorable returns subcomponents excluded for lack of statistics.
func (b *Builder) Unscorable() []attr.Name {
	return append([]attr.Name(nil), b.unscorable...)
}

// Reference returns the median and standard deviation a subcomponent is
// scored against.
func (b *Builder) Reference(n attr.Name) (median, stdDev float64, ok bool) {
	for _, r := range b.refs {
		if r.sub.Name == n {
			return r.median, r.stdDev, true
		}
	}
	return math.NaN(), math.NaN(), false
}

// Build scores a row. It fails with ErrInsufficientData if any code a
// subcomponent needs is empty or non-numeric.
func (b *Builder) Build(row model.Row) (*Vector, error) {
	for _, c := range attr.BaseCodes() {
		if !row.Has(c) || typecast.IsMissing(row.Float(c)) {
			return nil, eris.Wrapf(ErrInsufficientData, "%s: %s", row.Name, c)
		}
		if c == attr.CodeMedianYearBuilt && b.opts.IsMissingYearBuilt(row.Float(c)) {
			return nil, eris.Wrapf(ErrInsufficientData, "%s: %s", row.Name, c)
		}
	}

	v := &Vector{
		Identity: row.Identity,
		RS:       make(map[attr.Name]float64, len(b.refs)),
		S:        make(map[attr.Name]int, len(b.refs)),
	}
	v.Counties = append([]string(nil), row.Counties...)

	for _, r := range b.refs {
		raw := evaluate(r.sub, row.Float) + r.sub.Offset
		v.RS[r.sub.Name] = raw
		v.S[r.sub.Name] = Score(raw, r.median, r.stdDev, b.k)
	}
	v.WS = b.weigh(v.S)
	return v, nil
}

func (b *Builder) weigh(s map[attr.Name]int) map[attr.Mode]map[attr.Name]float64 {
	ws := make(map[attr.Mode]map[attr.Name]float64)
	for _, m := range attr.Modes() {
		weights, _ := attr.ModeWeights(m)
		ws[m] = make(map[attr.Name]float64, len(weights))
		for _, w := range weights {
			if !b.scorable[w.Name] {
				continue
			}
			ws[m][w.Name] = float64(s[w.Name]) * w.Weight
		}
	}
	return ws
}

// Restore rebuilds a vector from previously computed values.
func Restore(id model.Identity, rs map[attr.Name]float64, s map[attr.Name]int, ws map[attr.Mode]map[attr.Name]float64) *Vector {
	return &Vector{Identity: id, RS: rs, S: s, WS: ws}
}

func evaluate(sub attr.Subcomponent, get func(attr.Code) float64) float64 {
	numer := sub.Numerator.Eval(get)
	if sub.Denominator == nil {
		return numer * sub.Scale
	}
	return typecast.SafeDiv(numer, sub.Denominator.Eval(get), 0) * sub.Scale
}

// Score maps a raw value v onto [0, 100] given median m, standard deviation
// d and spread factor k:
//
//	v < m            round(v/m * 50)
//	v == m           50
//	m < v < m + k*d  round(50 + (v-m)/(k*d) * 50)
//	otherwise        100
//
// A zero median scores positive values 100 and zero 50.
func Score(v, m, d, k float64) int {
	if m == 0 {
		switch {
		case v > 0:
			return 100
		case v == 0:
			return 50
		default:
			return 0
		}
	}
	var s float64
	switch {
	case v < m:
		s = math.RoundToEven(v / m * 50)
	case v == m:
		s = 50
	case v < m+k*d:
		s = math.RoundToEven(50 + (v-m)/(k*d)*50)
	default:
		s = 100
	}
	return int(math.Max(0, math.Min(100, s)))
}

// Distance is the Euclidean distance between two vectors' weighted scores
// in a mode. Subcomponents are summed in the mode's canonical order so the
// result is symmetric bit for bit.
func Distance(a, b *Vector, mode attr.Mode) (float64, error) {
	weights, ok := attr.ModeWeights(mode)
	if !ok {
		return 0, eris.Wrapf(ErrUnknownMode, "%q", mode)
	}
	var sum float64
	for _, w := range weights {
		x, okA := a.WS[mode][w.Name]
		y, okB := b.WS[mode][w.Name]
		if !okA || !okB {
			continue
		}
		d := x - y
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// ParseMode validates s as a scoring mode.
func ParseMode(s string) (attr.Mode, error) {
	m := attr.Mode(s)
	if _, ok := attr.ModeWeights(m); !ok {
		return "", eris.Wrapf(ErrUnknownMode, "%q", s)
	}
	return m, nil
}
