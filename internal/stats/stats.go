// Package stats computes population-wide medians and standard deviations of
// source attribute codes.
package stats

import (
	"math"
	"sort"

	moremath "github.com/aclements/go-moremath/stats"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/model"
)

// DefaultYearBuiltMissing is the median-year-built value the source uses for
// "no data". Some extracts also use 18; see Options.YearBuiltMissing.
var DefaultYearBuiltMissing = []float64{0}

// Options configures aggregation.
type Options struct {
	// YearBuiltMissing lists median-year-built values treated as missing.
	// Nil means DefaultYearBuiltMissing.
	YearBuiltMissing []float64
}

// YearBuiltSentinels returns a copy of the effective sentinel list. The
// result is never nil; an empty list means no value is treated as missing.
func (o Options) YearBuiltSentinels() []float64 {
	src := o.sentinels()
	return append(make([]float64, 0, len(src)), src...)
}

func (o Options) sentinels() []float64 {
	if o.YearBuiltMissing == nil {
		return DefaultYearBuiltMissing
	}
	return o.YearBuiltMissing
}

// IsMissingYearBuilt reports whether v is one of the configured sentinel
// values for median year built.
func (o Options) IsMissingYearBuilt(v float64) bool {
	for _, m := range o.sentinels() {
		if v == m {
			return true
		}
	}
	return false
}

// Summary describes one code across the population.
type Summary struct {
	Median float64
	StdDev float64
	N      int
}

// Defined reports whether both median and standard deviation are numbers.
func (s Summary) Defined() bool {
	return !math.IsNaN(s.Median) && !math.IsNaN(s.StdDev)
}

// Global maps codes to their population summaries. It is immutable once
// built.
type Global map[attr.Code]Summary

// Median returns the median of c, NaN if unknown.
func (g Global) Median(c attr.Code) float64 {
	s, ok := g[c]
	if !ok {
		return math.NaN()
	}
	return s.Median
}

// StdDev returns the sample standard deviation of c, NaN if unknown.
func (g Global) StdDev(c attr.Code) float64 {
	s, ok := g[c]
	if !ok {
		return math.NaN()
	}
	return s.StdDev
}

// Undefined returns the codes whose statistics could not be computed.
func (g Global) Undefined() []attr.Code {
	var out []attr.Code
	for c, s := range g {
		if !s.Defined() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Aggregate computes the median and sample standard deviation of each code
// over rows. Missing or non-numeric values are excluded per code, never
// coerced to zero. A code with no numeric values gets NaN statistics; a code
// with a single value gets a NaN standard deviation.
func Aggregate(rows []model.Row, codes []attr.Code, opts Options) Global {
	log := zap.L().With(zap.String("component", "stats"))

	g := make(Global, len(codes))
	for _, c := range codes {
		xs := make([]float64, 0, len(rows))
		for _, r := range rows {
			v := r.Float(c)
			if math.IsNaN(v) {
				continue
			}
			if c == attr.CodeMedianYearBuilt && opts.IsMissingYearBuilt(v) {
				continue
			}
			xs = append(xs, v)
		}
		g[c] = summarize(xs)

		if !g[c].Defined() {
			log.Warn("stats: statistics undefined",
				zap.String("code", string(c)),
				zap.Int("values", len(xs)),
			)
		}
	}
	return g
}

func summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{Median: math.NaN(), StdDev: math.NaN()}
	}
	s := moremath.Sample{Xs: xs}
	s.Sort()

	sum := Summary{Median: s.Quantile(0.5), StdDev: math.NaN(), N: len(xs)}
	if len(xs) > 1 {
		sum.StdDev = s.StdDev()
	}
	return sum
}
