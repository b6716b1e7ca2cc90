package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/model"
)

func rows(code attr.Code, values ...string) []model.Row {
	out := make([]model.Row, len(values))
	for i, v := range values {
		out[i] = model.Row{Identity: model.Identity{Name: "row"}, Values: map[attr.Code]string{code: v}}
	}
	return out
}

func TestAggregateMedianAndStdDev(t *testing.T) {
	g := Aggregate(rows(attr.CodePerCapitaIncome, "10", "20", "30", "40"), []attr.Code{attr.CodePerCapitaIncome}, Options{})

	s := g[attr.CodePerCapitaIncome]
	assert.Equal(t, 4, s.N)
	assert.InDelta(t, 25, s.Median, 1e-9)
	// sample standard deviation, n-1 in the denominator
	assert.InDelta(t, math.Sqrt(500.0/3), s.StdDev, 1e-9)
	assert.True(t, s.Defined())
}

func TestAggregateOddCount(t *testing.T) {
	g := Aggregate(rows(attr.CodePopulation, "5", "1", "3"), []attr.Code{attr.CodePopulation}, Options{})
	assert.InDelta(t, 3, g.Median(attr.CodePopulation), 1e-9)
	assert.InDelta(t, 2, g.StdDev(attr.CodePopulation), 1e-9)
}

func TestAggregateExcludesMissing(t *testing.T) {
	// Missing values must be excluded, not counted as zero.
	g := Aggregate(rows(attr.CodePopulation, "100", "", "N/A", "300", "-"), []attr.Code{attr.CodePopulation}, Options{})

	s := g[attr.CodePopulation]
	assert.Equal(t, 2, s.N)
	assert.InDelta(t, 200, s.Median, 1e-9)
}

func TestAggregateUndefined(t *testing.T) {
	g := Aggregate(rows(attr.CodePopulation, "", "N/A"), []attr.Code{attr.CodePopulation, attr.CodeLandArea}, Options{})

	assert.True(t, math.IsNaN(g.Median(attr.CodePopulation)))
	assert.True(t, math.IsNaN(g.StdDev(attr.CodePopulation)))
	assert.Equal(t, []attr.Code{attr.CodeLandArea, attr.CodePopulation}, g.Undefined())
}

func TestAggregateSingleValue(t *testing.T) {
	g := Aggregate(rows(attr.CodePopulation, "42"), []attr.Code{attr.CodePopulation}, Options{})

	s := g[attr.CodePopulation]
	assert.InDelta(t, 42, s.Median, 1e-9)
	assert.True(t, math.IsNaN(s.StdDev))
	assert.False(t, s.Defined())
}

func TestAggregateYearBuiltSentinel(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantN      int
		wantMedian float64
	}{
		{name: "default drops zero", opts: Options{}, wantN: 4, wantMedian: 1970},
		{name: "configured drops zero and 18", opts: Options{YearBuiltMissing: []float64{0, 18}}, wantN: 3, wantMedian: 1980},
		{name: "empty list keeps everything", opts: Options{YearBuiltMissing: []float64{}}, wantN: 5, wantMedian: 1960},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Aggregate(rows(attr.CodeMedianYearBuilt, "1960", "0", "18", "1980", "1990"),
				[]attr.Code{attr.CodeMedianYearBuilt}, tt.opts)
			s := g[attr.CodeMedianYearBuilt]
			assert.Equal(t, tt.wantN, s.N)
			assert.InDelta(t, tt.wantMedian, s.Median, 1e-9)
		})
	}
}

func TestSentinelOnlyAppliesToYearBuilt(t *testing.T) {
	g := Aggregate(rows(attr.CodeMedianRent, "0", "0", "1000"), []attr.Code{attr.CodeMedianRent}, Options{})
	require.Equal(t, 3, g[attr.CodeMedianRent].N)
	assert.InDelta(t, 0, g.Median(attr.CodeMedianRent), 1e-9)
}

func TestGlobalUnknownCode(t *testing.T) {
	g := Global{}
	assert.True(t, math.IsNaN(g.Median(attr.CodePopulation)))
	assert.True(t, math.IsNaN(g.StdDev(attr.CodePopulation)))
}
