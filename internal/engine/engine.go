// Package engine answers queries over the current product set: similarity
// neighbors, attribute rankings, name search and geographic distance.
package engine

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/filter"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/products"
	"github.com/sells-group/geodata/internal/profile"
	"github.com/sells-group/geodata/internal/search"
	"github.com/sells-group/geodata/internal/stats"
	"github.com/sells-group/geodata/internal/vector"
)

var (
	// ErrNotFound is returned when a named geography is not in the set.
	ErrNotFound = eris.New("engine: geography not found")
	// ErrNoCoordinates is returned when a geography has no interior point.
	ErrNoCoordinates = eris.New("engine: geography has no coordinates")
	// ErrNoProducts is returned when no product set has been loaded.
	ErrNoProducts = eris.New("engine: no products loaded")
)

// Engine serves queries against a product set that can be replaced
// atomically while queries run.
type Engine struct {
	set atomic.Pointer[products.Set]
	log *zap.Logger
}

// New returns an engine serving set. set may be nil until Swap is called.
func New(set *products.Set) *Engine {
	e := &Engine{log: zap.L().With(zap.String("component", "engine"))}
	if set != nil {
		e.set.Store(set)
	}
	return e
}

// Swap installs a new product set and returns the previous one.
func (e *Engine) Swap(set *products.Set) *products.Set {
	old := e.set.Swap(set)
	if set == nil {
		return old
	}
	e.log.Info("products swapped",
		zap.String("id", set.ID.String()),
		zap.Int("profiles", len(set.Profiles)),
		zap.Int("vectors", len(set.Vectors)),
	)
	return old
}

// Products returns the current product set.
func (e *Engine) Products() (*products.Set, error) {
	set := e.set.Load()
	if set == nil {
		return nil, ErrNoProducts
	}
	return set, nil
}

// Profile returns the profile of the named geography.
func (e *Engine) Profile(name string) (*profile.Profile, error) {
	set, err := e.Products()
	if err != nil {
		return nil, err
	}
	return profileOf(set, name)
}

func profileOf(set *products.Set, name string) (*profile.Profile, error) {
	p, ok := set.Profile(name)
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "%q", name)
	}
	return p, nil
}

// Vector returns the vector of the named geography. A geography whose
// vector could not be built yields vector.ErrInsufficientData.
func (e *Engine) Vector(name string) (*vector.Vector, error) {
	set, err := e.Products()
	if err != nil {
		return nil, err
	}
	return vectorOf(set, name)
}

func vectorOf(set *products.Set, name string) (*vector.Vector, error) {
	if v, ok := set.Vector(name); ok {
		return v, nil
	}
	if _, ok := set.Profile(name); ok {
		return nil, eris.Wrapf(vector.ErrInsufficientData, "%q", name)
	}
	return nil, eris.Wrapf(ErrNotFound, "%q", name)
}

// Neighbor is a vector and its distance from a query target.
type Neighbor struct {
	Vector   *vector.Vector
	Distance float64
}

// CompareVectors returns the n vectors closest to the named geography in
// mode, nearest first. Candidates come from ctx, or from the target's
// summary level when ctx is zero. The target itself is excluded.
func (e *Engine) CompareVectors(name string, ctx filter.Context, mode attr.Mode, n int) ([]Neighbor, error) {
	set, err := e.Products()
	if err != nil {
		return nil, err
	}
	if _, err := vector.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	target, err := vectorOf(set, name)
	if err != nil {
		return nil, err
	}
	if ctx.IsZero() {
		ctx = filter.Context{Universe: target.SumLevel}
	}
	pool, err := filter.Apply(set.Vectors, ctx, set.Lookup)
	if err != nil {
		return nil, err
	}

	out := make([]Neighbor, 0, len(pool))
	for _, v := range pool {
		if v.Key() == target.Key() {
			continue
		}
		d, err := vector.Distance(target, v, mode)
		if err != nil {
			return nil, err
		}
		out = append(out, Neighbor{Vector: v, Distance: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return limit(out, n), nil
}

// RankQuery selects and orders profiles by one attribute.
type RankQuery struct {
	Attribute attr.Name
	Kind      filter.Kind
	Context   filter.Context
	Filter    filter.Filter
	// Lowest sorts ascending.
	Lowest bool
	N      int
}

// Ranked is a profile and the value it was ranked by.
type Ranked struct {
	Profile *profile.Profile
	Value   float64
}

// RankByAttribute returns the profiles inside q.Context that satisfy
// q.Filter, ordered by q.Attribute. Missing values are never ranked.
func (e *Engine) RankByAttribute(q RankQuery) ([]Ranked, error) {
	set, err := e.Products()
	if err != nil {
		return nil, err
	}
	compound := q.Kind.Resolve(q.Attribute)
	switch {
	case !attr.HasRaw(q.Attribute) && !attr.HasCompound(q.Attribute):
		return nil, eris.Wrapf(filter.ErrMalformed, "unknown attribute %q", q.Attribute)
	case compound && !attr.HasCompound(q.Attribute):
		return nil, eris.Wrapf(filter.ErrMalformed, "%s has no compound", q.Attribute)
	case !compound && !attr.HasRaw(q.Attribute):
		return nil, eris.Wrapf(filter.ErrMalformed, "%s has no raw component", q.Attribute)
	}

	pool, err := filter.Select(set.Profiles, q.Context, q.Filter, set.Lookup)
	if err != nil {
		return nil, err
	}

	yearBuilt := stats.Options{YearBuiltMissing: set.YearBuiltMissing}
	out := make([]Ranked, 0, len(pool))
	for _, p := range pool {
		v, ok := p.Value(q.Attribute, compound)
		if !ok || math.IsNaN(v) {
			continue
		}
		if q.Attribute == attr.MedianYearStructureBuilt && yearBuilt.IsMissingYearBuilt(v) {
			continue
		}
		out = append(out, Ranked{Profile: p, Value: v})
	}
	if q.Lowest {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	}
	return limit(out, q.N), nil
}

// Select returns up to n profiles inside ctx that satisfy f, in row order.
// n <= 0 returns them all.
func (e *Engine) Select(ctx filter.Context, f filter.Filter, n int) ([]*profile.Profile, error) {
	set, err := e.Products()
	if err != nil {
		return nil, err
	}
	pool, err := filter.Select(set.Profiles, ctx, f, set.Lookup)
	if err != nil {
		return nil, err
	}
	return limit(pool, n), nil
}

// SearchByName ranks every profile by how well its name matches query.
func (e *Engine) SearchByName(query string, n int) ([]search.Match[*profile.Profile], error) {
	set, err := e.Products()
	if err != nil {
		return nil, err
	}
	return search.Rank(query, set.Profiles, func(p *profile.Profile) string { return p.Name }, n), nil
}

// PairwiseDistance returns the great-circle distance between two named
// geographies.
func (e *Engine) PairwiseDistance(a, b string, unit geo.Unit) (float64, error) {
	set, err := e.Products()
	if err != nil {
		return 0, err
	}
	pa, err := profileOf(set, a)
	if err != nil {
		return 0, err
	}
	pb, err := profileOf(set, b)
	if err != nil {
		return 0, err
	}
	x, y := pa.Point(), pb.Point()
	if x == nil {
		return 0, eris.Wrapf(ErrNoCoordinates, "%q", pa.Name)
	}
	if y == nil {
		return 0, eris.Wrapf(ErrNoCoordinates, "%q", pb.Name)
	}
	return geo.Distance(x, y, unit), nil
}

// Nearby is a profile and its great-circle distance from a query target.
type Nearby struct {
	Profile  *profile.Profile
	Distance float64
}

// ClosestGeographies returns the n profiles geographically closest to the
// named geography. Candidates come from ctx and f, or from the target's
// summary level when ctx is zero. The target and candidates without
// coordinates are excluded.
func (e *Engine) ClosestGeographies(name string, ctx filter.Context, f filter.Filter, unit geo.Unit, n int) ([]Nearby, error) {
	set, err := e.Products()
	if err != nil {
		return nil, err
	}
	target, err := profileOf(set, name)
	if err != nil {
		return nil, err
	}
	origin := target.Point()
	if origin == nil {
		return nil, eris.Wrapf(ErrNoCoordinates, "%q", target.Name)
	}
	if ctx.IsZero() {
		ctx = filter.Context{Universe: target.SumLevel}
	}
	pool, err := filter.Select(set.Profiles, ctx, f, set.Lookup)
	if err != nil {
		return nil, err
	}

	out := make([]Nearby, 0, len(pool))
	for _, p := range pool {
		if p.Equal(target) {
			continue
		}
		pt := p.Point()
		if pt == nil {
			continue
		}
		out = append(out, Nearby{Profile: p, Distance: geo.Distance(origin, pt, unit)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return limit(out, n), nil
}

func limit[T any](xs []T, n int) []T {
	if n > 0 && n < len(xs) {
		return xs[:n]
	}
	return xs
}
