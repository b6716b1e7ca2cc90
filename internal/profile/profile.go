// Package profile builds demographic profiles: the raw and derived values of
// one geography, with display strings for each.
package profile

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/typecast"
)

// Profile is a geography's raw components (RC), compounds (C) and their
// formatted forms (FC, FCD). A Profile is never mutated after Build.
type Profile struct {
	model.Identity
	// CountiesDisplay holds county names without the state.
	CountiesDisplay []string

	RC  map[attr.Name]float64
	C   map[attr.Name]float64
	FC  map[attr.Name]string
	FCD map[attr.Name]string
}

// Build derives a profile from a source row. Missing raw values are NaN;
// a compound whose denominator is zero is 0.
func Build(row model.Row, lk *geo.Lookup) *Profile {
	id := row.Identity
	id.Counties = countiesFor(row, lk)

	rc := make(map[attr.Name]float64)
	for _, comp := range attr.Components() {
		if comp.Raw == nil {
			continue
		}
		rc[comp.Name] = comp.Raw.Eval(row.Float)
	}

	return assemble(id, lk.DisplayNames(id.Counties), rc, compounds(rc))
}

// Restore rebuilds a profile from previously computed values.
func Restore(id model.Identity, countiesDisplay []string, rc, c map[attr.Name]float64) *Profile {
	return assemble(id, countiesDisplay, rc, c)
}

func assemble(id model.Identity, countiesDisplay []string, rc, c map[attr.Name]float64) *Profile {
	f := newFormatter()
	p := &Profile{
		Identity:        id,
		CountiesDisplay: countiesDisplay,
		RC:              rc,
		C:               c,
		FC:              make(map[attr.Name]string, len(rc)),
		FCD:             make(map[attr.Name]string, len(c)),
	}
	for n, v := range rc {
		p.FC[n] = f.raw(n, v)
	}
	for n, v := range c {
		p.FCD[n] = f.compound(n, v)
	}
	return p
}

func countiesFor(row model.Row, lk *geo.Lookup) []string {
	if row.SumLevel == geo.SumLevelPlace {
		if ids := lk.CountiesForPlace(row.GeoID); len(ids) > 0 {
			return ids
		}
	}
	return append([]string(nil), row.Counties...)
}

func compounds(rc map[attr.Name]float64) map[attr.Name]float64 {
	c := make(map[attr.Name]float64)
	for _, comp := range attr.Components() {
		cc := comp.Compound
		if cc == nil {
			continue
		}
		guarded := false
		for _, g := range cc.Guards {
			if rc[g] == 0 {
				guarded = true
			}
		}
		if guarded {
			c[comp.Name] = 0
			continue
		}
		c[comp.Name] = typecast.SafeDiv(rc[cc.Numerator], rc[cc.Denominator], 0) * cc.Scale
	}
	return c
}

// Key returns the profile's equality key.
func (p *Profile) Key() model.Key {
	return p.Identity.Key()
}

// Equal reports whether two profiles describe the same geography.
func (p *Profile) Equal(o *Profile) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Key() == o.Key()
}

// Value returns a raw component or compound. ok is false when the attribute
// has no value of that kind.
func (p *Profile) Value(n attr.Name, compound bool) (float64, bool) {
	var v float64
	var ok bool
	if compound {
		v, ok = p.C[n]
	} else {
		v, ok = p.RC[n]
	}
	return v, ok
}

// Point returns the geography's interior point, nil when unknown.
func (p *Profile) Point() *geom.Point {
	return geo.NewPoint(p.RC[attr.Latitude], p.RC[attr.Longitude])
}
