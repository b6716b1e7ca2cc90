package model

import (
	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/typecast"
)

// Identity column names of a source geography row.
const (
	ColName     = "NAME"
	ColSumLevel = "SUMLEVEL"
	ColGeoID    = "GEOID"
	ColState    = "STUSAB"
	ColCounties = "COUNTIES"
)

// Identity names a geography. Geographies are unique by (SumLevel, Name).
type Identity struct {
	Name     string
	SumLevel geo.SummaryLevel
	GeoID    string
	// State is the USPS abbreviation.
	State string
	// Counties lists containing county GEOIDs.
	Counties []string
}

// Key returns the identity's equality key.
func (id Identity) Key() Key {
	return Key{SumLevel: id.SumLevel, Name: id.Name}
}

// Ident returns the identity itself, so types embedding Identity expose it
// through an interface.
func (id Identity) Ident() Identity {
	return id
}

// Key is the equality key of a geography.
type Key struct {
	SumLevel geo.SummaryLevel
	Name     string
}

// Row is one geography's merged source record. Values are kept as the raw
// strings from the source; an empty string means no data.
type Row struct {
	Identity
	Values map[attr.Code]string
}

// Value returns the raw string for a code.
func (r Row) Value(c attr.Code) string {
	return r.Values[c]
}

// Float returns a code's value coerced to a number, NaN when missing.
func (r Row) Float(c attr.Code) float64 {
	v, ok := r.Values[c]
	if !ok {
		return typecast.Missing
	}
	return typecast.Float(v)
}

// Has reports whether a code carries a non-empty value.
func (r Row) Has(c attr.Code) bool {
	return r.Values[c] != ""
}
