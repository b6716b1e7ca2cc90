package geo

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Unit is a distance unit.
type Unit string

// Distance units.
const (
	Miles      Unit = "mi"
	Kilometers Unit = "km"
)

// Mean earth radius.
const (
	earthRadiusKM    = 6371.0088
	earthRadiusMiles = 3958.7613
)

// ParseUnit accepts "mi", "miles", "km" or "kilometers".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mi", "mile", "miles":
		return Miles, nil
	case "km", "kilometer", "kilometers", "kilometre", "kilometres":
		return Kilometers, nil
	default:
		return "", eris.Errorf("geo: unknown distance unit %q", s)
	}
}

// NewPoint returns a WGS84 point for a latitude/longitude pair. It returns
// nil if either coordinate is NaN or out of range.
func NewPoint(lat, lon float64) *geom.Point {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return nil
	}
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
}

// Distance returns the great-circle distance between two WGS84 points.
func Distance(a, b *geom.Point, unit Unit) float64 {
	if a == nil || b == nil {
		return math.NaN()
	}
	lat1 := a.Y() * math.Pi / 180
	lat2 := b.Y() * math.Pi / 180
	dLat := (b.Y() - a.Y()) * math.Pi / 180
	dLon := (b.X() - a.X()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	if unit == Kilometers {
		return earthRadiusKM * c
	}
	return earthRadiusMiles * c
}
