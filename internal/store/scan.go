package store

import (
	"github.com/sells-group/geodata/internal/geo"
)

// scannable is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scannable) (snapshotRow, error) {
	var r snapshotRow
	err := row.Scan(&r.ID, &r.BuiltAt, &r.SpreadBits, &r.YearBuiltMissing, &r.Unscorable, &r.Profiles, &r.Vectors)
	return r, err
}

func scanGeography(row scannable) (geographyRow, error) {
	var g geographyRow
	err := row.Scan(&g.Ord, &g.SumLevel, &g.Name, &g.GeoID, &g.State, &g.Counties, &g.CountiesDisplay, &g.Point, &g.HasVector)
	return g, err
}

func scanValue(row scannable) (valueRow, error) {
	var v valueRow
	err := row.Scan(&v.Ord, &v.Kind, &v.Attribute, &v.Bits)
	return v, err
}

func scanStat(row scannable) (statRow, error) {
	var s statRow
	err := row.Scan(&s.Code, &s.MedianBits, &s.StdDevBits, &s.N)
	return s, err
}

func scanCounty(row scannable) (geo.County, error) {
	var c geo.County
	err := row.Scan(&c.GeoID, &c.Name)
	return c, err
}

func scanPair(row scannable) ([2]string, error) {
	var p [2]string
	err := row.Scan(&p[0], &p[1])
	return p, err
}

func newLookup(counties []geo.County, pairs [][2]string) *geo.Lookup {
	placeCounties := make(map[string][]string)
	for _, p := range pairs {
		placeCounties[p[0]] = append(placeCounties[p[0]], p[1])
	}
	return geo.NewLookup(counties, placeCounties)
}
