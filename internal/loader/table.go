// Package loader reads the source tables behind a product set: merged
// geography rows, the county reference tables and geographic headers from
// Census gazetteer files or TIGER shapefiles.
package loader

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/fetcher"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/model"
)

// Column names of the county reference tables.
const (
	ColPlaceGeoID  = "PLACE_GEOID"
	ColCountyGeoID = "COUNTY_GEOID"
)

// countySeparator splits the COUNTIES column of a row table.
const countySeparator = ";"

// Options configures how delimited tables are decoded.
type Options struct {
	// Encoding names the charset, e.g. "latin1". Empty means UTF-8.
	Encoding string
	// Delimiter defaults to ','.
	Delimiter rune
}

func (o Options) csv() fetcher.CSVOptions {
	return fetcher.CSVOptions{
		Delimiter:  o.Delimiter,
		Encoding:   o.Encoding,
		LazyQuotes: true,
		TrimSpace:  true,
	}
}

// table is a parsed delimited file with its header indexed by upper-cased
// column name.
type table struct {
	cols map[string]int
	rows [][]string
}

func readTable(ctx context.Context, r io.Reader, opts fetcher.CSVOptions, required ...string) (*table, error) {
	header, rows, err := fetcher.ReadTable(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	t := &table{cols: make(map[string]int, len(header)), rows: rows}
	for i, h := range header {
		h = strings.ToUpper(strings.TrimSpace(h))
		if _, dup := t.cols[h]; !dup {
			t.cols[h] = i
		}
	}
	for _, c := range required {
		if _, ok := t.cols[c]; !ok {
			return nil, eris.Errorf("loader: missing column %s", c)
		}
	}
	return t, nil
}

// get returns a row's value for col, "" when the column or cell is absent.
func (t *table) get(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadRows reads a merged row table. NAME and SUMLEVEL are required;
// GEOID, STUSAB and COUNTIES (GEOIDs joined by ';') are optional. Columns
// named after attribute codes become values; other columns are ignored.
func ReadRows(ctx context.Context, r io.Reader, opts Options) ([]model.Row, error) {
	t, err := readTable(ctx, r, opts.csv(), model.ColName, model.ColSumLevel)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read rows")
	}

	codes := make(map[attr.Code]int)
	for col, i := range t.cols {
		if c, ok := attr.ParseCode(col); ok {
			codes[c] = i
		}
	}
	if len(codes) == 0 {
		zap.L().With(zap.String("component", "loader")).Warn("loader: row table has no attribute columns")
	}

	rows := make([]model.Row, 0, len(t.rows))
	for n, rec := range t.rows {
		name := t.get(rec, model.ColName)
		if name == "" {
			continue
		}
		sl, err := geo.ParseSummaryLevel(t.get(rec, model.ColSumLevel))
		if err != nil {
			return nil, eris.Wrapf(err, "loader: row %d (%s)", n+2, name)
		}

		row := model.Row{
			Identity: model.Identity{
				Name:     name,
				SumLevel: sl,
				GeoID:    t.get(rec, model.ColGeoID),
				State:    stateOf(t.get(rec, model.ColState), name),
				Counties: splitCounties(t.get(rec, model.ColCounties)),
			},
			Values: make(map[attr.Code]string, len(codes)),
		}
		for c, i := range codes {
			if i < len(rec) {
				row.Values[c] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stateOf prefers an explicit USPS abbreviation and falls back to the
// state named at the end of the display label.
func stateOf(abbrev, name string) string {
	if st, ok := geo.StateByAbbrev(abbrev); ok {
		return st.Abbrev
	}
	if st, ok := geo.StateByName(geo.StateOf(name)); ok {
		return st.Abbrev
	}
	return strings.ToUpper(abbrev)
}

func splitCounties(s string) []string {
	var out []string
	for _, id := range strings.Split(s, countySeparator) {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, geo.ShortGeoID(id))
		}
	}
	return out
}

// ReadCounties reads a county table with GEOID and NAME columns, where NAME
// is the full label such as "Los Angeles County, California".
func ReadCounties(ctx context.Context, r io.Reader, opts Options) ([]geo.County, error) {
	t, err := readTable(ctx, r, opts.csv(), model.ColGeoID, model.ColName)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read counties")
	}
	out := make([]geo.County, 0, len(t.rows))
	for _, rec := range t.rows {
		id, name := t.get(rec, model.ColGeoID), t.get(rec, model.ColName)
		if id == "" || name == "" {
			continue
		}
		out = append(out, geo.County{GeoID: geo.ShortGeoID(id), Name: name})
	}
	return out, nil
}

// ReadPlaceCounties reads the place-to-county relationship table. A place
// spanning several counties has one line per county.
func ReadPlaceCounties(ctx context.Context, r io.Reader, opts Options) (map[string][]string, error) {
	t, err := readTable(ctx, r, opts.csv(), ColPlaceGeoID, ColCountyGeoID)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read place counties")
	}
	out := make(map[string][]string)
	for _, rec := range t.rows {
		place, county := t.get(rec, ColPlaceGeoID), t.get(rec, ColCountyGeoID)
		if place == "" || county == "" {
			continue
		}
		place = geo.ShortGeoID(place)
		out[place] = append(out[place], geo.ShortGeoID(county))
	}
	return out, nil
}
