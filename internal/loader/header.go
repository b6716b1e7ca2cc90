package loader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/fetcher"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/typecast"
)

// SquareMetersPerSquareMile converts TIGER ALAND values to square miles.
const SquareMetersPerSquareMile = 2589988.110336

// Gazetteer column names.
const (
	colUSPS      = "USPS"
	colLandSqMi  = "ALAND_SQMI"
	colLatitude  = "INTPTLAT"
	colLongitude = "INTPTLONG"
)

// TIGER/Line attribute names.
const (
	fieldGeoID     = "geoid"
	fieldStateFP   = "statefp"
	fieldLand      = "aland"
	fieldLatitude  = "intptlat"
	fieldLongitude = "intptlon"
)

// GeoHeader is the geographic part of a geography: its land area and
// internal point. Unknown values are NaN.
type GeoHeader struct {
	GeoID    string
	State    string
	LandArea float64 // square miles
	Lat      float64
	Lon      float64
}

// Headers maps short GEOIDs to geographic headers.
type Headers map[string]GeoHeader

// ReadGazetteer reads a tab-separated Census gazetteer file.
func ReadGazetteer(ctx context.Context, r io.Reader, opts Options) (Headers, error) {
	csvOpts := opts.csv()
	csvOpts.Delimiter = '\t'
	t, err := readTable(ctx, r, csvOpts, model.ColGeoID)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read gazetteer")
	}

	out := make(Headers, len(t.rows))
	for _, rec := range t.rows {
		id := geo.ShortGeoID(t.get(rec, model.ColGeoID))
		if id == "" {
			continue
		}
		out[id] = GeoHeader{
			GeoID:    id,
			State:    strings.ToUpper(t.get(rec, colUSPS)),
			LandArea: typecast.Float(t.get(rec, colLandSqMi)),
			Lat:      typecast.Float(t.get(rec, colLatitude)),
			Lon:      typecast.Float(t.get(rec, colLongitude)),
		}
	}
	return out, nil
}

// ReadShapefileHeaders reads the attribute table of a TIGER/Line
// shapefile. path may name the .shp file or a ZIP archive holding it.
func ReadShapefileHeaders(path string) (Headers, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		dir, err := os.MkdirTemp("", "geodata-shp-")
		if err != nil {
			return nil, eris.Wrap(err, "loader: create temp dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck

		files, err := fetcher.ExtractZIP(path, dir)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: extract %s", path)
		}
		shpPath, err := fetcher.FindByExt(files, ".shp")
		if err != nil {
			return nil, eris.Wrapf(err, "loader: %s", path)
		}
		path = shpPath
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	if _, ok := fieldIdx[fieldGeoID]; !ok {
		return nil, eris.Errorf("loader: shapefile %s has no GEOID field", path)
	}
	attribute := func(name string) string {
		idx, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	out := make(Headers)
	var skipped int
	for reader.Next() {
		id := attribute(fieldGeoID)
		if id == "" {
			skipped++
			continue
		}
		h := GeoHeader{
			GeoID:    id,
			LandArea: typecast.Float(attribute(fieldLand)) / SquareMetersPerSquareMile,
			Lat:      typecast.Float(attribute(fieldLatitude)),
			Lon:      typecast.Float(attribute(fieldLongitude)),
		}
		if st, ok := geo.StateByFIPS(attribute(fieldStateFP)); ok {
			h.State = st.Abbrev
		}
		out[id] = h
	}

	if skipped > 0 {
		zap.L().Debug("loader: skipped shapefile records without GEOID",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

// Merge fills each row's land area and internal point from the header with
// the same GEOID. Values already present in a row are kept. It returns the
// number of rows that matched a header.
func (h Headers) Merge(rows []model.Row) int {
	matched := 0
	for i := range rows {
		hdr, ok := h[geo.ShortGeoID(rows[i].GeoID)]
		if !ok || rows[i].GeoID == "" {
			continue
		}
		matched++
		if rows[i].Values == nil {
			rows[i].Values = make(map[attr.Code]string)
		}
		fill(rows[i], attr.CodeLandArea, hdr.LandArea)
		fill(rows[i], attr.CodeLatitude, hdr.Lat)
		fill(rows[i], attr.CodeLongitude, hdr.Lon)
		if rows[i].State == "" {
			rows[i].State = hdr.State
		}
	}
	return matched
}

func fill(row model.Row, c attr.Code, v float64) {
	if row.Has(c) || typecast.IsMissing(v) {
		return
	}
	row.Values[c] = strconv.FormatFloat(v, 'f', -1, 64)
}
