package loader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/fetcher"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/model"
)

// Sources names the input files of a load. Each entry is a local path or
// an http(s) URL; delimited tables may also be ZIP archives holding a
// single table.
type Sources struct {
	Rows          []string
	Counties      string
	PlaceCounties string
	Gazetteers    []string
	Shapefiles    []string
}

// Result is everything a product build needs.
type Result struct {
	Rows   []model.Row
	Lookup *geo.Lookup
	// Absent lists known attribute codes that no row carries a value for.
	Absent []attr.Code
}

// Load reads every source. Geographic headers from gazetteers and
// shapefiles are merged into the rows by GEOID, earlier sources first.
func Load(ctx context.Context, f fetcher.Fetcher, src Sources, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "loader"))
	if len(src.Rows) == 0 {
		return nil, eris.New("loader: no row tables given")
	}

	dir, err := os.MkdirTemp("", "geodata-load-")
	if err != nil {
		return nil, eris.Wrap(err, "loader: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	res := &Result{}
	for _, loc := range src.Rows {
		var rows []model.Row
		err := withTable(ctx, f, loc, dir, func(r io.Reader) error {
			var err error
			rows, err = ReadRows(ctx, r, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
		log.Info("rows loaded", zap.String("source", loc), zap.Int("rows", len(rows)))
		res.Rows = append(res.Rows, rows...)
	}

	var counties []geo.County
	if src.Counties != "" {
		err := withTable(ctx, f, src.Counties, dir, func(r io.Reader) error {
			var err error
			counties, err = ReadCounties(ctx, r, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	var placeCounties map[string][]string
	if src.PlaceCounties != "" {
		err := withTable(ctx, f, src.PlaceCounties, dir, func(r io.Reader) error {
			var err error
			placeCounties, err = ReadPlaceCounties(ctx, r, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	res.Lookup = geo.NewLookup(counties, placeCounties)

	for _, loc := range src.Gazetteers {
		var headers Headers
		err := withTable(ctx, f, loc, dir, func(r io.Reader) error {
			var err error
			headers, err = ReadGazetteer(ctx, r, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
		log.Info("gazetteer merged", zap.String("source", loc), zap.Int("matched", headers.Merge(res.Rows)))
	}
	for _, loc := range src.Shapefiles {
		path, err := fetcher.Localize(ctx, f, loc, dir)
		if err != nil {
			return nil, err
		}
		headers, err := ReadShapefileHeaders(path)
		if err != nil {
			return nil, err
		}
		log.Info("shapefile merged", zap.String("source", loc), zap.Int("matched", headers.Merge(res.Rows)))
	}

	res.Absent = absentCodes(res.Rows)
	if len(res.Absent) > 0 {
		log.Warn("loader: attribute codes absent from every row", zap.Int("codes", len(res.Absent)))
	}

	log.Info("sources loaded",
		zap.Int("rows", len(res.Rows)),
		zap.Int("counties", len(counties)),
		zap.Int("places_with_counties", len(placeCounties)),
	)
	return res, nil
}

func absentCodes(rows []model.Row) []attr.Code {
	var out []attr.Code
	for _, c := range attr.Codes() {
		found := false
		for _, r := range rows {
			if r.Has(c) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, c)
		}
	}
	return out
}

// withTable localizes loc and passes its contents to read. A ZIP archive is
// unpacked and its single delimited table read instead.
func withTable(ctx context.Context, f fetcher.Fetcher, loc, dir string, read func(io.Reader) error) error {
	path, err := fetcher.Localize(ctx, f, loc, dir)
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".zip") {
		extractDir, err := os.MkdirTemp(dir, "zip-")
		if err != nil {
			return eris.Wrap(err, "loader: create temp dir")
		}
		files, err := fetcher.ExtractZIP(path, extractDir)
		if err != nil {
			return eris.Wrapf(err, "loader: extract %s", loc)
		}
		if path, err = tableIn(files); err != nil {
			return eris.Wrapf(err, "loader: %s", loc)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "loader: open %s", loc)
	}
	defer file.Close() //nolint:errcheck

	if err := read(file); err != nil {
		return eris.Wrapf(err, "loader: %s", loc)
	}
	return nil
}

func tableIn(files []string) (string, error) {
	for _, ext := range []string{".txt", ".csv", ".tsv"} {
		if p, err := fetcher.FindByExt(files, ext); err == nil {
			return p, nil
		}
	}
	return "", eris.New("no delimited table in archive")
}
