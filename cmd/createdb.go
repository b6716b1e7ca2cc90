package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/fetcher"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/loader"
	"github.com/sells-group/geodata/internal/products"
)

var createdbCmd = &cobra.Command{
	Use:     "createdb",
	Aliases: []string{"c"},
	Short:   "Build products from Census tables and save a snapshot",
	Long: `Reads geography rows, county reference tables and geographic headers,
builds demographic profiles and similarity vectors, and saves them as a new
snapshot in the configured store.

Every source may be a local path or an http(s) URL. Delimited tables may be
ZIP archives holding a single table; shapefiles may be TIGER/Line ZIPs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "createdb"))

		rows, _ := cmd.Flags().GetStringSlice("rows")
		counties, _ := cmd.Flags().GetString("counties")
		placeCounties, _ := cmd.Flags().GetString("place-counties")
		gazetteers, _ := cmd.Flags().GetStringSlice("gazetteer")
		shapefiles, _ := cmd.Flags().GetStringSlice("shapefile")
		encoding, _ := cmd.Flags().GetString("encoding")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		src := loader.Sources{
			Rows:          rows,
			Counties:      counties,
			PlaceCounties: placeCounties,
			Gazetteers:    gazetteers,
			Shapefiles:    shapefiles,
		}
		loadOpts := loader.Options{
			Encoding:  cfg.Load.Encoding,
			Delimiter: []rune(cfg.Load.Delimiter)[0],
		}
		if encoding != "" {
			loadOpts.Encoding = encoding
		}
		if concurrency == 0 {
			concurrency = cfg.Build.Concurrency
		}

		log.Info("loading sources",
			zap.Strings("rows", src.Rows),
			zap.Int("gazetteers", len(src.Gazetteers)),
			zap.Int("shapefiles", len(src.Shapefiles)),
			zap.String("encoding", loadOpts.Encoding),
		)

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		res, err := loader.Load(ctx, f, src, loadOpts)
		if err != nil {
			return eris.Wrap(err, "createdb: load")
		}

		set, err := products.Build(ctx, res.Rows, res.Lookup, products.Options{
			SpreadFactor:     cfg.Scoring.SpreadFactor,
			YearBuiltMissing: cfg.Scoring.YearBuiltMissing,
			Concurrency:      concurrency,
		})
		if err != nil {
			return eris.Wrap(err, "createdb: build")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.SaveProducts(ctx, set); err != nil {
			return eris.Wrap(err, "createdb: save")
		}

		formatBuildSummary(os.Stdout, set, res.Absent)
		return nil
	},
}

// formatBuildSummary writes the saved snapshot's counts per summary level
// and what the sources lacked.
func formatBuildSummary(out io.Writer, set *products.Set, absent []attr.Code) {
	_, _ = fmt.Fprintf(out, "Snapshot %s saved: %d profiles, %d vectors\n", set.ID, len(set.Profiles), len(set.Vectors))

	profiles := make(map[geo.SummaryLevel]int)
	for _, p := range set.Profiles {
		profiles[p.SumLevel]++
	}
	vectors := make(map[geo.SummaryLevel]int)
	for _, v := range set.Vectors {
		vectors[v.SumLevel]++
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LEVEL\tPROFILES\tVECTORS")
	for _, sl := range geo.SummaryLevels() {
		if profiles[sl] == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", sl.Label(), profiles[sl], vectors[sl])
	}
	_ = w.Flush()

	if len(absent) > 0 {
		_, _ = fmt.Fprintf(out, "Codes missing from every source: %v\n", absent)
	}
	if len(set.Unscorable) > 0 {
		_, _ = fmt.Fprintf(out, "Unscorable attributes dropped from vectors: %v\n", set.Unscorable)
	}
}

func init() {
	createdbCmd.Flags().StringSlice("rows", nil, "geography row tables (NAME, SUMLEVEL, GEOID and attribute code columns)")
	createdbCmd.Flags().String("counties", "", "county table (GEOID, NAME)")
	createdbCmd.Flags().String("place-counties", "", "place-to-county table (PLACE_GEOID, COUNTY_GEOID)")
	createdbCmd.Flags().StringSlice("gazetteer", nil, "Census gazetteer files for land area and interior points")
	createdbCmd.Flags().StringSlice("shapefile", nil, "TIGER/Line shapefiles for land area and interior points")
	createdbCmd.Flags().String("encoding", "", "source text encoding (default: from config)")
	createdbCmd.Flags().Int("concurrency", 0, "parallel profile/vector builders (default: from config)")
	_ = createdbCmd.MarkFlagRequired("rows")
	rootCmd.AddCommand(createdbCmd)
}
