package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/engine"
	"github.com/sells-group/geodata/internal/filter"
	"github.com/sells-group/geodata/internal/store"
)

// openStore connects to the configured store and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// loadEngine loads the snapshot named by --snapshot, or the latest one,
// into a new engine.
func loadEngine(cmd *cobra.Command) (*engine.Engine, error) {
	ctx := cmd.Context()

	id := uuid.Nil
	if s, _ := cmd.Flags().GetString("snapshot"); s != "" {
		parsed, err := uuid.Parse(s)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid snapshot ID %q", s)
		}
		id = parsed
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	set, err := st.LoadProducts(ctx, id)
	if err != nil {
		if eris.Is(err, store.ErrNoSnapshots) {
			return nil, eris.Wrap(err, "no data; run 'geodata createdb' first")
		}
		return nil, err
	}
	return engine.New(set), nil
}

// queryFlags registers the shared selection flags.
func queryFlags(cmd *cobra.Command, withFilter bool) {
	cmd.Flags().StringP("context", "c", "", "geographies to consider, e.g. p+ca, c+ca:losangeles, 902")
	if withFilter {
		cmd.Flags().StringP("filter", "f", "", "filter clauses, e.g. population:gt:50000+median_rent:lt:1500")
	}
	cmd.Flags().IntP("n", "n", 0, "number of rows to display (default: from config)")
}

// selection is the parsed form of the shared selection flags.
type selection struct {
	ctx    filter.Context
	filter filter.Filter
	n      int
}

func parseSelection(cmd *cobra.Command, defaultN int) (selection, error) {
	var sel selection
	var err error

	c, _ := cmd.Flags().GetString("context")
	if sel.ctx, err = filter.ParseContext(c); err != nil {
		return sel, err
	}
	if cmd.Flags().Lookup("filter") != nil {
		f, _ := cmd.Flags().GetString("filter")
		if sel.filter, err = filter.ParseFilter(f); err != nil {
			return sel, err
		}
	}

	sel.n = defaultN
	if cmd.Flags().Changed("n") {
		sel.n, _ = cmd.Flags().GetInt("n")
	}
	return sel, nil
}
