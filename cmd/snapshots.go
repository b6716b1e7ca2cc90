package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/store"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved product snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snaps, err := st.ListSnapshots(ctx)
		if err != nil {
			return eris.Wrap(err, "snapshots")
		}
		if len(snaps) == 0 {
			fmt.Fprintln(os.Stderr, "No snapshots found.")
			return nil
		}

		formatSnapshots(os.Stdout, snaps)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
}

// formatSnapshots writes a tabular list of snapshots to w.
func formatSnapshots(out io.Writer, snaps []store.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tBUILT\tPROFILES\tVECTORS\tSPREAD")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t-------\t------")
	for _, s := range snaps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\n",
			s.ID,
			s.BuiltAt.Local().Format("2006-01-02 15:04"),
			s.Profiles,
			s.Vectors,
			s.SpreadFactor,
		)
	}
	_ = w.Flush()
}
