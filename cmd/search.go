package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/profile"
	"github.com/sells-group/geodata/internal/search"
)

var searchCmd = &cobra.Command{
	Use:     "search <query>",
	Aliases: []string{"s"},
	Short:   "Find geographies by name",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := cfg.Query.DefaultN
		if cmd.Flags().Changed("n") {
			n, _ = cmd.Flags().GetInt("n")
		}

		e, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		matches, err := e.SearchByName(strings.Join(args, " "), n)
		if err != nil {
			return err
		}
		formatMatches(os.Stdout, matches)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntP("n", "n", 0, "number of results to display (default: from config)")
	rootCmd.AddCommand(searchCmd)
}

// formatMatches writes search results, best first.
func formatMatches(out io.Writer, matches []search.Match[*profile.Profile]) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCORE\tGEOGRAPHY\tLEVEL")
	for _, m := range matches {
		_, _ = fmt.Fprintf(w, "%.0f\t%s\t%s\n", m.Score, m.Item.Name, m.Item.SumLevel.Label())
	}
	_ = w.Flush()
}
