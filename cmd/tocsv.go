package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/export"
)

var tocsvCmd = &cobra.Command{
	Use:     "tocsv",
	Aliases: []string{"t"},
	Short:   "Export profiles as CSV or XLSX",
}

// -- tocsv rows --

var tocsvRowsCmd = &cobra.Command{
	Use:   "rows <columns>",
	Short: "Export one row per geography",
	Long: `Exports one row per geography with the given columns. Columns are
attribute names separated by spaces or commas; ":geography", ":population",
":race", ":education", ":income" and ":housing" expand to their category.
Attributes with both a count and a share get "(c)" and "(cc)" columns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := export.ParseColumns(strings.Join(args, " "))
		if err != nil {
			return err
		}
		sel, err := parseSelection(cmd, 0)
		if err != nil {
			return err
		}
		e, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		profiles, err := e.Select(sel.ctx, sel.filter, sel.n)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Fprintln(os.Stderr, "No geographies match your criteria.")
			return nil
		}
		return writeTable(cmd, export.Rows(profiles, names), "rows")
	},
}

// -- tocsv dp --

var tocsvDPCmd = &cobra.Command{
	Use:   "dp <name>",
	Short: "Export the demographic profile of a geography",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		p, err := e.Profile(args[0])
		if err != nil {
			return notFoundHint(err)
		}
		return writeTable(cmd, export.Profile(p), "profile")
	},
}

// writeTable writes CSV to stdout, or a workbook when --xlsx is set.
func writeTable(cmd *cobra.Command, t export.Table, sheet string) error {
	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		if err := t.SaveXLSX(path, sheet); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
		return nil
	}
	return t.WriteCSV(os.Stdout)
}

func init() {
	queryFlags(tocsvRowsCmd, true)
	tocsvRowsCmd.Flags().String("xlsx", "", "write an XLSX workbook to this path instead of CSV")
	tocsvDPCmd.Flags().String("xlsx", "", "write an XLSX workbook to this path instead of CSV")

	tocsvCmd.AddCommand(tocsvRowsCmd)
	tocsvCmd.AddCommand(tocsvDPCmd)
	rootCmd.AddCommand(tocsvCmd)
}
