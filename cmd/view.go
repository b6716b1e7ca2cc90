package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/engine"
	"github.com/sells-group/geodata/internal/export"
	"github.com/sells-group/geodata/internal/filter"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/profile"
	"github.com/sells-group/geodata/internal/vector"
)

var viewCmd = &cobra.Command{
	Use:     "view",
	Aliases: []string{"v"},
	Short:   "View profiles, similar geographies and rankings",
}

// -- view dp --

var viewDPCmd = &cobra.Command{
	Use:   "dp <name>",
	Short: "Show the demographic profile of a geography",
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
		formatProfile(os.Stdout, p)
		return nil
	},
}

// -- view gv / gva --

func similarCmd(use, short string, mode attr.Mode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseSelection(cmd, cfg.Query.DefaultN)
			if err != nil {
				return err
			}
			e, err := loadEngine(cmd)
			if err != nil {
				return err
			}
			ns, err := e.CompareVectors(args[0], sel.ctx, mode, sel.n)
			if err != nil {
				return notFoundHint(err)
			}
			set, err := e.Products()
			if err != nil {
				return err
			}
			if len(ns) == 0 {
				fmt.Fprintln(os.Stderr, "No geographies match your criteria.")
				return nil
			}
			formatNeighbors(os.Stdout, ns, mode, set.Lookup)
			return nil
		},
	}
	queryFlags(cmd, false)
	return cmd
}

var (
	viewGVCmd  = similarCmd("gv", "List the most demographically similar geographies", attr.ModeStandard)
	viewGVACmd = similarCmd("gva", "List the geographies most similar in appearance", attr.ModeAppearance)
)

// -- view hv / lv --

func rankCmd(use, short string, lowest bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <attribute>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := attr.ParseName(args[0])
			if err != nil {
				return err
			}
			k, _ := cmd.Flags().GetString("kind")
			kind, err := filter.ParseKind(k)
			if err != nil {
				return err
			}
			sel, err := parseSelection(cmd, cfg.Query.DefaultN)
			if err != nil {
				return err
			}
			e, err := loadEngine(cmd)
			if err != nil {
				return err
			}
			rs, err := e.RankByAttribute(engine.RankQuery{
				Attribute: name,
				Kind:      kind,
				Context:   sel.ctx,
				Filter:    sel.filter,
				Lowest:    lowest,
				N:         sel.n,
			})
			if err != nil {
				return err
			}
			if len(rs) == 0 {
				fmt.Fprintln(os.Stderr, "No geographies match your criteria.")
				return nil
			}
			formatRanked(os.Stdout, rs, name, kind.Resolve(name))
			return nil
		},
	}
	queryFlags(cmd, true)
	cmd.Flags().StringP("kind", "d", "", "c: raw component; cc: compound (default: compound when one exists)")
	return cmd
}

var (
	viewHVCmd = rankCmd("hv", "List the highest values of an attribute", false)
	viewLVCmd = rankCmd("lv", "List the lowest values of an attribute", true)
)

// -- view cg --

var viewCGCmd = &cobra.Command{
	Use:   "cg <name>",
	Short: "List the geographically closest geographies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := parseSelection(cmd, cfg.Query.DefaultN)
		if err != nil {
			return err
		}
		unit := unitFlag(cmd)
		e, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		ns, err := e.ClosestGeographies(args[0], sel.ctx, sel.filter, unit, sel.n)
		if err != nil {
			return notFoundHint(err)
		}
		if len(ns) == 0 {
			fmt.Fprintln(os.Stderr, "No geographies match your criteria.")
			return nil
		}
		formatNearby(os.Stdout, ns, unit)
		return nil
	},
}

// -- view d --

var viewDCmd = &cobra.Command{
	Use:   "d <name> <name>",
	Short: "Show the distance between two geographies",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit := unitFlag(cmd)
		e, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		d, err := e.PairwiseDistance(args[0], args[1], unit)
		if err != nil {
			return notFoundHint(err)
		}
		fmt.Println(formatDistance(d, unit))
		return nil
	},
}

func unitFlag(cmd *cobra.Command) geo.Unit {
	if km, _ := cmd.Flags().GetBool("kilometers"); km {
		return geo.Kilometers
	}
	return geo.Miles
}

func init() {
	queryFlags(viewCGCmd, true)
	viewCGCmd.Flags().BoolP("kilometers", "k", false, "display distances in kilometers")
	viewDCmd.Flags().BoolP("kilometers", "k", false, "display the distance in kilometers")

	viewCmd.AddCommand(viewDPCmd)
	viewCmd.AddCommand(viewGVCmd)
	viewCmd.AddCommand(viewGVACmd)
	viewCmd.AddCommand(viewHVCmd)
	viewCmd.AddCommand(viewLVCmd)
	viewCmd.AddCommand(viewCGCmd)
	viewCmd.AddCommand(viewDCmd)
	rootCmd.AddCommand(viewCmd)
}

// scoreColumns are the short column headers of scored subcomponents.
var scoreColumns = map[attr.Name]string{
	attr.PopulationDensity:        "PDN",
	attr.PerCapitaIncome:          "PCI",
	attr.WhiteAlone:               "WHT",
	attr.BlackAlone:               "BLK",
	attr.AsianAlone:               "ASN",
	attr.HispanicOrLatino:         "HPL",
	attr.BachelorsDegreeOrHigher:  "BDH",
	attr.GraduateDegreeOrHigher:   "GDH",
	attr.MedianYearStructureBuilt: "MYS",
}

// formatProfile writes a profile as an aligned three-column table.
func formatProfile(out io.Writer, p *profile.Profile) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, l := range export.ProfileLines(p) {
		switch {
		case l == nil:
			_, _ = fmt.Fprintln(w, "--\t\t")
		case l.Heading:
			_, _ = fmt.Fprintf(w, "%s\t\t\n", l.Label)
		default:
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", l.Label, l.Count, l.Value)
		}
	}
	_ = w.Flush()
}

// formatNeighbors writes similar geographies with their scores in mode.
func formatNeighbors(out io.Writer, ns []engine.Neighbor, mode attr.Mode, lk *geo.Lookup) {
	weights, _ := attr.ModeWeights(mode)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"GEOGRAPHY", "COUNTY"}
	for _, wt := range weights {
		header = append(header, scoreColumns[wt.Name])
	}
	header = append(header, "DISTANCE")
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, n := range ns {
		cells := []string{n.Vector.Name, strings.Join(lk.DisplayNames(n.Vector.Counties), ", ")}
		for _, wt := range weights {
			cells = append(cells, scoreCell(n.Vector, wt.Name))
		}
		cells = append(cells, fmt.Sprintf("%.2f", n.Distance))
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
}

func scoreCell(v *vector.Vector, n attr.Name) string {
	s, ok := v.S[n]
	if !ok {
		return "-"
	}
	return strconv.Itoa(s)
}

// formatRanked writes ranked profiles with the display value they were
// ranked by.
func formatRanked(out io.Writer, rs []engine.Ranked, name attr.Name, compound bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "#\tGEOGRAPHY\tCOUNTY\t%s\n", strings.ToUpper(strings.TrimSpace(attr.Header(name))))
	for i, r := range rs {
		value := r.Profile.FC[name]
		if compound {
			value = r.Profile.FCD[name]
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			i+1,
			r.Profile.Name,
			strings.Join(r.Profile.CountiesDisplay, ", "),
			value,
		)
	}
	_ = w.Flush()
}

// formatNearby writes the closest geographies with their distances.
func formatNearby(out io.Writer, ns []engine.Nearby, unit geo.Unit) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "GEOGRAPHY\tCOUNTY\tDISTANCE")
	for _, n := range ns {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n",
			n.Profile.Name,
			strings.Join(n.Profile.CountiesDisplay, ", "),
			formatDistance(n.Distance, unit),
		)
	}
	_ = w.Flush()
}

func formatDistance(d float64, unit geo.Unit) string {
	return fmt.Sprintf("%.1f %s", d, unit)
}

// notFoundHint adds a search suggestion to a not-found error.
func notFoundHint(err error) error {
	if eris.Is(err, engine.ErrNotFound) {
		return eris.Wrap(err, "try 'geodata search' to find the exact name")
	}
	return err
}
