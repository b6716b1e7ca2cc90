// Package export renders profiles as flat tables for CSV and XLSX output.
package export

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/profile"
)

// Column headers of the rows table.
const (
	HeaderGeography = "Geography"
	HeaderCounty    = "County"
)

// Suffixes marking the two columns of an attribute with both a raw
// component and a compound.
const (
	SuffixComponent = " (c)"
	SuffixCompound  = " (cc)"
)

// Table is a header and its records. Header is empty for layouts that
// carry their own headings.
type Table struct {
	Header  []string
	Records [][]string
}

// ParseColumns reads a list of attribute names separated by spaces or
// commas. A ":<category>" entry expands to every attribute of that
// category. Duplicates are dropped; order is kept.
func ParseColumns(s string) ([]attr.Name, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) == 0 {
		return nil, eris.New("export: no columns given")
	}

	seen := make(map[attr.Name]bool)
	var out []attr.Name
	add := func(n attr.Name) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, f := range fields {
		if cat, ok := strings.CutPrefix(f, ":"); ok {
			c, ok := attr.ParseCategory(cat)
			if !ok {
				return nil, eris.Wrapf(attr.ErrUnknownAttribute, "export: category %q", f)
			}
			for _, n := range attr.InCategory(c) {
				add(n)
			}
			continue
		}
		n, err := attr.ParseName(f)
		if err != nil {
			return nil, eris.Wrap(err, "export: column")
		}
		add(n)
	}
	return out, nil
}

// Rows lays out one record per profile: its name, its counties and the
// formatted values of names. An attribute with both a raw component and a
// compound takes two columns.
func Rows(profiles []*profile.Profile, names []attr.Name) Table {
	header := []string{HeaderGeography, HeaderCounty}
	for _, n := range names {
		label := strings.TrimSpace(attr.Header(n))
		if attr.HasRaw(n) && attr.HasCompound(n) {
			header = append(header, label+SuffixComponent, label+SuffixCompound)
			continue
		}
		header = append(header, label)
	}

	records := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rec := []string{p.Name, strings.Join(p.CountiesDisplay, ", ")}
		for _, n := range names {
			switch {
			case attr.HasRaw(n) && attr.HasCompound(n):
				rec = append(rec, p.FC[n], p.FCD[n])
			case attr.HasRaw(n):
				rec = append(rec, p.FC[n])
			default:
				rec = append(rec, p.FCD[n])
			}
		}
		records = append(records, rec)
	}
	return Table{Header: header, Records: records}
}

// layoutItem is a heading or an attribute line of the profile layout.
type layoutItem struct {
	heading string
	name    attr.Name
}

var profileLayout = []layoutItem{
	{heading: "GEOGRAPHY"},
	{name: attr.LandArea},
	{name: attr.Latitude},
	{name: attr.Longitude},
	{heading: "POPULATION"},
	{name: attr.Population},
	{name: attr.PopulationDensity},
	{heading: "  Race"},
	{name: attr.WhiteAlone},
	{name: attr.WhiteAloneNotHispanicOrLatino},
	{name: attr.BlackAlone},
	{name: attr.AsianAlone},
	{name: attr.OtherRace},
	{heading: "  Hispanic or Latino (of any race)"},
	{name: attr.HispanicOrLatino},
	{heading: "  Ancestry"},
	{name: attr.ItalianAlone},
	{heading: "EDUCATION"},
	{name: attr.Population25YearsAndOlder},
	{name: attr.BachelorsDegreeOrHigher},
	{name: attr.GraduateDegreeOrHigher},
	{heading: "INCOME"},
	{name: attr.PerCapitaIncome},
	{name: attr.MedianHouseholdIncome},
	{heading: "HOUSING"},
	{name: attr.MedianYearStructureBuilt},
	{name: attr.MedianRooms},
	{name: attr.MedianValue},
	{name: attr.MedianRent},
}

// Line is one line of a profile layout. Heading lines carry only a Label.
// Value is the line's main figure; Count is set when the main figure is a
// share of a total.
type Line struct {
	Label   string
	Count   string
	Value   string
	Heading bool
}

// Record returns the line as a three-column record.
func (l Line) Record() []string {
	if l.Heading {
		return []string{l.Label}
	}
	return []string{l.Label, l.Count, l.Value}
}

// ProfileLines lays out a profile for display: its name, the counties of a
// place, then each category with its attributes. A nil Line separates the
// title block from the body.
func ProfileLines(p *profile.Profile) []*Line {
	lines := []*Line{{Label: p.Name, Heading: true}}
	if p.SumLevel == geo.SumLevelPlace && len(p.CountiesDisplay) > 0 {
		lines = append(lines, &Line{Label: strings.Join(p.CountiesDisplay, ", "), Heading: true})
	}
	lines = append(lines, nil)

	for _, it := range profileLayout {
		if it.heading != "" {
			lines = append(lines, &Line{Label: it.heading, Heading: true})
			continue
		}
		l := &Line{Label: attr.Header(it.name)}
		switch {
		case attr.HasRaw(it.name) && attr.HasCompound(it.name):
			l.Count, l.Value = p.FC[it.name], p.FCD[it.name]
		case attr.HasRaw(it.name):
			l.Value = p.FC[it.name]
		default:
			l.Value = p.FCD[it.name]
		}
		lines = append(lines, l)
	}
	return lines
}

// Profile lays out a single profile as a headerless table. Blank records
// separate the title block and close the table.
func Profile(p *profile.Profile) Table {
	var records [][]string
	for _, l := range ProfileLines(p) {
		if l == nil {
			records = append(records, []string{})
			continue
		}
		records = append(records, l.Record())
	}
	records = append(records, []string{})
	return Table{Records: records}
}
