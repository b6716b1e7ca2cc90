package attr

import "strings"

// Format selects how a value is rendered for display.
type Format int

// Display formats.
const (
	FormatCount Format = iota
	FormatDecimal
	FormatMoney
	FormatArea
	FormatYear
	FormatPercent
	FormatDensity
)

// Compound derives a ratio from two raw components.
type Compound struct {
	Numerator   Name
	Denominator Name
	Scale       float64
	// Guards lists raw components that must be non-zero, in addition to the
	// denominator, for the compound to be computed. Otherwise it is 0.
	Guards []Name
	Format Format
}

// Component is one row of the declarative attribute table.
type Component struct {
	Name     Name
	Label    string
	Category Category
	Indent   int
	// Raw is nil for attributes that only exist as a compound.
	Raw       *Terms
	RawFormat Format
	Compound  *Compound
	// TopCode is the sentinel the source uses for "this value or more".
	TopCode float64
}

func raw(t Terms) *Terms { return &t }

func percentOf(n, denom Name, guards ...Name) *Compound {
	return &Compound{Numerator: n, Denominator: denom, Scale: 100, Guards: guards, Format: FormatPercent}
}

var table = []Component{
	{Name: LandArea, Label: "Land area", Category: CategoryGeography,
		Raw: raw(Single(CodeLandArea)), RawFormat: FormatArea},
	{Name: Latitude, Label: "Latitude", Category: CategoryGeography,
		Raw: raw(Single(CodeLatitude)), RawFormat: FormatDecimal},
	{Name: Longitude, Label: "Longitude", Category: CategoryGeography,
		Raw: raw(Single(CodeLongitude)), RawFormat: FormatDecimal},

	{Name: Population, Label: "Total population", Category: CategoryPopulation,
		Raw: raw(Single(CodePopulation))},
	{Name: PopulationDensity, Label: "Population density", Category: CategoryPopulation,
		Compound: &Compound{Numerator: Population, Denominator: LandArea, Scale: 1, Format: FormatDensity}},

	{Name: WhiteAlone, Label: "White alone", Category: CategoryRace, Indent: 4,
		Raw: raw(Single(CodeWhiteAlone)), Compound: percentOf(WhiteAlone, Population)},
	{Name: WhiteAloneNotHispanicOrLatino, Label: "Not Hispanic or Latino", Category: CategoryRace, Indent: 6,
		Raw: raw(Single(CodeWhiteNotHispanic)), Compound: percentOf(WhiteAloneNotHispanicOrLatino, Population)},
	{Name: BlackAlone, Label: "Black or African American alone", Category: CategoryRace, Indent: 4,
		Raw: raw(Single(CodeBlackAlone)), Compound: percentOf(BlackAlone, Population)},
	{Name: AsianAlone, Label: "Asian alone", Category: CategoryRace, Indent: 4,
		Raw: raw(Single(CodeAsianAlone)), Compound: percentOf(AsianAlone, Population)},
	{Name: OtherRace, Label: "Other race", Category: CategoryRace, Indent: 4,
		Raw: raw(Terms{
			Plus:  []Code{CodePopulation},
			Minus: []Code{CodeWhiteAlone, CodeBlackAlone, CodeAsianAlone},
		}),
		Compound: percentOf(OtherRace, Population)},
	{Name: HispanicOrLatino, Label: "Hispanic or Latino", Category: CategoryRace, Indent: 4,
		Raw: raw(Single(CodeHispanic)), Compound: percentOf(HispanicOrLatino, Population)},
	{Name: ItalianAlone, Label: "Italian alone", Category: CategoryRace,
		Raw: raw(Single(CodeItalian)), Compound: percentOf(ItalianAlone, Population)},

	{Name: Population25YearsAndOlder, Label: "Total population 25 years and older", Category: CategoryEducation,
		Raw:      raw(Single(CodePopulation25)),
		Compound: percentOf(Population25YearsAndOlder, Population, Population25YearsAndOlder)},
	{Name: BachelorsDegreeOrHigher, Label: "Bachelor's degree or higher", Category: CategoryEducation, Indent: 2,
		Raw:      raw(Terms{Plus: []Code{CodeBachelors, CodeMasters, CodeProfessional, CodeDoctorate}}),
		Compound: percentOf(BachelorsDegreeOrHigher, Population25YearsAndOlder, Population)},
	{Name: GraduateDegreeOrHigher, Label: "Graduate degree or higher", Category: CategoryEducation, Indent: 2,
		Raw:      raw(Terms{Plus: []Code{CodeMasters, CodeProfessional, CodeDoctorate}}),
		Compound: percentOf(GraduateDegreeOrHigher, Population25YearsAndOlder, Population)},

	{Name: PerCapitaIncome, Label: "Per capita income", Category: CategoryIncome,
		Raw: raw(Single(CodePerCapitaIncome)), RawFormat: FormatMoney},
	{Name: MedianHouseholdIncome, Label: "Median household income", Category: CategoryIncome,
		Raw: raw(Single(CodeMedianHHIncome)), RawFormat: FormatMoney, TopCode: 250001},

	{Name: MedianYearStructureBuilt, Label: "Median year unit built", Category: CategoryHousing,
		Raw: raw(Single(CodeMedianYearBuilt)), RawFormat: FormatYear},
	{Name: MedianRooms, Label: "Median rooms", Category: CategoryHousing,
		Raw: raw(Single(CodeMedianRooms)), RawFormat: FormatDecimal},
	{Name: MedianValue, Label: "Median value", Category: CategoryHousing,
		Raw: raw(Single(CodeMedianValue)), RawFormat: FormatMoney},
	{Name: MedianRent, Label: "Median rent", Category: CategoryHousing,
		Raw: raw(Single(CodeMedianRent)), RawFormat: FormatMoney},
}

var byName = func() map[Name]int {
	m := make(map[Name]int, len(table))
	for i, c := range table {
		m[c.Name] = i
	}
	return m
}()

// Components returns the attribute table in display order.
func Components() []Component {
	return append([]Component(nil), table...)
}

// Lookup returns the table entry for n.
func Lookup(n Name) (Component, bool) {
	i, ok := byName[n]
	if !ok {
		return Component{}, false
	}
	return table[i], true
}

// Names returns every logical attribute in table order.
func Names() []Name {
	out := make([]Name, len(table))
	for i, c := range table {
		out[i] = c.Name
	}
	return out
}

// HasRaw reports whether n has a raw component.
func HasRaw(n Name) bool {
	c, ok := Lookup(n)
	return ok && c.Raw != nil
}

// HasCompound reports whether n has a compound.
func HasCompound(n Name) bool {
	c, ok := Lookup(n)
	return ok && c.Compound != nil
}

// Header returns the indented display label of n.
func Header(n Name) string {
	c, ok := Lookup(n)
	if !ok {
		return string(n)
	}
	return strings.Repeat(" ", c.Indent) + c.Label
}
