// Package attr defines the closed set of source attribute codes, the logical
// attributes derived from them and the declarative table that drives both
// profile and vector construction.
package attr

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/typecast"
)

// Code identifies a column of a source geography row.
type Code string

// Source attribute codes.
const (
	CodeLandArea         Code = "ALAND_SQMI"
	CodeLatitude         Code = "INTPTLAT"
	CodeLongitude        Code = "INTPTLONG"
	CodePopulation       Code = "B01003_1"
	CodeWhiteAlone       Code = "B02001_2"
	CodeBlackAlone       Code = "B02001_3"
	CodeAsianAlone       Code = "B02001_5"
	CodeWhiteNotHispanic Code = "B03002_3"
	CodeHispanic         Code = "B03002_12"
	CodeItalian          Code = "B04004_51"
	CodePopulation25     Code = "B15003_1"
	CodeBachelors        Code = "B15003_22"
	CodeMasters          Code = "B15003_23"
	CodeProfessional     Code = "B15003_24"
	CodeDoctorate        Code = "B15003_25"
	CodePerCapitaIncome  Code = "B19301_1"
	CodeMedianHHIncome   Code = "B19013_1"
	CodeMedianYearBuilt  Code = "B25035_1"
	CodeMedianRooms      Code = "B25018_1"
	CodeMedianValue      Code = "B25077_1"
	CodeMedianRent       Code = "B25058_1"
)

var allCodes = []Code{
	CodeLandArea, CodeLatitude, CodeLongitude,
	CodePopulation,
	CodeWhiteAlone, CodeBlackAlone, CodeAsianAlone, CodeWhiteNotHispanic, CodeHispanic, CodeItalian,
	CodePopulation25, CodeBachelors, CodeMasters, CodeProfessional, CodeDoctorate,
	CodePerCapitaIncome, CodeMedianHHIncome,
	CodeMedianYearBuilt, CodeMedianRooms, CodeMedianValue, CodeMedianRent,
}

var codeSet = func() map[Code]bool {
	m := make(map[Code]bool, len(allCodes))
	for _, c := range allCodes {
		m[c] = true
	}
	return m
}()

// Codes returns every known source attribute code.
func Codes() []Code {
	return append([]Code(nil), allCodes...)
}

// ParseCode validates s as a source attribute code.
func ParseCode(s string) (Code, bool) {
	c := Code(s)
	return c, codeSet[c]
}

// Name identifies a logical attribute of a geography.
type Name string

// Logical attributes.
const (
	LandArea                      Name = "land_area"
	Latitude                      Name = "latitude"
	Longitude                     Name = "longitude"
	Population                    Name = "population"
	PopulationDensity             Name = "population_density"
	WhiteAlone                    Name = "white_alone"
	WhiteAloneNotHispanicOrLatino Name = "white_alone_not_hispanic_or_latino"
	BlackAlone                    Name = "black_alone"
	AsianAlone                    Name = "asian_alone"
	OtherRace                     Name = "other_race"
	HispanicOrLatino              Name = "hispanic_or_latino"
	ItalianAlone                  Name = "italian_alone"
	Population25YearsAndOlder     Name = "population_25_years_and_older"
	BachelorsDegreeOrHigher       Name = "bachelors_degree_or_higher"
	GraduateDegreeOrHigher        Name = "graduate_degree_or_higher"
	PerCapitaIncome               Name = "per_capita_income"
	MedianHouseholdIncome         Name = "median_household_income"
	MedianYearStructureBuilt      Name = "median_year_structure_built"
	MedianRooms                   Name = "median_rooms"
	MedianValue                   Name = "median_value"
	MedianRent                    Name = "median_rent"
)

// ErrUnknownAttribute is returned when a name is not a known attribute.
var ErrUnknownAttribute = eris.New("attr: unknown attribute")

// ParseName validates s as a logical attribute name.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := byName[n]; !ok {
		return "", eris.Wrapf(ErrUnknownAttribute, "%q", s)
	}
	return n, nil
}

// Terms is a sum of source codes minus another sum of source codes.
type Terms struct {
	Plus  []Code
	Minus []Code
	// Integer coerces each term with typecast.Int before summing.
	Integer bool
}

// Single returns Terms holding one code.
func Single(c Code) Terms {
	return Terms{Plus: []Code{c}}
}

// Eval computes the terms using get to resolve each code. Any missing
// operand makes the result NaN.
func (t Terms) Eval(get func(Code) float64) float64 {
	term := func(c Code) float64 {
		v := get(c)
		if t.Integer {
			v = typecast.Int(v)
		}
		return v
	}
	var sum float64
	for _, c := range t.Plus {
		sum += term(c)
	}
	for _, c := range t.Minus {
		sum -= term(c)
	}
	return sum
}

// Codes lists every code the terms reference.
func (t Terms) Codes() []Code {
	out := make([]Code, 0, len(t.Plus)+len(t.Minus))
	out = append(out, t.Plus...)
	return append(out, t.Minus...)
}

// Category groups attributes for display and export.
type Category string

// Attribute categories.
const (
	CategoryGeography  Category = "geography"
	CategoryPopulation Category = "population"
	CategoryRace       Category = "race"
	CategoryEducation  Category = "education"
	CategoryIncome     Category = "income"
	CategoryHousing    Category = "housing"
)

// Categories returns the categories in display order.
func Categories() []Category {
	return []Category{
		CategoryGeography, CategoryPopulation, CategoryRace,
		CategoryEducation, CategoryIncome, CategoryHousing,
	}
}

// ParseCategory validates s as a category name.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(s))
	for _, known := range Categories() {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// InCategory returns the attributes of a category in table order.
func InCategory(c Category) []Name {
	var out []Name
	for _, comp := range table {
		if comp.Category == c {
			out = append(out, comp.Name)
		}
	}
	return out
}
