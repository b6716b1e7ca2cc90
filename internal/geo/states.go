package geo

import "strings"

// State is a state or state-equivalent.
type State struct {
	Abbrev string
	Name   string
	FIPS   string
}

var states = []State{
	{"AL", "Alabama", "01"}, {"AK", "Alaska", "02"}, {"AZ", "Arizona", "04"},
	{"AR", "Arkansas", "05"}, {"CA", "California", "06"}, {"CO", "Colorado", "08"},
	{"CT", "Connecticut", "09"}, {"DE", "Delaware", "10"}, {"DC", "District of Columbia", "11"},
	{"FL", "Florida", "12"}, {"GA", "Georgia", "13"}, {"HI", "Hawaii", "15"},
	{"ID", "Idaho", "16"}, {"IL", "Illinois", "17"}, {"IN", "Indiana", "18"},
	{"IA", "Iowa", "19"}, {"KS", "Kansas", "20"}, {"KY", "Kentucky", "21"},
	{"LA", "Louisiana", "22"}, {"ME", "Maine", "23"}, {"MD", "Maryland", "24"},
	{"MA", "Massachusetts", "25"}, {"MI", "Michigan", "26"}, {"MN", "Minnesota", "27"},
	{"MS", "Mississippi", "28"}, {"MO", "Missouri", "29"}, {"MT", "Montana", "30"},
	{"NE", "Nebraska", "31"}, {"NV", "Nevada", "32"}, {"NH", "New Hampshire", "33"},
	{"NJ", "New Jersey", "34"}, {"NM", "New Mexico", "35"}, {"NY", "New York", "36"},
	{"NC", "North Carolina", "37"}, {"ND", "North Dakota", "38"}, {"OH", "Ohio", "39"},
	{"OK", "Oklahoma", "40"}, {"OR", "Oregon", "41"}, {"PA", "Pennsylvania", "42"},
	{"RI", "Rhode Island", "44"}, {"SC", "South Carolina", "45"}, {"SD", "South Dakota", "46"},
	{"TN", "Tennessee", "47"}, {"TX", "Texas", "48"}, {"UT", "Utah", "49"},
	{"VT", "Vermont", "50"}, {"VA", "Virginia", "51"}, {"WA", "Washington", "53"},
	{"WV", "West Virginia", "54"}, {"WI", "Wisconsin", "55"}, {"WY", "Wyoming", "56"},
	// Territories
	{"AS", "American Samoa", "60"}, {"GU", "Guam", "66"}, {"MP", "Northern Mariana Islands", "69"},
	{"PR", "Puerto Rico", "72"}, {"VI", "Virgin Islands", "78"},
}

var (
	stateByAbbrev = make(map[string]State, len(states))
	stateByName   = make(map[string]State, len(states))
	stateByFIPS   = make(map[string]State, len(states))
)

func init() {
	for _, s := range states {
		stateByAbbrev[s.Abbrev] = s
		stateByName[strings.ToLower(s.Name)] = s
		stateByFIPS[s.FIPS] = s
	}
}

// States returns every known state and territory.
func States() []State {
	return append([]State(nil), states...)
}

// StateByAbbrev looks up a state by its USPS abbreviation, ignoring case.
func StateByAbbrev(abbrev string) (State, bool) {
	s, ok := stateByAbbrev[strings.ToUpper(strings.TrimSpace(abbrev))]
	return s, ok
}

// StateByName looks up a state by its full name, ignoring case.
func StateByName(name string) (State, bool) {
	s, ok := stateByName[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// StateByFIPS looks up a state by its two-digit FIPS code.
func StateByFIPS(fips string) (State, bool) {
	s, ok := stateByFIPS[fips]
	return s, ok
}

// StateOf returns the state portion of a census display label such as
// "Los Angeles County, California" or "Block Group 1; Census Tract 2; Ohio".
func StateOf(displayName string) string {
	sep := ", "
	if strings.Contains(displayName, ";") {
		sep = "; "
	}
	parts := strings.Split(displayName, sep)
	return strings.TrimSpace(parts[len(parts)-1])
}
