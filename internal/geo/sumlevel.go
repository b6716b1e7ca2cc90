// Package geo holds geography reference data: summary levels, state and
// county tables and great-circle distance.
package geo

import (
	"strings"

	"github.com/rotisserie/eris"
)

// SummaryLevel is a census summary level code.
type SummaryLevel string

// Supported summary levels.
const (
	SumLevelState     SummaryLevel = "040"
	SumLevelCounty    SummaryLevel = "050"
	SumLevelPlace     SummaryLevel = "160"
	SumLevelCBSA      SummaryLevel = "310"
	SumLevelUrbanArea SummaryLevel = "400"
	SumLevelZCTA      SummaryLevel = "860"
)

// ErrUnknownSummaryLevel is returned for unrecognized summary level input.
var ErrUnknownSummaryLevel = eris.New("geo: unknown summary level")

var summaryLevels = []struct {
	level    SummaryLevel
	label    string
	keywords []string
}{
	{SumLevelState, "state", []string{"states", "s"}},
	{SumLevelCounty, "county", []string{"counties", "c"}},
	{SumLevelPlace, "place", []string{"places", "p"}},
	{SumLevelCBSA, "cbsa", []string{"cbsas", "cb"}},
	{SumLevelUrbanArea, "urban area", []string{"urbanareas", "u"}},
	{SumLevelZCTA, "zcta", []string{"zctas", "z"}},
}

// SummaryLevels returns every supported summary level.
func SummaryLevels() []SummaryLevel {
	out := make([]SummaryLevel, len(summaryLevels))
	for i, s := range summaryLevels {
		out[i] = s.level
	}
	return out
}

// ParseSummaryLevel accepts a keyword such as "places" or "p", or a raw
// code such as "160".
func ParseSummaryLevel(s string) (SummaryLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sl := range summaryLevels {
		if s == string(sl.level) {
			return sl.level, nil
		}
		for _, kw := range sl.keywords {
			if s == kw {
				return sl.level, nil
			}
		}
	}
	return "", eris.Wrapf(ErrUnknownSummaryLevel, "%q", s)
}

// IsKeyword reports whether s is a summary level keyword (not a raw code).
func IsKeyword(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sl := range summaryLevels {
		for _, kw := range sl.keywords {
			if s == kw {
				return true
			}
		}
	}
	return false
}

// Valid reports whether s is a supported summary level.
func (s SummaryLevel) Valid() bool {
	for _, sl := range summaryLevels {
		if sl.level == s {
			return true
		}
	}
	return false
}

// Label returns a human readable name such as "county".
func (s SummaryLevel) Label() string {
	for _, sl := range summaryLevels {
		if sl.level == s {
			return sl.label
		}
	}
	return string(s)
}
