// Package filter parses and applies query contexts ("p+ca:losangeles") and
// filter expressions ("population:gt:10000+white_alone:lt:50").
package filter

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/geo"
)

// ErrMalformed is returned for contexts and filters that cannot be parsed.
var ErrMalformed = eris.New("filter: malformed expression")

// GroupKind discriminates Group.
type GroupKind int

// Group kinds.
const (
	GroupNone GroupKind = iota
	GroupState
	GroupCounty
	GroupZipPrefix
)

func (k GroupKind) String() string {
	switch k {
	case GroupState:
		return "state"
	case GroupCounty:
		return "county"
	case GroupZipPrefix:
		return "zip prefix"
	default:
		return "none"
	}
}

// Group narrows a context to geographies inside a state, inside a county
// or with a ZIP code prefix. Build one with StateGroup, CountyGroup or
// ZipPrefixGroup.
type Group struct {
	Kind GroupKind
	// State is the lowercase USPS abbreviation for state and county groups.
	State string
	// County is the county part of a county group, e.g. "losangeles".
	County string
	// Prefix is the ZIP code prefix of a zip prefix group.
	Prefix string
}

// StateGroup matches geographies in a state.
func StateGroup(abbrev string) Group {
	return Group{Kind: GroupState, State: strings.ToLower(strings.TrimSpace(abbrev))}
}

// CountyGroup matches geographies in a county.
func CountyGroup(state, county string) Group {
	return Group{
		Kind:   GroupCounty,
		State:  strings.ToLower(strings.TrimSpace(state)),
		County: strings.ToLower(strings.ReplaceAll(county, " ", "")),
	}
}

// ZipPrefixGroup matches ZCTAs whose code starts with prefix.
func ZipPrefixGroup(prefix string) Group {
	return Group{Kind: GroupZipPrefix, Prefix: strings.TrimSpace(prefix)}
}

// CountyKey returns the lookup key of a county group.
func (g Group) CountyKey() string {
	return geo.GroupCountyKey(g.State + ":" + g.County)
}

// String renders the group in context syntax.
func (g Group) String() string {
	switch g.Kind {
	case GroupState:
		return g.State
	case GroupCounty:
		return g.State + ":" + g.County
	case GroupZipPrefix:
		return g.Prefix
	default:
		return ""
	}
}

// Context restricts candidates to a universe (summary level) and a group.
// The zero Context matches everything.
type Context struct {
	Universe geo.SummaryLevel
	Group    Group
}

// IsZero reports whether c applies no restriction.
func (c Context) IsZero() bool {
	return c.Universe == "" && c.Group.Kind == GroupNone
}

// String renders the context in "[universe+]group" syntax.
func (c Context) String() string {
	switch {
	case c.Universe == "":
		return c.Group.String()
	case c.Group.Kind == GroupNone:
		return string(c.Universe) + "+"
	default:
		return string(c.Universe) + "+" + c.Group.String()
	}
}

// ParseContext parses "[universe+]group". The universe is a summary level
// keyword or code. The group is a state abbreviation, "state:county" or a
// string of digits (ZIP prefix); when the group is digits and no universe is
// given the universe is ZCTAs. A bare universe keyword with no "+" selects
// the universe alone.
func ParseContext(s string) (Context, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Context{}, nil
	}

	var ctx Context
	group := s
	if i := strings.Index(s, "+"); i >= 0 {
		universe, err := geo.ParseSummaryLevel(s[:i])
		if err != nil {
			return Context{}, eris.Wrapf(ErrMalformed, "context %q: unknown universe %q", s, s[:i])
		}
		ctx.Universe = universe
		group = s[i+1:]
	} else if geo.IsKeyword(s) {
		universe, _ := geo.ParseSummaryLevel(s)
		return Context{Universe: universe}, nil
	}

	g, err := parseGroup(group)
	if err != nil {
		return Context{}, eris.Wrapf(err, "context %q", s)
	}
	ctx.Group = g
	if g.Kind == GroupZipPrefix && ctx.Universe == "" {
		ctx.Universe = geo.SumLevelZCTA
	}
	return ctx, nil
}

func parseGroup(s string) (Group, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Group{}, nil
	case isDigits(s):
		return ZipPrefixGroup(s), nil
	case strings.Contains(s, ":"):
		parts := strings.SplitN(s, ":", 2)
		if parts[0] == "" || parts[1] == "" {
			return Group{}, eris.Wrapf(ErrMalformed, "county group %q", s)
		}
		if _, ok := geo.StateByAbbrev(parts[0]); !ok {
			return Group{}, eris.Wrapf(ErrMalformed, "unknown state %q", parts[0])
		}
		return CountyGroup(parts[0], parts[1]), nil
	default:
		if _, ok := geo.StateByAbbrev(s); !ok {
			return Group{}, eris.Wrapf(ErrMalformed, "unknown state %q", s)
		}
		return StateGroup(s), nil
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
