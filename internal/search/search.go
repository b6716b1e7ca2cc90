// Package search ranks geography names by fuzzy similarity to a query.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// substringFloor is the minimum score of a name that contains the whole
// query as a substring.
const substringFloor = 90

// Indel-style costs: a substitution counts as a deletion plus an insertion.
var params = levenshtein.NewParams().SubCost(2)

// Normalize folds case, strips diacritics and collapses every run of
// non-alphanumeric characters into one space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(tokens(folded), " ")
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	return levenshtein.Similarity(a, b, params) * 100
}

func tokenSet(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range strings.Fields(s) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// TokenSetRatio scores two strings 0..100 on their sets of words. Word
// order and repetition are ignored, and when every word of one string
// appears in the other the score is 100.
func TokenSetRatio(a, b string) float64 {
	ta := tokenSet(Normalize(a))
	tb := tokenSet(Normalize(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inB := make(map[string]bool, len(tb))
	for _, t := range tb {
		inB[t] = true
	}
	inA := make(map[string]bool, len(ta))
	for _, t := range ta {
		inA[t] = true
	}

	var common, onlyA, onlyB []string
	for _, t := range ta {
		if inB[t] {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range tb {
		if !inA[t] {
			onlyB = append(onlyB, t)
		}
	}

	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sect := strings.Join(common, " ")
	withA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	best := ratio(withA, withB)
	if sect != "" {
		best = max(best, ratio(sect, withA), ratio(sect, withB))
	}
	return best
}

// Score rates how well name matches query. Names containing the query as a
// substring score at least 90.
func Score(query, name string) float64 {
	s := TokenSetRatio(query, name)
	q := Normalize(query)
	if q != "" && s < substringFloor && strings.Contains(Normalize(name), q) {
		s = substringFloor
	}
	return s
}

// Match is a ranked search result.
type Match[T any] struct {
	Item  T
	Score float64
}

// Rank scores every item's name against query and returns the best n in
// descending score order. Ties keep input order. n <= 0 returns all.
func Rank[T any](query string, items []T, name func(T) string, n int) []Match[T] {
	out := make([]Match[T], len(items))
	for i, it := range items {
		out[i] = Match[T]{Item: it, Score: Score(query, name(it))}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
