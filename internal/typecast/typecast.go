// Package typecast coerces loosely formatted source values into numbers.
//
// Source tables carry values such as "12,345", "$52,000", "-" or "1,500.25+".
// All string-to-number conversion in the module goes through this package so
// that missing data is represented the same way everywhere: as NaN.
package typecast

import (
	"math"
	"strconv"
	"strings"
)

// Kind selects the numeric kind produced by Cast.
type Kind int

const (
	// KindFloat keeps the fractional part.
	KindFloat Kind = iota
	// KindInt drops everything after the first decimal point of a string.
	KindInt
)

// Missing is the value returned for absent or non-numeric input.
var Missing = math.NaN()

// IsMissing reports whether f represents missing data.
func IsMissing(f float64) bool {
	return math.IsNaN(f)
}

// Float coerces v to a float64, returning NaN when v carries no digits.
func Float(v any) float64 {
	return Cast(v, KindFloat)
}

// Int coerces v to a whole number, returning NaN when v carries no digits.
func Int(v any) float64 {
	return Cast(v, KindInt)
}

// Cast coerces v to a number of the given kind.
//
// Integer values pass through unchanged and floats are truncated toward
// zero for KindInt. Strings are stripped of every rune other than digits
// and '.', only the first '.' is kept, and a leading '-' makes the result
// negative.
func Cast(v any, kind Kind) float64 {
	switch n := v.(type) {
	case float64:
		return castFloat(n, kind)
	case float32:
		return castFloat(float64(n), kind)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	case uint32:
		return float64(n)
	case string:
		return parse(n, kind)
	case []byte:
		return parse(string(n), kind)
	default:
		return Missing
	}
}

func castFloat(f float64, kind Kind) float64 {
	if kind == KindInt {
		return math.Trunc(f)
	}
	return f
}

func parse(s string, kind Kind) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing
	}
	negative := s[0] == '-'

	var b strings.Builder
	b.Grow(len(s))
	seenDot := false
	digits := 0
scan:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '.' && !seenDot:
			seenDot = true
			if kind == KindInt {
				break scan
			}
			b.WriteRune(r)
		}
	}
	if digits == 0 {
		return Missing
	}

	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return Missing
	}
	if negative {
		f = -f
	}
	return f
}

// SafeDiv divides dividend by divisor after coercing both. A divisor of
// exactly zero yields def. Missing operands yield NaN.
func SafeDiv(dividend, divisor any, def float64) float64 {
	a := Float(dividend)
	b := Float(divisor)
	if b == 0 {
		return def
	}
	if IsMissing(a) || IsMissing(b) {
		return Missing
	}
	return a / b
}
