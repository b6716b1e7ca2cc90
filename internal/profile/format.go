package profile

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/sells-group/geodata/internal/attr"
)

// NotAvailable is the display string of a missing value.
const NotAvailable = "N/A"

type formatter struct {
	p *message.Printer
}

func newFormatter() formatter {
	return formatter{p: message.NewPrinter(language.English)}
}

func (f formatter) raw(n attr.Name, v float64) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	comp, _ := attr.Lookup(n)
	switch comp.RawFormat {
	case attr.FormatMoney:
		if comp.TopCode != 0 && v == comp.TopCode {
			return "$" + f.count(comp.TopCode-1) + "+"
		}
		return "$" + f.count(v)
	case attr.FormatArea:
		return f.p.Sprintf("%.1f sqmi", v)
	case attr.FormatYear:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case attr.FormatDecimal:
		return f.p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(6)))
	default:
		return f.count(v)
	}
}

func (f formatter) compound(n attr.Name, v float64) string {
	if math.IsNaN(v) {
		return NotAvailable
	}
	comp, _ := attr.Lookup(n)
	if comp.Compound != nil && comp.Compound.Format == attr.FormatDensity {
		return f.p.Sprintf("%.1f/sqmi", v)
	}
	return f.p.Sprintf("%.1f%%", v)
}

// count renders whole numbers with thousands separators and keeps any
// fractional part.
func (f formatter) count(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return f.p.Sprintf("%d", int64(v))
	}
	return f.p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(6)))
}
