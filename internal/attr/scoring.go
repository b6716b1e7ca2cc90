package attr

// YearBuiltBase is subtracted from the median year built before scoring so
// the scored quantity is the age of the housing stock past 1939.
const YearBuiltBase = 1939

// Subcomponent is one scored dimension of a similarity vector. The same
// formula is applied to a row's values and to the population statistics of
// the codes it references.
type Subcomponent struct {
	Name      Name
	Numerator Terms
	// Denominator is nil for subcomponents that are not ratios.
	Denominator *Terms
	Scale       float64
	// Offset is added to values and medians, never to deviations.
	Offset float64
}

// Codes lists every code the subcomponent references.
func (s Subcomponent) Codes() []Code {
	codes := s.Numerator.Codes()
	if s.Denominator != nil {
		codes = append(codes, s.Denominator.Codes()...)
	}
	return codes
}

func ratioOf(numer Terms, denom Code, scale float64) Subcomponent {
	d := Single(denom)
	return Subcomponent{Numerator: numer, Denominator: &d, Scale: scale}
}

var subcomponents = func() []Subcomponent {
	degrees := Terms{Plus: []Code{CodeBachelors, CodeMasters, CodeProfessional, CodeDoctorate}, Integer: true}
	graduate := Terms{Plus: []Code{CodeMasters, CodeProfessional, CodeDoctorate}, Integer: true}

	subs := []Subcomponent{
		ratioOf(Single(CodePopulation), CodeLandArea, 1),
		{Numerator: Terms{Plus: []Code{CodePerCapitaIncome}, Integer: true}, Scale: 1},
		ratioOf(Single(CodeWhiteAlone), CodePopulation, 100),
		ratioOf(Single(CodeBlackAlone), CodePopulation, 100),
		ratioOf(Single(CodeAsianAlone), CodePopulation, 100),
		ratioOf(Single(CodeHispanic), CodePopulation, 100),
		ratioOf(degrees, CodePopulation25, 100),
		ratioOf(graduate, CodePopulation25, 100),
		{Numerator: Terms{Plus: []Code{CodeMedianYearBuilt}, Integer: true}, Scale: 1, Offset: -YearBuiltBase},
	}
	names := []Name{
		PopulationDensity, PerCapitaIncome,
		WhiteAlone, BlackAlone, AsianAlone, HispanicOrLatino,
		BachelorsDegreeOrHigher, GraduateDegreeOrHigher,
		MedianYearStructureBuilt,
	}
	for i := range subs {
		subs[i].Name = names[i]
	}
	return subs
}()

// Subcomponents returns the scored dimensions in canonical order.
func Subcomponents() []Subcomponent {
	return append([]Subcomponent(nil), subcomponents...)
}

// BaseCodes returns the source codes referenced by any subcomponent, in
// first-use order. These are the codes whose statistics scoring needs and
// the codes a row must carry for a vector to be built.
func BaseCodes() []Code {
	seen := make(map[Code]bool)
	var out []Code
	for _, s := range subcomponents {
		for _, c := range s.Codes() {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Weight is a subcomponent's contribution to a mode.
type Weight struct {
	Name   Name
	Weight float64
}

// Mode selects which weighted subcomponents a distance uses.
type Mode string

// Scoring modes.
const (
	ModeStandard   Mode = "std"
	ModeAppearance Mode = "app"
)

var modes = map[Mode][]Weight{
	ModeStandard: {
		{PopulationDensity, 1},
		{PerCapitaIncome, 1},
		{WhiteAlone, 0.25},
		{BlackAlone, 0.25},
		{AsianAlone, 0.25},
		{HispanicOrLatino, 0.25},
		{BachelorsDegreeOrHigher, 0.5},
		{GraduateDegreeOrHigher, 0.5},
	},
	ModeAppearance: {
		{PopulationDensity, 1},
		{PerCapitaIncome, 1},
		{MedianYearStructureBuilt, 1},
	},
}

// Modes returns the known modes in a fixed order.
func Modes() []Mode {
	return []Mode{ModeStandard, ModeAppearance}
}

// ModeWeights returns the weights of m in canonical order.
func ModeWeights(m Mode) ([]Weight, bool) {
	w, ok := modes[m]
	if !ok {
		return nil, false
	}
	return append([]Weight(nil), w...), true
}
