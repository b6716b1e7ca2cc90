package geo

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSummaryLevel(t *testing.T) {
	tests := []struct {
		in   string
		want SummaryLevel
	}{
		{"states", SumLevelState},
		{"s", SumLevelState},
		{"040", SumLevelState},
		{"Counties", SumLevelCounty},
		{"p", SumLevelPlace},
		{"cb", SumLevelCBSA},
		{"urbanareas", SumLevelUrbanArea},
		{"z", SumLevelZCTA},
		{" 860 ", SumLevelZCTA},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSummaryLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSummaryLevel("blocks")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownSummaryLevel))
}

func TestSummaryLevelHelpers(t *testing.T) {
	assert.True(t, IsKeyword("places"))
	assert.False(t, IsKeyword("160"))
	assert.True(t, SumLevelPlace.Valid())
	assert.False(t, SummaryLevel("999").Valid())
	assert.Equal(t, "urban area", SumLevelUrbanArea.Label())
	assert.Len(t, SummaryLevels(), 6)
}

func TestStates(t *testing.T) {
	s, ok := StateByAbbrev("ca")
	require.True(t, ok)
	assert.Equal(t, "California", s.Name)
	assert.Equal(t, "06", s.FIPS)

	s, ok = StateByName("district of columbia")
	require.True(t, ok)
	assert.Equal(t, "DC", s.Abbrev)

	s, ok = StateByFIPS("72")
	require.True(t, ok)
	assert.Equal(t, "PR", s.Abbrev)

	_, ok = StateByAbbrev("XX")
	assert.False(t, ok)
	assert.Len(t, States(), 56)
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, "California", StateOf("Los Angeles County, California"))
	assert.Equal(t, "Ohio", StateOf("Block Group 1; Census Tract 2; Ohio"))
	assert.Equal(t, "Texas", StateOf("Texas"))
}

func TestCountyKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Los Angeles County, California", "us:ca:losangeles/county"},
		{"Orleans Parish, Louisiana", "us:la:orleans/county"},
		{"Juneau City and Borough, Alaska", "us:ak:juneau/county"},
		{"Bethel Census Area, Alaska", "us:ak:bethel/county"},
		{"Baltimore city, Maryland", "us:md:baltimorecity/county"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CountyKey(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := CountyKey("Nowhere County, Atlantis")
	assert.False(t, ok)
	assert.Equal(t, "us:ca:losangeles/county", GroupCountyKey("CA:Los Angeles"))
}

func TestShortGeoID(t *testing.T) {
	assert.Equal(t, "0644000", ShortGeoID("16000US0644000"))
	assert.Equal(t, "06037", ShortGeoID("0500000US06037"))
	assert.Equal(t, "06037", ShortGeoID("06037"))
}

func testLookup() *Lookup {
	return NewLookup(
		[]County{
			{GeoID: "0500000US06037", Name: "Los Angeles County, California"},
			{GeoID: "06059", Name: "Orange County, California"},
		},
		map[string][]string{
			"16000US0644000": {"06037"},
			"0669000":        {"06059", "0500000US06037"},
		},
	)
}

func TestLookup(t *testing.T) {
	lk := testLookup()

	c, ok := lk.CountyByKey("us:ca:losangeles/county")
	require.True(t, ok)
	assert.Equal(t, "06037", c.GeoID)
	assert.Equal(t, "Los Angeles County", c.ShortName())

	_, ok = lk.CountyByKey("us:ca:kern/county")
	assert.False(t, ok)

	assert.Equal(t, []string{"06037"}, lk.CountiesForPlace("16000US0644000"))
	assert.Equal(t, []string{"06059", "06037"}, lk.CountiesForPlace("0669000"))
	assert.Empty(t, lk.CountiesForPlace("0600000"))

	assert.Equal(t, []string{"Orange County", "Los Angeles County"},
		lk.DisplayNames([]string{"06059", "06037", "99999"}))

	counties := lk.Counties()
	require.Len(t, counties, 2)
	assert.Equal(t, "06037", counties[0].GeoID)
	assert.Len(t, lk.PlaceCounties(), 2)
}

func TestNilLookup(t *testing.T) {
	var lk *Lookup
	_, ok := lk.County("06037")
	assert.False(t, ok)
	_, ok = lk.CountyByKey("us:ca:losangeles/county")
	assert.False(t, ok)
	assert.Nil(t, lk.CountiesForPlace("0644000"))
	assert.Nil(t, lk.DisplayNames([]string{"06037"}))
}

func TestDistance(t *testing.T) {
	la := NewPoint(34.0522, -118.2437)
	nyc := NewPoint(40.7128, -74.0060)
	require.NotNil(t, la)
	require.NotNil(t, nyc)

	km := Distance(la, nyc, Kilometers)
	mi := Distance(la, nyc, Miles)
	assert.InDelta(t, 3936, km, 15)
	assert.InDelta(t, 2445, mi, 10)
	assert.InDelta(t, km/1.609344, mi, 1)

	assert.Equal(t, 0.0, Distance(la, la, Miles))
	assert.Equal(t, Distance(la, nyc, Miles), Distance(nyc, la, Miles))
	assert.True(t, math.IsNaN(Distance(la, nil, Miles)))
}

func TestNewPointRejectsInvalid(t *testing.T) {
	assert.Nil(t, NewPoint(math.NaN(), 10))
	assert.Nil(t, NewPoint(91, 10))
	assert.Nil(t, NewPoint(10, -181))

	p := NewPoint(10, 20)
	require.NotNil(t, p)
	assert.Equal(t, 4326, p.SRID())
	assert.Equal(t, 20.0, p.X())
	assert.Equal(t, 10.0, p.Y())
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("KM")
	require.NoError(t, err)
	assert.Equal(t, Kilometers, u)

	u, err = ParseUnit("")
	require.NoError(t, err)
	assert.Equal(t, Miles, u)

	_, err = ParseUnit("furlongs")
	assert.Error(t, err)
}
