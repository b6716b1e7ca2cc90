package geo

import (
	"sort"
	"strings"
)

// County is a county or county-equivalent.
type County struct {
	GeoID string
	// Name is the full display label, e.g. "Los Angeles County, California".
	Name string
}

// ShortName drops the state from the display label.
func (c County) ShortName() string {
	return strings.SplitN(c.Name, ", ", 2)[0]
}

var countySuffixes = []string{
	" City and Borough", " Census Area", " Municipality", " Municipio",
	" Borough", " County", " Parish",
}

// CountyKey builds the lookup key "us:<st>:<name>/county" for a county
// display label. The county-type suffix is dropped, spaces are removed and
// everything is lowercased. It returns false if the state is unknown.
func CountyKey(displayName string) (string, bool) {
	parts := strings.Split(displayName, ", ")
	st, ok := StateByName(parts[len(parts)-1])
	if !ok {
		return "", false
	}
	name := parts[0]
	for _, suffix := range countySuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	name = strings.ToLower(strings.ReplaceAll(name, " ", ""))
	return "us:" + strings.ToLower(st.Abbrev) + ":" + name + "/county", true
}

// GroupCountyKey builds a county key from the "<st>:<county>" form used in
// query contexts.
func GroupCountyKey(group string) string {
	return "us:" + strings.ToLower(strings.ReplaceAll(group, " ", "")) + "/county"
}

// ShortGeoID drops the summary level prefix of a full GEOID, so
// "16000US0644000" becomes "0644000". Short GEOIDs are returned unchanged.
func ShortGeoID(geoid string) string {
	if i := strings.Index(geoid, "US"); i >= 0 {
		return geoid[i+2:]
	}
	return geoid
}

// Lookup is an immutable set of county reference tables. It is built once
// and passed explicitly to whatever needs county resolution.
type Lookup struct {
	counties      map[string]County
	byKey         map[string]string
	placeCounties map[string][]string
}

// NewLookup builds a Lookup from county records and a place-to-counties
// mapping keyed by place GEOID. GEOIDs may be full or short.
func NewLookup(counties []County, placeCounties map[string][]string) *Lookup {
	l := &Lookup{
		counties:      make(map[string]County, len(counties)),
		byKey:         make(map[string]string, len(counties)),
		placeCounties: make(map[string][]string, len(placeCounties)),
	}
	for _, c := range counties {
		c.GeoID = ShortGeoID(c.GeoID)
		l.counties[c.GeoID] = c
		if key, ok := CountyKey(c.Name); ok {
			l.byKey[key] = c.GeoID
		}
	}
	for place, ids := range placeCounties {
		short := make([]string, len(ids))
		for i, id := range ids {
			short[i] = ShortGeoID(id)
		}
		l.placeCounties[ShortGeoID(place)] = short
	}
	return l
}

// County returns the county with the given GEOID.
func (l *Lookup) County(geoid string) (County, bool) {
	if l == nil {
		return County{}, false
	}
	c, ok := l.counties[ShortGeoID(geoid)]
	return c, ok
}

// CountyByKey resolves a county key to its county.
func (l *Lookup) CountyByKey(key string) (County, bool) {
	if l == nil {
		return County{}, false
	}
	id, ok := l.byKey[key]
	if !ok {
		return County{}, false
	}
	return l.counties[id], true
}

// CountiesForPlace returns the GEOIDs of the counties containing a place.
func (l *Lookup) CountiesForPlace(placeGeoID string) []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.placeCounties[ShortGeoID(placeGeoID)]...)
}

// DisplayNames maps county GEOIDs to their short names, skipping unknown
// GEOIDs.
func (l *Lookup) DisplayNames(geoids []string) []string {
	var out []string
	for _, id := range geoids {
		if c, ok := l.County(id); ok {
			out = append(out, c.ShortName())
		}
	}
	return out
}

// Counties returns every county sorted by GEOID.
func (l *Lookup) Counties() []County {
	if l == nil {
		return nil
	}
	out := make([]County, 0, len(l.counties))
	for _, c := range l.counties {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeoID < out[j].GeoID })
	return out
}

// PlaceCounties returns a copy of the place-to-counties mapping.
func (l *Lookup) PlaceCounties() map[string][]string {
	if l == nil {
		return nil
	}
	out := make(map[string][]string, len(l.placeCounties))
	for k, v := range l.placeCounties {
		out[k] = append([]string(nil), v...)
	}
	return out
}
