package store

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/products"
	"github.com/sells-group/geodata/internal/profile"
	"github.com/sells-group/geodata/internal/stats"
	"github.com/sells-group/geodata/internal/vector"
)

// Value kinds in the attribute_values table. Weighted scores are stored
// as "ws:<mode>".
const (
	kindRC       = "rc"
	kindC        = "c"
	kindRS       = "rs"
	kindS        = "s"
	kindWSPrefix = "ws:"
)

var (
	snapshotColumns    = []string{"id", "built_at", "spread_factor_bits", "year_built_missing", "unscorable", "profiles", "vectors"}
	geographyColumns   = []string{"snapshot_id", "ord", "sumlevel", "name", "geoid", "state", "counties", "counties_display", "point", "has_vector"}
	valueColumns       = []string{"snapshot_id", "ord", "kind", "attribute", "bits"}
	statColumns        = []string{"snapshot_id", "code", "median_bits", "std_dev_bits", "n"}
	countyColumns      = []string{"geoid", "name"}
	placeCountyColumns = []string{"place_geoid", "county_geoid"}
)

// Floats are persisted as their IEEE-754 bit patterns so NaN and every
// other value survive a round trip unchanged.
func bits(f float64) int64 {
	return int64(math.Float64bits(f))
}

func unbits(b int64) float64 {
	return math.Float64frombits(uint64(b))
}

type snapshotRow struct {
	ID               string
	BuiltAt          time.Time
	SpreadBits       int64
	YearBuiltMissing string
	Unscorable       string
	Profiles         int
	Vectors          int
}

func (r snapshotRow) args() []any {
	return []any{r.ID, r.BuiltAt, r.SpreadBits, r.YearBuiltMissing, r.Unscorable, r.Profiles, r.Vectors}
}

func (r snapshotRow) snapshot() (Snapshot, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Snapshot{}, eris.Wrapf(err, "store: snapshot id %q", r.ID)
	}
	return Snapshot{
		ID:           id,
		BuiltAt:      r.BuiltAt.UTC(),
		SpreadFactor: unbits(r.SpreadBits),
		Profiles:     r.Profiles,
		Vectors:      r.Vectors,
	}, nil
}

type geographyRow struct {
	Ord             int
	SumLevel        string
	Name            string
	GeoID           string
	State           string
	Counties        string
	CountiesDisplay string
	Point           []byte
	HasVector       bool
}

func (r geographyRow) args(snapshotID string) []any {
	return []any{snapshotID, r.Ord, r.SumLevel, r.Name, r.GeoID, r.State, r.Counties, r.CountiesDisplay, r.Point, r.HasVector}
}

type valueRow struct {
	Ord       int
	Kind      string
	Attribute string
	Bits      int64
}

func (r valueRow) args(snapshotID string) []any {
	return []any{snapshotID, r.Ord, r.Kind, r.Attribute, r.Bits}
}

type statRow struct {
	Code       string
	MedianBits int64
	StdDevBits int64
	N          int
}

func (r statRow) args(snapshotID string) []any {
	return []any{snapshotID, r.Code, r.MedianBits, r.StdDevBits, r.N}
}

// records is a product set flattened into table rows.
type records struct {
	snapshot      snapshotRow
	geographies   []geographyRow
	values        []valueRow
	stats         []statRow
	counties      [][]any
	placeCounties [][]any
}

func (r *records) geographyArgs() [][]any {
	out := make([][]any, len(r.geographies))
	for i, g := range r.geographies {
		out[i] = g.args(r.snapshot.ID)
	}
	return out
}

func (r *records) valueArgs() [][]any {
	out := make([][]any, len(r.values))
	for i, v := range r.values {
		out[i] = v.args(r.snapshot.ID)
	}
	return out
}

func (r *records) statArgs() [][]any {
	out := make([][]any, len(r.stats))
	for i, s := range r.stats {
		out[i] = s.args(r.snapshot.ID)
	}
	return out
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal json")
	}
	return string(b), nil
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// encode flattens set. Vectors must be an ordered subsequence of profiles,
// matched by key.
func encode(set *products.Set) (*records, error) {
	ybm, err := encodeJSON(nonNil(set.YearBuiltMissing))
	if err != nil {
		return nil, err
	}
	unscorable, err := encodeJSON(nonNil(set.Unscorable))
	if err != nil {
		return nil, err
	}
	rec := &records{
		snapshot: snapshotRow{
			ID:               set.ID.String(),
			BuiltAt:          set.BuiltAt.UTC(),
			SpreadBits:       bits(set.SpreadFactor),
			YearBuiltMissing: ybm,
			Unscorable:       unscorable,
			Profiles:         len(set.Profiles),
			Vectors:          len(set.Vectors),
		},
	}

	j := 0
	for i, p := range set.Profiles {
		g, err := encodeGeography(i, p)
		if err != nil {
			return nil, err
		}
		for _, n := range sortedKeys(p.RC) {
			rec.values = append(rec.values, valueRow{Ord: i, Kind: kindRC, Attribute: string(n), Bits: bits(p.RC[n])})
		}
		for _, n := range sortedKeys(p.C) {
			rec.values = append(rec.values, valueRow{Ord: i, Kind: kindC, Attribute: string(n), Bits: bits(p.C[n])})
		}

		if j < len(set.Vectors) && set.Vectors[j].Key() == p.Key() {
			g.HasVector = true
			rec.values = append(rec.values, encodeVector(i, set.Vectors[j])...)
			j++
		}
		rec.geographies = append(rec.geographies, g)
	}
	if j != len(set.Vectors) {
		return nil, eris.Errorf("store: vector %q has no matching profile", set.Vectors[j].Name)
	}

	for _, c := range sortedKeys(set.Stats) {
		s := set.Stats[c]
		rec.stats = append(rec.stats, statRow{Code: string(c), MedianBits: bits(s.Median), StdDevBits: bits(s.StdDev), N: s.N})
	}

	for _, c := range set.Lookup.Counties() {
		rec.counties = append(rec.counties, []any{c.GeoID, c.Name})
	}
	pc := set.Lookup.PlaceCounties()
	for _, place := range sortedKeys(pc) {
		for _, county := range pc[place] {
			rec.placeCounties = append(rec.placeCounties, []any{place, county})
		}
	}
	return rec, nil
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func encodeGeography(ord int, p *profile.Profile) (geographyRow, error) {
	counties, err := encodeJSON(nonNil(p.Counties))
	if err != nil {
		return geographyRow{}, err
	}
	display, err := encodeJSON(nonNil(p.CountiesDisplay))
	if err != nil {
		return geographyRow{}, err
	}
	g := geographyRow{
		Ord:             ord,
		SumLevel:        string(p.SumLevel),
		Name:            p.Name,
		GeoID:           p.GeoID,
		State:           p.State,
		Counties:        counties,
		CountiesDisplay: display,
	}
	if pt := p.Point(); pt != nil {
		if g.Point, err = ewkb.Marshal(pt, ewkb.NDR); err != nil {
			return geographyRow{}, eris.Wrapf(err, "store: encode point %q", p.Name)
		}
	}
	return g, nil
}

func encodeVector(ord int, v *vector.Vector) []valueRow {
	var out []valueRow
	for _, n := range sortedKeys(v.RS) {
		out = append(out, valueRow{Ord: ord, Kind: kindRS, Attribute: string(n), Bits: bits(v.RS[n])})
	}
	for _, n := range sortedKeys(v.S) {
		out = append(out, valueRow{Ord: ord, Kind: kindS, Attribute: string(n), Bits: bits(float64(v.S[n]))})
	}
	for _, m := range sortedKeys(v.WS) {
		ws := v.WS[m]
		for _, n := range sortedKeys(ws) {
			out = append(out, valueRow{Ord: ord, Kind: kindWSPrefix + string(m), Attribute: string(n), Bits: bits(ws[n])})
		}
	}
	return out
}

type geographyValues struct {
	rc, c, rs map[attr.Name]float64
	s         map[attr.Name]int
	ws        map[attr.Mode]map[attr.Name]float64
}

// decode rebuilds a product set from its rows. Geographies must be sorted
// by ord.
func decode(snap snapshotRow, geographies []geographyRow, values []valueRow, statRows []statRow, lk *geo.Lookup) (*products.Set, error) {
	meta, err := snap.snapshot()
	if err != nil {
		return nil, err
	}
	set := &products.Set{
		ID:           meta.ID,
		BuiltAt:      meta.BuiltAt,
		SpreadFactor: meta.SpreadFactor,
		Stats:        make(stats.Global, len(statRows)),
		Lookup:       lk,
	}
	if err := json.Unmarshal([]byte(snap.YearBuiltMissing), &set.YearBuiltMissing); err != nil {
		return nil, eris.Wrap(err, "store: decode year_built_missing")
	}
	if err := json.Unmarshal([]byte(snap.Unscorable), &set.Unscorable); err != nil {
		return nil, eris.Wrap(err, "store: decode unscorable")
	}
	if len(set.Unscorable) == 0 {
		set.Unscorable = nil
	}

	for _, s := range statRows {
		set.Stats[attr.Code(s.Code)] = stats.Summary{Median: unbits(s.MedianBits), StdDev: unbits(s.StdDevBits), N: s.N}
	}

	byOrd := make(map[int]*geographyValues, len(geographies))
	for _, v := range values {
		gv, ok := byOrd[v.Ord]
		if !ok {
			gv = &geographyValues{
				rc: map[attr.Name]float64{},
				c:  map[attr.Name]float64{},
				rs: map[attr.Name]float64{},
				s:  map[attr.Name]int{},
				ws: map[attr.Mode]map[attr.Name]float64{},
			}
			byOrd[v.Ord] = gv
		}
		n := attr.Name(v.Attribute)
		f := unbits(v.Bits)
		switch {
		case v.Kind == kindRC:
			gv.rc[n] = f
		case v.Kind == kindC:
			gv.c[n] = f
		case v.Kind == kindRS:
			gv.rs[n] = f
		case v.Kind == kindS:
			gv.s[n] = int(f)
		case strings.HasPrefix(v.Kind, kindWSPrefix):
			m := attr.Mode(strings.TrimPrefix(v.Kind, kindWSPrefix))
			if gv.ws[m] == nil {
				gv.ws[m] = map[attr.Name]float64{}
			}
			gv.ws[m][n] = f
		default:
			return nil, eris.Errorf("store: unknown value kind %q", v.Kind)
		}
	}

	for _, g := range geographies {
		id := model.Identity{
			Name:     g.Name,
			SumLevel: geo.SummaryLevel(g.SumLevel),
			GeoID:    g.GeoID,
			State:    g.State,
		}
		if err := json.Unmarshal([]byte(g.Counties), &id.Counties); err != nil {
			return nil, eris.Wrapf(err, "store: decode counties of %q", g.Name)
		}
		var display []string
		if err := json.Unmarshal([]byte(g.CountiesDisplay), &display); err != nil {
			return nil, eris.Wrapf(err, "store: decode counties display of %q", g.Name)
		}
		if len(id.Counties) == 0 {
			id.Counties = nil
		}
		if len(display) == 0 {
			display = nil
		}

		gv := byOrd[g.Ord]
		if gv == nil {
			gv = &geographyValues{rc: map[attr.Name]float64{}, c: map[attr.Name]float64{}}
		}
		set.Profiles = append(set.Profiles, profile.Restore(id, display, gv.rc, gv.c))
		if g.HasVector {
			set.Vectors = append(set.Vectors, vector.Restore(id, gv.rs, gv.s, gv.ws))
		}
	}

	if len(set.Profiles) != snap.Profiles || len(set.Vectors) != snap.Vectors {
		return nil, eris.Errorf("store: snapshot %s is incomplete: %d/%d profiles, %d/%d vectors",
			snap.ID, len(set.Profiles), snap.Profiles, len(set.Vectors), snap.Vectors)
	}
	return set.Index(), nil
}
