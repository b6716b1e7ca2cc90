// Package products builds and holds the immutable product set: every
// geography's profile and vector, plus the statistics and lookup they were
// derived from.
package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geodata/internal/attr"
	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/model"
	"github.com/sells-group/geodata/internal/profile"
	"github.com/sells-group/geodata/internal/stats"
	"github.com/sells-group/geodata/internal/vector"
)

// DefaultConcurrency is the number of rows built in parallel when Options
// leaves it unset.
const DefaultConcurrency = 4

// Options configures Build.
type Options struct {
	SpreadFactor     float64
	YearBuiltMissing []float64
	Concurrency      int
}

// Set is one build of the product collections. A Set is never mutated once
// indexed; rebuilds produce a new Set.
type Set struct {
	ID           uuid.UUID
	BuiltAt      time.Time
	SpreadFactor float64
	// YearBuiltMissing lists median-year-built values treated as missing.
	YearBuiltMissing []float64
	Stats            stats.Global
	Unscorable       []attr.Name
	Lookup           *geo.Lookup

	// Profiles holds one profile per source row, in row order.
	Profiles []*profile.Profile
	// Vectors holds the vectors that could be built, in row order.
	Vectors []*vector.Vector

	profiles map[string]int
	vectors  map[string]int
}

// Build aggregates statistics over rows and derives every profile and
// vector. Rows without the data a vector needs get a profile only.
func Build(ctx context.Context, rows []model.Row, lk *geo.Lookup, opts Options) (*Set, error) {
	log := zap.L().With(zap.String("component", "products"))
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}

	statOpts := stats.Options{YearBuiltMissing: opts.YearBuiltMissing}
	global := stats.Aggregate(rows, attr.BaseCodes(), statOpts)
	builder := vector.NewBuilder(global, vector.Options{
		SpreadFactor:     opts.SpreadFactor,
		YearBuiltMissing: opts.YearBuiltMissing,
	})

	profiles := make([]*profile.Profile, len(rows))
	vectors := make([]*vector.Vector, len(rows))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range rows {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			profiles[i] = profile.Build(rows[i], lk)

			v, err := builder.Build(rows[i])
			if eris.Is(err, vector.ErrInsufficientData) {
				log.Debug("products: vector skipped", zap.String("name", rows[i].Name), zap.Error(err))
				return nil
			}
			if err != nil {
				return eris.Wrapf(err, "products: build vector %q", rows[i].Name)
			}
			// Places get their counties from the lookup; keep vectors in step.
			v.Identity = profiles[i].Identity
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "products: build")
	}

	built := vectors[:0]
	for _, v := range vectors {
		if v != nil {
			built = append(built, v)
		}
	}

	set := &Set{
		ID:               uuid.New(),
		BuiltAt:          time.Now().UTC(),
		SpreadFactor:     builder.SpreadFactor(),
		YearBuiltMissing: statOpts.YearBuiltSentinels(),
		Stats:            global,
		Unscorable:       builder.Unscorable(),
		Lookup:           lk,
		Profiles:         profiles,
		Vectors:          built,
	}
	set.Index()

	log.Info("products built",
		zap.String("id", set.ID.String()),
		zap.Int("profiles", len(set.Profiles)),
		zap.Int("vectors", len(set.Vectors)),
		zap.Int("unscorable", len(set.Unscorable)),
	)
	return set, nil
}

// Index builds the name lookups. Callers that assemble a Set by hand, such
// as stores restoring a snapshot, must call it before use.
func (s *Set) Index() *Set {
	s.profiles = make(map[string]int, len(s.Profiles))
	for i, p := range s.Profiles {
		k := nameKey(p.Name)
		if _, ok := s.profiles[k]; !ok {
			s.profiles[k] = i
		}
	}
	s.vectors = make(map[string]int, len(s.Vectors))
	for i, v := range s.Vectors {
		k := nameKey(v.Name)
		if _, ok := s.vectors[k]; !ok {
			s.vectors[k] = i
		}
	}
	return s
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Profile returns the first profile named name, ignoring case.
func (s *Set) Profile(name string) (*profile.Profile, bool) {
	i, ok := s.profiles[nameKey(name)]
	if !ok {
		return nil, false
	}
	return s.Profiles[i], true
}

// Vector returns the first vector named name, ignoring case.
func (s *Set) Vector(name string) (*vector.Vector, bool) {
	i, ok := s.vectors[nameKey(name)]
	if !ok {
		return nil, false
	}
	return s.Vectors[i], true
}
