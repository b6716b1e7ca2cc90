// Package store persists product sets as snapshots in SQLite or Postgres.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/config"
	"github.com/sells-group/geodata/internal/products"
)

// ErrNoSnapshots is returned when the store holds no snapshot.
var ErrNoSnapshots = eris.New("store: no snapshots")

// ErrSnapshotNotFound is returned for an unknown snapshot ID.
var ErrSnapshotNotFound = eris.New("store: snapshot not found")

// Snapshot describes one saved product set.
type Snapshot struct {
	ID           uuid.UUID `json:"id"`
	BuiltAt      time.Time `json:"built_at"`
	SpreadFactor float64   `json:"spread_factor"`
	Profiles     int       `json:"profiles"`
	Vectors      int       `json:"vectors"`
}

// Store defines the persistence interface for product sets.
type Store interface {
	// SaveProducts writes set as a new snapshot along with its county lookup.
	SaveProducts(ctx context.Context, set *products.Set) error
	// LoadProducts reads a snapshot. uuid.Nil loads the latest one.
	LoadProducts(ctx context.Context, id uuid.UUID) (*products.Set, error)
	LatestSnapshot(ctx context.Context) (Snapshot, error)
	// ListSnapshots returns every snapshot, newest first.
	ListSnapshots(ctx context.Context) ([]Snapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "geodata.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
