// Package store persists saved plans for the history package.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/mbonsma/cyclelinx/internal/db"
	"github.com/mbonsma/cyclelinx/internal/history"
	"github.com/mbonsma/cyclelinx/internal/model"
)

// Store is a durable history repository.
type Store interface {
	history.Repository

	// Import bulk-loads items, skipping none; a name collision fails the
	// whole import.
	Import(ctx context.Context, items []model.HistoryItem) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver ("sqlite" or "postgres") and runs its
// migration. The "memory" driver has no store and returns nil.
func Open(ctx context.Context, driver, dsn string, poolCfg *db.PoolConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		return nil, nil
	case "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
