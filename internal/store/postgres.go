package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/mbonsma/cyclelinx/internal/db"
	"github.com/mbonsma/cyclelinx/internal/history"
	"github.com/mbonsma/cyclelinx/internal/model"
)

const pgUniqueViolation = "23505"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS history_items (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name         TEXT NOT NULL UNIQUE,
	improvements JSONB NOT NULL,
	scores       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_history_items_created_at ON history_items(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]model.HistoryItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, improvements, scores, created_at FROM history_items ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load history")
	}
	defer rows.Close()

	var items []model.HistoryItem
	for rows.Next() {
		var (
			item         model.HistoryItem
			improvements []byte
			scores       []byte
		)
		if err := rows.Scan(&item.Name, &improvements, &scores, &item.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history item")
		}
		if err := decodeItem(&item, improvements, scores); err != nil {
			return nil, eris.Wrapf(err, "postgres: decode history item %q", item.Name)
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: iterate history")
}

func (s *PostgresStore) Insert(ctx context.Context, item model.HistoryItem) error {
	improvements, scores, err := encodeItem(item)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO history_items (id, name, improvements, scores, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), item.Name, improvements, scores, createdAt(item),
	)
	if err != nil {
		if isPgUnique(err) {
			return eris.Wrapf(history.ErrDuplicateName, "postgres: insert %q", item.Name)
		}
		return eris.Wrapf(err, "postgres: insert history item %q", item.Name)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM history_items WHERE name = $1`, name)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete history item %q", name)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(history.ErrNotFound, "history item %q", name)
	}
	return nil
}

// Import loads items with the COPY protocol.
func (s *PostgresStore) Import(ctx context.Context, items []model.HistoryItem) (int64, error) {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		improvements, scores, err := encodeItem(item)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{uuid.New().String(), item.Name, improvements, scores, createdAt(item)})
	}
	n, err := db.CopyFrom(ctx, s.pool, "history_items",
		[]string{"id", "name", "improvements", "scores", "created_at"}, rows)
	if err != nil {
		if isPgUnique(err) {
			return 0, eris.Wrap(history.ErrDuplicateName, "postgres: import")
		}
		return 0, eris.Wrap(err, "postgres: import")
	}
	return n, nil
}

func isPgUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
