package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/mbonsma/cyclelinx/internal/history"
	"github.com/mbonsma/cyclelinx/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS history_items (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	improvements TEXT NOT NULL,
	scores       TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_history_items_created_at ON history_items(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns every item oldest first, which is the order the history
// list shows them in.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, improvements, scores, created_at FROM history_items ORDER BY created_at, rowid`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load history")
	}
	defer rows.Close()

	var items []model.HistoryItem
	for rows.Next() {
		var (
			item         model.HistoryItem
			improvements string
			scores       string
		)
		if err := rows.Scan(&item.Name, &improvements, &scores, &item.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history item")
		}
		if err := decodeItem(&item, []byte(improvements), []byte(scores)); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode history item %q", item.Name)
		}
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: iterate history")
}

func (s *SQLiteStore) Insert(ctx context.Context, item model.HistoryItem) error {
	improvements, scores, err := encodeItem(item)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history_items (id, name, improvements, scores, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), item.Name, string(improvements), string(scores), createdAt(item),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return eris.Wrapf(history.ErrDuplicateName, "sqlite: insert %q", item.Name)
		}
		return eris.Wrapf(err, "sqlite: insert history item %q", item.Name)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history_items WHERE name = ?`, name)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete history item %q", name)
	}
	return checkRowsAffected(res, name)
}

func (s *SQLiteStore) Import(ctx context.Context, items []model.HistoryItem) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO history_items (id, name, improvements, scores, created_at) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close()

	for _, item := range items {
		improvements, scores, err := encodeItem(item)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), item.Name, string(improvements), string(scores), createdAt(item)); err != nil {
			if isSQLiteUnique(err) {
				return 0, eris.Wrapf(history.ErrDuplicateName, "sqlite: import %q", item.Name)
			}
			return 0, eris.Wrapf(err, "sqlite: import %q", item.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return int64(len(items)), nil
}

func isSQLiteUnique(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func checkRowsAffected(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(history.ErrNotFound, "history item %q", name)
	}
	return nil
}

func encodeItem(item model.HistoryItem) ([]byte, []byte, error) {
	improvements := item.Improvements
	if improvements == nil {
		improvements = []model.ProjectID{}
	}
	impJSON, err := json.Marshal(improvements)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal improvements")
	}
	scores := item.Scores
	if scores == nil {
		scores = model.ScoreResults{}
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal scores")
	}
	return impJSON, scoresJSON, nil
}

func decodeItem(item *model.HistoryItem, improvements, scores []byte) error {
	if err := json.Unmarshal(improvements, &item.Improvements); err != nil {
		return eris.Wrap(err, "store: unmarshal improvements")
	}
	if err := json.Unmarshal(scores, &item.Scores); err != nil {
		return eris.Wrap(err, "store: unmarshal scores")
	}
	return nil
}

func createdAt(item model.HistoryItem) time.Time {
	if item.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return item.CreatedAt.UTC()
}
