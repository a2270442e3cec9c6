package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbonsma/cyclelinx/internal/history"
	"github.com/mbonsma/cyclelinx/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_InsertAndLoad(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, sampleItem("plan a", 3, 1)))

	items, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, "plan a", got.Name)
	assert.Equal(t, []model.ProjectID{3, 1}, got.Improvements)
	require.Contains(t, got.Scores, model.AreaID(7))
	assert.InDelta(t, 12.5, got.Scores[7].Scores.Budget["jobs"], 1e-9)
	assert.InDelta(t, 1.0, got.Scores[7].Scores.Bin["greenspace"], 1e-9)
	assert.True(t, got.CreatedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
}

func TestSQLite_LoadOrdersByCreation(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	later := sampleItem("later", 1)
	later.CreatedAt = later.CreatedAt.Add(time.Hour)
	require.NoError(t, st.Insert(ctx, later))
	require.NoError(t, st.Insert(ctx, sampleItem("earlier", 2)))

	items, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "earlier", items[0].Name)
	assert.Equal(t, "later", items[1].Name)
}

func TestSQLite_InsertDuplicate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, sampleItem("dup", 1)))
	err := st.Insert(ctx, sampleItem("dup", 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrDuplicateName)
}

func TestSQLite_EmptyItem(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, model.HistoryItem{Name: "empty"}))
	items, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Improvements)
	assert.Empty(t, items[0].Scores)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestSQLite_Delete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, sampleItem("gone", 1)))
	require.NoError(t, st.Delete(ctx, "gone"))

	items, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = st.Delete(ctx, "gone")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestSQLite_Import(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.Import(ctx, []model.HistoryItem{sampleItem("a", 1), sampleItem("b", 2)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = st.Import(ctx, []model.HistoryItem{sampleItem("c", 3), sampleItem("a", 4)})
	assert.ErrorIs(t, err, history.ErrDuplicateName)

	items, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2, "failed import is rolled back")
}
