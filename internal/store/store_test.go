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

func sampleItem(name string, ids ...model.ProjectID) model.HistoryItem {
	return model.HistoryItem{
		Name:         name,
		Improvements: ids,
		Scores: model.ScoreResults{
			7: {AreaID: 7, Scores: model.ScoreSet{
				Budget:   model.MetricScores{"jobs": 12.5},
				Original: model.MetricScores{"jobs": 10},
				Diff:     model.MetricScores{"jobs": 2.5},
				Bin:      model.MetricScores{"greenspace": 1},
			}},
		},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), "memory", "", nil)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOpen_DriverCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, " SQLite", filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	mem, err := Open(ctx, "MEMORY", "", nil)
	require.NoError(t, err)
	assert.Nil(t, mem)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck

	require.NoError(t, s.Insert(ctx, sampleItem("a", 1)))
	items, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestOpen_HydratesHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Insert(ctx, sampleItem("first", 1, 2)))

	h, err := history.Open(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, h.Names())

	_, err = h.Save(ctx, "first", model.NewProjectSet(3), nil)
	assert.ErrorIs(t, err, history.ErrDuplicateName)

	_, err = h.Save(ctx, "second", model.NewProjectSet(3), nil)
	require.NoError(t, err)

	reopened, err := history.Open(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, reopened.Names())
}
