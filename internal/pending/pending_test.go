package pending

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbonsma/cyclelinx/internal/model"
)

func set(ids ...model.ProjectID) model.ProjectSet { return model.NewProjectSet(ids...) }

func TestToggle_Branches(t *testing.T) {
	t.Parallel()

	confirmed := set(1, 2)

	tests := []struct {
		name       string
		start      ChangeSet
		ids        model.ProjectSet
		wantAdd    []model.ProjectID
		wantRemove []model.ProjectID
	}{
		{
			name:       "new project is proposed",
			ids:        set(5),
			wantAdd:    []model.ProjectID{5},
			wantRemove: []model.ProjectID{},
		},
		{
			name:       "confirmed project is marked for removal",
			ids:        set(2),
			wantAdd:    []model.ProjectID{},
			wantRemove: []model.ProjectID{2},
		},
		{
			name:       "pending addition is undone",
			start:      ChangeSet{toAdd: set(5, 6)},
			ids:        set(5),
			wantAdd:    []model.ProjectID{6},
			wantRemove: []model.ProjectID{},
		},
		{
			name:       "pending removal is undone",
			start:      ChangeSet{toRemove: set(1, 2)},
			ids:        set(2),
			wantAdd:    []model.ProjectID{},
			wantRemove: []model.ProjectID{1},
		},
		{
			name:       "pending addition wins over confirmed membership",
			start:      ChangeSet{toAdd: set(7)},
			ids:        set(1, 7),
			wantAdd:    []model.ProjectID{},
			wantRemove: []model.ProjectID{},
		},
		{
			name:       "pending removal wins over confirmed membership",
			start:      ChangeSet{toRemove: set(1)},
			ids:        set(1, 2),
			wantAdd:    []model.ProjectID{},
			wantRemove: []model.ProjectID{},
		},
		{
			name:       "multi-project segment adds every id",
			ids:        set(8, 9),
			wantAdd:    []model.ProjectID{8, 9},
			wantRemove: []model.ProjectID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.start.Toggle(tt.ids, confirmed)
			assert.Equal(t, tt.wantAdd, got.ToAdd().Sorted())
			assert.Equal(t, tt.wantRemove, got.ToRemove().Sorted())
		})
	}
}

func TestToggle_EmptyIDsIsNoop(t *testing.T) {
	t.Parallel()

	start := ChangeSet{toAdd: set(3), toRemove: set(4)}
	got := start.Toggle(set(), set(4))

	assert.True(t, got.ToAdd().Equal(set(3)))
	assert.True(t, got.ToRemove().Equal(set(4)))
}

func TestToggle_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	start := ChangeSet{toAdd: set(3)}
	_ = start.Toggle(set(4), set())
	_ = start.Toggle(set(3), set())

	assert.True(t, start.ToAdd().Equal(set(3)))
}

func TestToggle_ClickTwiceCancels(t *testing.T) {
	t.Parallel()

	confirmed := set(1, 2, 3)
	starts := []ChangeSet{
		{},
		{toAdd: set(10)},
		{toRemove: set(3)},
		{toAdd: set(11), toRemove: set(1)},
	}
	clicks := []model.ProjectSet{set(2), set(20), set(2, 20), set(21, 22)}

	for _, start := range starts {
		for _, ids := range clicks {
			once := start.Toggle(ids, confirmed)
			addedToAdd := once.ToAdd().Len() > start.ToAdd().Len()
			addedToRemove := once.ToRemove().Len() > start.ToRemove().Len()
			if !addedToAdd && !addedToRemove {
				continue
			}
			twice := once.Toggle(ids, confirmed)
			assert.True(t, twice.ToAdd().Equal(start.ToAdd()), "toAdd after %v", ids.Sorted())
			assert.True(t, twice.ToRemove().Equal(start.ToRemove()), "toRemove after %v", ids.Sorted())
		}
	}
}

func TestToggle_DisjointUnderRandomClicks(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	confirmed := set(1, 2, 3, 4, 5)

	for run := 0; run < 200; run++ {
		var cs ChangeSet
		for step := 0; step < 50; step++ {
			n := rng.IntN(3)
			ids := set()
			for i := 0; i < n; i++ {
				ids[model.ProjectID(rng.IntN(10))] = struct{}{}
			}
			cs = cs.Toggle(ids, confirmed)
			require.False(t, cs.ToAdd().Intersects(cs.ToRemove()),
				"run %d step %d: toAdd=%v toRemove=%v", run, step, cs.ToAdd().Sorted(), cs.ToRemove().Sorted())
		}
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	cs := ChangeSet{}.Toggle(set(3), set(1, 2)).Toggle(set(2), set(1, 2))
	assert.Equal(t, []model.ProjectID{1, 3}, cs.Apply(set(1, 2)).Sorted())

	cs = ChangeSet{}.Toggle(set(1), set(1))
	assert.Equal(t, 0, cs.Apply(set(1)).Len())

	assert.Equal(t, []model.ProjectID{4}, ChangeSet{}.Toggle(set(4), nil).Apply(nil).Sorted())
}

func TestReset(t *testing.T) {
	t.Parallel()

	cs := ChangeSet{toAdd: set(1), toRemove: set(2)}.Reset()
	assert.True(t, cs.Empty())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cs := ChangeSet{toAdd: set(10), toRemove: set(2)}
	confirmed := set(1, 2)

	tests := []struct {
		name string
		all  model.ProjectSet
		want Status
	}{
		{"removal beats everything", set(2, 10), StatusPendingRemove},
		{"addition beats confirmed", set(1, 10), StatusPendingAdd},
		{"confirmed", set(1), StatusConfirmed},
		{"addable", set(50), StatusAddable},
		{"inert", set(), StatusInert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cs.Classify(tt.all, confirmed))
		})
	}
}

func TestStatus_Names(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pending-remove", StatusPendingRemove.String())
	assert.Equal(t, "projectRemoveColor", StatusPendingRemove.ColorKey())
	assert.Equal(t, "pending-add", StatusPendingAdd.String())
	assert.Equal(t, "projectAddColor", StatusPendingAdd.ColorKey())
	assert.Equal(t, "projectColor", StatusConfirmed.ColorKey())
	assert.Equal(t, "addableRoadColor", StatusAddable.ColorKey())
	assert.Empty(t, StatusInert.ColorKey())
	assert.Equal(t, "inert", StatusInert.String())
}

func TestChangeSet_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ChangeSet{toAdd: set(3, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"toAdd":[1,3],"toRemove":[]}`, string(data))
}
