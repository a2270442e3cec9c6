package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/mbonsma/cyclelinx/internal/model"
)

func area(id model.AreaID, budget, original model.MetricScores) model.AreaScore {
	return model.AreaScore{AreaID: id, Scores: model.ScoreSet{Budget: budget, Original: original}}
}

var defaults = model.DefaultScores{
	1: {"jobs": 10, "parks": 2},
	2: {"jobs": 20, "parks": 4},
	3: {"jobs": 30, "parks": 6},
	4: {"jobs": 40, "parks": 8},
}

func TestRecompute_EmptyDefaults(t *testing.T) {
	t.Parallel()

	stats := Recompute(nil, model.ScoreResults{1: area(1, model.MetricScores{"jobs": 5}, nil)}, nil)
	assert.Empty(t, stats)
}

func TestRecompute_NoCurrentMatchesBaseline(t *testing.T) {
	t.Parallel()

	stats := Recompute(defaults, model.ScoreResults{}, nil)
	require.Equal(t, []string{"jobs", "parks"}, stats.Metrics())
	for m, s := range stats {
		assert.InDelta(t, s.BaselineAvg, s.Avg, 1e-9, m)
		assert.InDelta(t, 0.0, s.Delta(), 1e-9, m)
		assert.False(t, s.Improved())
	}
	assert.InDelta(t, 25.0, stats["jobs"].Avg, 1e-9)
	assert.InDelta(t, 5.0, stats["parks"].Avg, 1e-9)
}

func TestRecompute_PartialCoverageFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	current := model.ScoreResults{
		2: area(2, model.MetricScores{"jobs": 60}, model.MetricScores{"jobs": 20}),
	}
	stats := Recompute(defaults, current, nil)

	require.Equal(t, []string{"jobs"}, stats.Metrics())
	// (10 + 60 + 30 + 40) / 4
	assert.InDelta(t, 35.0, stats["jobs"].Avg, 1e-9)
	assert.InDelta(t, 25.0, stats["jobs"].BaselineAvg, 1e-9)
	assert.InDelta(t, 10.0, stats["jobs"].Delta(), 1e-9)
	assert.True(t, stats["jobs"].Improved())
}

func TestRecompute_CoverageIndependentAverage(t *testing.T) {
	t.Parallel()

	full := model.ScoreResults{}
	for id, d := range defaults {
		full[id] = area(id, model.MetricScores{"jobs": d["jobs"] + 4}, model.MetricScores{"jobs": d["jobs"]})
	}
	// A response that omits areas whose value equals the default would
	// yield the same average as the full response.
	sparse := model.ScoreResults{}
	for id, d := range defaults {
		if id%2 == 0 {
			sparse[id] = area(id, model.MetricScores{"jobs": d["jobs"] + 8}, model.MetricScores{"jobs": d["jobs"]})
		}
	}
	a := Recompute(defaults, full, nil)["jobs"]
	b := Recompute(defaults, sparse, nil)["jobs"]

	assert.InDelta(t, a.Avg, b.Avg, 1e-9, "divisor is always the area universe")
	assert.InDelta(t, a.BaselineAvg, b.BaselineAvg, 1e-9)
}

func TestRecompute_ExplicitBaseline(t *testing.T) {
	t.Parallel()

	current := model.ScoreResults{
		1: area(1, model.MetricScores{"jobs": 14}, model.MetricScores{"jobs": 10}),
		2: area(2, model.MetricScores{"jobs": 24}, model.MetricScores{"jobs": 20}),
	}
	baseline := model.ScoreResults{
		1: area(1, model.MetricScores{"jobs": 12}, model.MetricScores{"jobs": 10}),
	}
	stat := Recompute(defaults, current, baseline)["jobs"]

	// current: 14 + 24 + 30 + 40; baseline: 12 + 20 + 30 + 40 (defaults fill 2..4)
	assert.InDelta(t, 27.0, stat.Avg, 1e-9)
	assert.InDelta(t, 25.5, stat.BaselineAvg, 1e-9)
	assert.InDelta(t, 1.5, stat.Delta(), 1e-9)
}

func TestRecompute_BaselineFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	current := model.ScoreResults{
		1: area(1, model.MetricScores{"jobs": 14}, model.MetricScores{"jobs": 99}),
	}
	for name, baseline := range map[string]model.ScoreResults{"nil": nil, "empty": {}} {
		stat := Recompute(defaults, current, baseline)["jobs"]
		assert.InDelta(t, 25.0, stat.BaselineAvg, 1e-9, name)
		assert.InDelta(t, 26.0, stat.Avg, 1e-9, name)
	}
}

func TestRecompute_Reproducible(t *testing.T) {
	t.Parallel()

	many := make(model.DefaultScores)
	want := make([]float64, 0, 200)
	for i := 1; i <= 200; i++ {
		v := 0.1*float64(i) + 1.0/3
		many[model.AreaID(i)] = model.DefaultScore{"jobs": v}
		want = append(want, v)
	}

	first := Recompute(many, nil, nil)
	assert.Equal(t, stat.Mean(want, nil), first["jobs"].Avg, "summed in area id order")
	for range 20 {
		assert.Equal(t, first, Recompute(many, nil, nil))
	}
}
