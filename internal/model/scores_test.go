package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreResultsJSON = `{
  "12": {"da": 12, "scores": {
    "budget":   {"jobs": 150, "greenspace": 1},
    "original": {"jobs": 100, "greenspace": 0},
    "diff":     {"jobs": 50,  "greenspace": 1},
    "bin":      {"jobs": 1,   "greenspace": 1}
  }}
}`

func TestScoreResults_DecodeWireFormat(t *testing.T) {
	t.Parallel()

	var res ScoreResults
	require.NoError(t, json.Unmarshal([]byte(scoreResultsJSON), &res))

	rec, ok := res[12]
	require.True(t, ok)
	assert.Equal(t, AreaID(12), rec.AreaID)
	assert.InDelta(t, 150.0, rec.Scores.Scope(ScopeBudget)["jobs"], 1e-9)
	assert.InDelta(t, 100.0, rec.Scores.Scope(ScopeOriginal)["jobs"], 1e-9)
	assert.InDelta(t, 50.0, rec.Scores.Scope(ScopeDiff)["jobs"], 1e-9)
	assert.InDelta(t, 1.0, rec.Scores.Scope(ScopeBin)["greenspace"], 1e-9)
	assert.Nil(t, rec.Scores.Scope("bogus"))
}

func TestScoreResults_CloneIsDeep(t *testing.T) {
	t.Parallel()

	var res ScoreResults
	require.NoError(t, json.Unmarshal([]byte(scoreResultsJSON), &res))

	cp := res.Clone()
	cp[12].Scores.Budget["jobs"] = 0

	assert.InDelta(t, 150.0, res[12].Scores.Budget["jobs"], 1e-9)
	assert.Nil(t, ScoreResults(nil).Clone())
}

func TestDefaultScores_DropsAreaKey(t *testing.T) {
	t.Parallel()

	var d DefaultScores
	require.NoError(t, json.Unmarshal([]byte(`{"1": {"da": 1, "jobs": 10, "greenspace": 0}, "2": {"da": 2, "jobs": 4}}`), &d))

	require.Len(t, d, 2)
	assert.NotContains(t, d[1], "da")
	assert.InDelta(t, 10.0, d[1]["jobs"], 1e-9)
	assert.Equal(t, []string{"greenspace", "jobs"}, d.Metrics())
}

func TestParseScope(t *testing.T) {
	t.Parallel()

	for _, sc := range Scopes {
		got, err := ParseScope(string(sc))
		require.NoError(t, err)
		assert.Equal(t, sc, got)
	}

	_, err := ParseScope("total")
	assert.Error(t, err)
}
