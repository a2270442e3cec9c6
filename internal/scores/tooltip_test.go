package scores

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbonsma/cyclelinx/internal/model"
)

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1.23456, "1.23"},
		{0.0012345, "0.00123"},
		{-2.5, "-2.5"},
		{12.346, "12.35"},
		{999.999, "1000"},
		{12345.678, "12,346"},
		{2.0, "2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "input %v", tt.in)
	}
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12.5%", FormatPercent(0.125))
	assert.Equal(t, "-3.0%", FormatPercent(-0.03))
}

func TestMetricLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Jobs", MetricLabel("jobs"))
	assert.Equal(t, "Food Retail", MetricLabel("food_retail"))
}

func TestMetricLabel_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	labels := make([]string, 8)
	for i := range labels {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for range 100 {
				labels[i] = MetricLabel("food_retail")
			}
		}(i)
	}
	wg.Wait()

	for _, l := range labels {
		assert.Equal(t, "Food Retail", l)
	}
}

func TestPalette(t *testing.T) {
	t.Parallel()

	p := NewPalette([]string{"jobs", "parks", "schools"})
	assert.Equal(t, "#1b9e77", p.Color("jobs"))
	assert.Equal(t, "#d95f02", p.Color("parks"))
	assert.Equal(t, "#7570b3", p.Color("schools"))
	assert.Equal(t, "#e7298a", p.Color("greenspace"))
	assert.Equal(t, "#1b9e77", p.Color("jobs"), "colours are stable")
}

func TestTooltipRows(t *testing.T) {
	t.Parallel()

	rec := model.AreaScore{
		AreaID: 9,
		Scores: model.ScoreSet{
			Budget:   model.MetricScores{"jobs": 15, "parks": 0, "schools": 3},
			Original: model.MetricScores{"jobs": 10, "parks": 0, "schools": 0},
			Diff:     model.MetricScores{"jobs": 5, "parks": 0, "schools": 3},
		},
	}
	metrics := []string{"jobs", "parks", "schools", "missing"}

	t.Run("budget scope has no change column", func(t *testing.T) {
		t.Parallel()
		rows := TooltipRows(rec, model.ScopeBudget, metrics)
		require.Len(t, rows, 3)
		assert.Equal(t, TooltipRow{Metric: "jobs", Label: "Jobs", Value: "15"}, rows[0])
	})

	t.Run("diff scope reports percent change", func(t *testing.T) {
		t.Parallel()
		rows := TooltipRows(rec, model.ScopeDiff, metrics)
		require.Len(t, rows, 3)

		assert.Equal(t, "5", rows[0].Value)
		assert.Equal(t, "50.0%", rows[0].Change)
		assert.True(t, rows[0].Improved)

		assert.Equal(t, "N/A", rows[1].Change)
		assert.False(t, rows[1].Improved)

		assert.Equal(t, "Inf", rows[2].Change)
		assert.True(t, rows[2].Improved)
	})
}
