// Package summary reduces per-area scores into network-wide averages.
package summary

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/mbonsma/cyclelinx/internal/model"
)

// Stat is the average of one metric across the area universe under the
// current plan and under the baseline.
type Stat struct {
	Avg         float64 `json:"avg"`
	BaselineAvg float64 `json:"baselineAvg"`
}

// Delta is the average increase over baseline.
func (s Stat) Delta() float64 {
	return s.Avg - s.BaselineAvg
}

// Improved reports whether the plan raises the average.
func (s Stat) Improved() bool {
	return s.Delta() > 0
}

// Stats maps metric name to its summary.
type Stats map[string]Stat

// Metrics returns the metric names in sorted order.
func (s Stats) Metrics() []string {
	return slices.Sorted(maps.Keys(s))
}

// Recompute averages every metric over the areas of defaults, which is the
// authoritative area universe. Areas missing from current fall back to their
// default value so partial responses do not skew the average.
//
// The baseline value of an area is its budget score in baseline when one is
// supplied and covers the area, and its default value otherwise. A sparse
// baseline therefore blends with defaults.
func Recompute(defaults model.DefaultScores, current, baseline model.ScoreResults) Stats {
	stats := make(Stats)
	if len(defaults) == 0 {
		return stats
	}

	// Summing in id order keeps the averages bit-for-bit reproducible.
	ids := slices.Sorted(maps.Keys(defaults))
	vals := make([]float64, 0, len(ids))
	baseVals := make([]float64, 0, len(ids))
	for _, m := range metricSet(defaults, current) {
		vals, baseVals = vals[:0], baseVals[:0]
		for _, id := range ids {
			fallback := defaults[id][m]
			vals = append(vals, lookup(current, id, m, fallback))
			baseVals = append(baseVals, lookup(baseline, id, m, fallback))
		}
		stats[m] = Stat{Avg: stat.Mean(vals, nil), BaselineAvg: stat.Mean(baseVals, nil)}
	}
	return stats
}

func metricSet(defaults model.DefaultScores, current model.ScoreResults) []string {
	if len(current) == 0 {
		return defaults.Metrics()
	}
	seen := make(map[string]struct{})
	for _, rec := range current {
		for m := range rec.Scores.Budget {
			seen[m] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func lookup(results model.ScoreResults, id model.AreaID, metric string, fallback float64) float64 {
	rec, ok := results[id]
	if !ok {
		return fallback
	}
	v, ok := rec.Scores.Budget[metric]
	if !ok {
		return fallback
	}
	return v
}
