// Package scores holds the per-area accessibility scores of the plan in
// effect and turns them into choropleth styling.
package scores

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/mbonsma/cyclelinx/internal/model"
)

// Store holds the score records of the latest calculation. It is not safe
// for concurrent use; the plan controller is its only writer.
type Store struct {
	records model.ScoreResults
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new result set. Results are never merged: a new
// calculation always supersedes the previous one.
func (s *Store) Replace(records model.ScoreResults) {
	s.records = records.Clone()
}

// Get returns the record for an area. A miss means there is no data for the
// area this round and the caller should render it neutrally.
func (s *Store) Get(id model.AreaID) (model.AreaScore, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Len returns the number of areas with data.
func (s *Store) Len() int {
	return len(s.records)
}

// Snapshot returns a deep copy of the stored results.
func (s *Store) Snapshot() model.ScoreResults {
	return s.records.Clone()
}

// Values returns the sorted values of metric in scope across the areas
// present in the store. Areas lacking the metric are skipped.
func (s *Store) Values(metric string, scope model.Scope) []float64 {
	var vals []float64
	for _, rec := range s.records {
		if v, ok := rec.Scores.Scope(scope)[metric]; ok {
			vals = append(vals, v)
		}
	}
	slices.Sort(vals)
	return vals
}

// Extent returns the min and max of metric in scope over present areas. ok
// is false when the store is empty or no record carries the metric, meaning
// there is no legend to draw.
func (s *Store) Extent(metric string, scope model.Scope) (lo, hi float64, ok bool) {
	vals := s.Values(metric, scope)
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}

// Metrics returns the sorted union of budget-scope metric names across the
// stored records.
func (s *Store) Metrics() []string {
	seen := make(map[string]struct{})
	for _, rec := range s.records {
		for m := range rec.Scores.Budget {
			seen[m] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
