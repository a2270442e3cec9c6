package model

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/rotisserie/eris"
)

// AreaID identifies a dissemination area.
type AreaID int

// Scope selects which variant of a metric's value is read.
type Scope string

const (
	// ScopeBudget is the projected total under the plan.
	ScopeBudget Scope = "budget"
	// ScopeOriginal is the pre-plan value for the area.
	ScopeOriginal Scope = "original"
	// ScopeDiff is budget minus original.
	ScopeDiff Scope = "diff"
	// ScopeBin is a 0/1 presence indicator.
	ScopeBin Scope = "bin"
)

// Scopes lists every scope in display order.
var Scopes = []Scope{ScopeBudget, ScopeOriginal, ScopeDiff, ScopeBin}

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	sc := Scope(s)
	if !slices.Contains(Scopes, sc) {
		return "", eris.Errorf("model: unknown scope %q", s)
	}
	return sc, nil
}

// MetricScores maps metric name to value.
type MetricScores map[string]float64

// ScoreSet holds the four scopes for one area.
type ScoreSet struct {
	Budget   MetricScores `json:"budget"`
	Original MetricScores `json:"original"`
	Diff     MetricScores `json:"diff"`
	Bin      MetricScores `json:"bin"`
}

// Scope returns the values for sc, or nil for an unknown scope.
func (s ScoreSet) Scope(sc Scope) MetricScores {
	switch sc {
	case ScopeBudget:
		return s.Budget
	case ScopeOriginal:
		return s.Original
	case ScopeDiff:
		return s.Diff
	case ScopeBin:
		return s.Bin
	default:
		return nil
	}
}

// Clone deep-copies the score set.
func (s ScoreSet) Clone() ScoreSet {
	return ScoreSet{
		Budget:   maps.Clone(s.Budget),
		Original: maps.Clone(s.Original),
		Diff:     maps.Clone(s.Diff),
		Bin:      maps.Clone(s.Bin),
	}
}

// AreaScore is the score record for a single area.
type AreaScore struct {
	AreaID AreaID   `json:"da"`
	Scores ScoreSet `json:"scores"`
}

// ScoreResults maps area id to its score record. A response from the
// scoring service may omit areas.
type ScoreResults map[AreaID]AreaScore

// Clone deep-copies the results. Cloning nil yields nil.
func (r ScoreResults) Clone() ScoreResults {
	if r == nil {
		return nil
	}
	out := make(ScoreResults, len(r))
	for id, rec := range r {
		out[id] = AreaScore{AreaID: rec.AreaID, Scores: rec.Scores.Clone()}
	}
	return out
}

// DefaultScore holds the pre-plan value of every metric for one area.
type DefaultScore map[string]float64

// UnmarshalJSON drops the "da" bookkeeping key the API includes alongside
// the metric values.
func (d *DefaultScore) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "da")
	*d = raw
	return nil
}

// DefaultScores maps every known area to its default metric values. Its
// key set is the authoritative universe of areas.
type DefaultScores map[AreaID]DefaultScore

// Metrics returns the sorted union of metric names across all areas.
func (d DefaultScores) Metrics() []string {
	seen := make(map[string]struct{})
	for _, ds := range d {
		for m := range ds {
			seen[m] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
