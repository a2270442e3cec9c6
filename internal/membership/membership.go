// Package membership resolves which candidate projects a road segment
// belongs to.
package membership

import (
	"slices"

	"github.com/mbonsma/cyclelinx/internal/model"
)

// Resolve returns budgetProjectIDs ∪ {defaultProjectID}. A segment with no
// associations resolves to the empty set, which makes clicks on it no-ops.
func Resolve(seg model.Segment) model.ProjectSet {
	ids := model.NewProjectSet(seg.BudgetProjectIDs...)
	if seg.DefaultProjectID != nil {
		ids[*seg.DefaultProjectID] = struct{}{}
	}
	return ids
}

// Index holds the resolved project set of every segment. Segments are
// immutable for a session, so the sets are computed once.
type Index struct {
	sets  map[model.SegmentID]model.ProjectSet
	order []model.SegmentID
}

// NewIndex resolves every segment. Later duplicates of a segment id replace
// earlier ones.
func NewIndex(segments []model.Segment) *Index {
	ix := &Index{sets: make(map[model.SegmentID]model.ProjectSet, len(segments))}
	for _, seg := range segments {
		if _, dup := ix.sets[seg.ID]; !dup {
			ix.order = append(ix.order, seg.ID)
		}
		ix.sets[seg.ID] = Resolve(seg)
	}
	return ix
}

// Lookup returns the project set of a segment. ok is false for an unknown
// segment, in which case the returned set is empty.
func (ix *Index) Lookup(id model.SegmentID) (model.ProjectSet, bool) {
	s, ok := ix.sets[id]
	if !ok {
		return model.ProjectSet{}, false
	}
	return s, true
}

// Len returns the number of indexed segments.
func (ix *Index) Len() int {
	return len(ix.order)
}

// Segments returns segment ids in load order.
func (ix *Index) Segments() []model.SegmentID {
	return slices.Clone(ix.order)
}

// Overlapping returns, in load order, the segments whose project set shares
// at least one id with ids.
func (ix *Index) Overlapping(ids model.ProjectSet) []model.SegmentID {
	var out []model.SegmentID
	for _, id := range ix.order {
		if ix.sets[id].Intersects(ids) {
			out = append(out, id)
		}
	}
	return out
}
