// Package pending tracks the projects a user proposes to add to or remove
// from the active plan, and classifies segments for rendering.
package pending

import (
	"encoding/json"

	"github.com/mbonsma/cyclelinx/internal/model"
)

// ChangeSet is the pair of pending additions and removals. ToAdd and
// ToRemove are always disjoint; the toggle transition maintains this rather
// than rejecting input. ChangeSet values are immutable: every transition
// returns a new value.
type ChangeSet struct {
	toAdd    model.ProjectSet
	toRemove model.ProjectSet
}

// ToAdd returns a copy of the pending additions.
func (c ChangeSet) ToAdd() model.ProjectSet { return c.toAdd.Clone() }

// ToRemove returns a copy of the pending removals.
func (c ChangeSet) ToRemove() model.ProjectSet { return c.toRemove.Clone() }

// Empty reports whether nothing is pending.
func (c ChangeSet) Empty() bool {
	return c.toAdd.Len() == 0 && c.toRemove.Len() == 0
}

// Toggle applies one click on a segment whose project set is ids. The first
// matching rule wins:
//
//  1. ids overlap toAdd: drop ids from toAdd.
//  2. ids overlap toRemove: drop ids from toRemove.
//  3. ids overlap confirmed: add ids to toRemove.
//  4. otherwise: add ids to toAdd.
//
// An empty ids leaves the change set unchanged.
func (c ChangeSet) Toggle(ids, confirmed model.ProjectSet) ChangeSet {
	if ids.Len() == 0 {
		return c
	}
	switch {
	case c.toAdd.Intersects(ids):
		return ChangeSet{toAdd: c.toAdd.Difference(ids), toRemove: c.toRemove}
	case c.toRemove.Intersects(ids):
		return ChangeSet{toAdd: c.toAdd, toRemove: c.toRemove.Difference(ids)}
	case confirmed.Intersects(ids):
		return ChangeSet{toAdd: c.toAdd, toRemove: c.toRemove.Union(ids)}
	default:
		return ChangeSet{toAdd: c.toAdd.Union(ids), toRemove: c.toRemove}
	}
}

// Reset returns an empty change set.
func (c ChangeSet) Reset() ChangeSet {
	return ChangeSet{}
}

// Apply returns the plan that results from committing the pending changes:
// (confirmed \ toRemove) ∪ toAdd.
func (c ChangeSet) Apply(confirmed model.ProjectSet) model.ProjectSet {
	return confirmed.Difference(c.toRemove).Union(c.toAdd)
}

// Classify derives the edit status of a segment whose project set is all.
func (c ChangeSet) Classify(all, confirmed model.ProjectSet) Status {
	switch {
	case all.Intersects(c.toRemove):
		return StatusPendingRemove
	case all.Intersects(c.toAdd):
		return StatusPendingAdd
	case all.Intersects(confirmed):
		return StatusConfirmed
	case all.Len() > 0:
		return StatusAddable
	default:
		return StatusInert
	}
}

type changeSetJSON struct {
	ToAdd    model.ProjectSet `json:"toAdd"`
	ToRemove model.ProjectSet `json:"toRemove"`
}

// MarshalJSON encodes both sets as sorted arrays.
func (c ChangeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(changeSetJSON{ToAdd: c.toAdd.Clone(), ToRemove: c.toRemove.Clone()})
}
