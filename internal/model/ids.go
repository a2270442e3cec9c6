package model

import (
	"encoding/json"
	"slices"
)

// ProjectID identifies a candidate cycling-infrastructure project. A project
// may span several segments and belong to several budgets.
type ProjectID int

// ProjectSet is an unordered set of project ids. The zero value (nil) is an
// empty set that can be read but not written; use NewProjectSet or the set
// operations, which always return fresh sets.
type ProjectSet map[ProjectID]struct{}

// NewProjectSet builds a set from ids, dropping duplicates.
func NewProjectSet(ids ...ProjectID) ProjectSet {
	s := make(ProjectSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is a member.
func (s ProjectSet) Has(id ProjectID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of members.
func (s ProjectSet) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s ProjectSet) Clone() ProjectSet {
	out := make(ProjectSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Union returns s ∪ o.
func (s ProjectSet) Union(o ProjectSet) ProjectSet {
	out := s.Clone()
	for id := range o {
		out[id] = struct{}{}
	}
	return out
}

// Difference returns s \ o.
func (s ProjectSet) Difference(o ProjectSet) ProjectSet {
	out := make(ProjectSet, len(s))
	for id := range s {
		if !o.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Intersection returns s ∩ o.
func (s ProjectSet) Intersection(o ProjectSet) ProjectSet {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(ProjectSet)
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Intersects reports whether s ∩ o is non-empty without allocating.
func (s ProjectSet) Intersects(o ProjectSet) bool {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	for id := range small {
		if large.Has(id) {
			return true
		}
	}
	return false
}

// Equal reports whether both sets hold exactly the same ids.
func (s ProjectSet) Equal(o ProjectSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

// Sorted returns the members in ascending order.
func (s ProjectSet) Sorted() []ProjectID {
	out := make([]ProjectID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s ProjectSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of ids.
func (s *ProjectSet) UnmarshalJSON(data []byte) error {
	var ids []ProjectID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewProjectSet(ids...)
	return nil
}
