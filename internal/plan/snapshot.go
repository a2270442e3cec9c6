package plan

import (
	"github.com/mbonsma/cyclelinx/internal/model"
	"github.com/mbonsma/cyclelinx/internal/summary"
)

// Snapshot is an immutable view of the controller state handed to observers.
type Snapshot struct {
	Seq            uint64            `json:"seq"`
	Busy           bool              `json:"busy"`
	Confirmed      []model.ProjectID `json:"confirmed"`
	ToAdd          []model.ProjectID `json:"toAdd"`
	ToRemove       []model.ProjectID `json:"toRemove"`
	SelectedBudget *int              `json:"selectedBudget,omitempty"`
	ActiveHistory  string            `json:"activeHistory,omitempty"`
	History        []string          `json:"history"`
	BaselineSet    bool              `json:"baselineSet"`
	ScoredAreas    int               `json:"scoredAreas"`
	Summary        summary.Stats     `json:"summary"`
	View           View              `json:"view"`
}

// FinalIDs is the plan a calculation would score right now.
func (s Snapshot) FinalIDs() model.ProjectSet {
	confirmed := model.NewProjectSet(s.Confirmed...)
	return confirmed.Difference(model.NewProjectSet(s.ToRemove...)).Union(model.NewProjectSet(s.ToAdd...))
}
