package model

import (
	"slices"
	"time"
)

// HistoryItem is a named snapshot of a scored plan. Items are immutable once
// saved.
type HistoryItem struct {
	Name         string       `json:"name"`
	Improvements []ProjectID  `json:"improvements"`
	Scores       ScoreResults `json:"scores"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Clone deep-copies the item.
func (h HistoryItem) Clone() HistoryItem {
	return HistoryItem{
		Name:         h.Name,
		Improvements: slices.Clone(h.Improvements),
		Scores:       h.Scores.Clone(),
		CreatedAt:    h.CreatedAt,
	}
}
