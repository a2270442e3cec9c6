package model

import "github.com/twpayne/go-geom"

// SegmentID identifies an arterial road segment.
type SegmentID int

// Segment is a road or path unit eligible for improvement. Segments are
// static reference data loaded once per session.
type Segment struct {
	ID               SegmentID   `json:"id"`
	GeoID            int64       `json:"GEO_ID"`
	TotalLength      float64     `json:"total_length"`
	DefaultProjectID *ProjectID  `json:"default_project_id"`
	BudgetProjectIDs []ProjectID `json:"budget_project_ids"`

	// Geometry is carried only for export; the core never inspects it.
	Geometry geom.T `json:"-"`
}
