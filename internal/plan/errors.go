package plan

import "github.com/rotisserie/eris"

var (
	// ErrStaleResponse is returned to the caller whose request was superseded
	// by a newer calculation, budget selection, restore or reset. Its result
	// has been discarded.
	ErrStaleResponse = eris.New("plan: stale response discarded")
	// ErrNothingToSave is returned when saving history before any plan has
	// been scored.
	ErrNothingToSave = eris.New("plan: no scored plan to save")
	// ErrUnknownSegment is returned for a segment id outside the network.
	ErrUnknownSegment = eris.New("plan: unknown segment")
	// ErrUnknownMetric is returned when selecting a metric not in the catalog.
	ErrUnknownMetric = eris.New("plan: unknown metric")
)
