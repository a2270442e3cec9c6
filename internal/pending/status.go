package pending

// Status is the rendering classification of a segment.
type Status int

const (
	// StatusInert marks a segment with no candidate projects.
	StatusInert Status = iota
	// StatusAddable marks a segment that could be proposed for addition.
	StatusAddable
	// StatusConfirmed marks a segment in the active plan.
	StatusConfirmed
	// StatusPendingAdd marks a segment proposed for addition.
	StatusPendingAdd
	// StatusPendingRemove marks a segment proposed for removal.
	StatusPendingRemove
)

func (s Status) String() string {
	switch s {
	case StatusAddable:
		return "addable"
	case StatusConfirmed:
		return "confirmed"
	case StatusPendingAdd:
		return "pending-add"
	case StatusPendingRemove:
		return "pending-remove"
	default:
		return "inert"
	}
}

// ColorKey names the theme colour the renderer should stroke the segment
// with. Inert segments have no colour.
func (s Status) ColorKey() string {
	switch s {
	case StatusAddable:
		return "addableRoadColor"
	case StatusConfirmed:
		return "projectColor"
	case StatusPendingAdd:
		return "projectAddColor"
	case StatusPendingRemove:
		return "projectRemoveColor"
	default:
		return ""
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
