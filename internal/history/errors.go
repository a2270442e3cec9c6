package history

import "github.com/rotisserie/eris"

var (
	// ErrDuplicateName is returned when saving under a name already in use.
	ErrDuplicateName = eris.New("history: name already exists")
	// ErrNotFound is returned when no item has the requested name.
	ErrNotFound = eris.New("history: item not found")
	// ErrEmptyName is returned when saving without a name.
	ErrEmptyName = eris.New("history: name is required")
)
