package scoring

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrServiceUnavailable matches any failure to get a usable answer from the
// scoring service.
var ErrServiceUnavailable = eris.New("scoring: service unavailable")

// ServiceError describes a failed call. It matches ErrServiceUnavailable
// under errors.Is.
type ServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scoring: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scoring: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrServiceUnavailable.
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceUnavailable
}
