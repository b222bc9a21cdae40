package primary

import (
	"errors"

	"github.com/example/clearance/internal/ports/secondary"
)

// Errors callers can match with errors.Is. Eligibility refusals are reported
// as *lifecycle.EligibilityError instead.
var (
	ErrNotFound        = secondary.ErrNotFound
	ErrConflict        = secondary.ErrConflict
	ErrInvalidArgument = errors.New("invalid argument")
)
