package model

import (
	"errors"
	"io/fs"
)

// Error taxonomy shared by every stage of the engine. Failures wrap exactly
// one of these with fmt.Errorf("%w: ...") so callers can use errors.Is.
var (
	ErrEntryNotFound        = errors.New("entry not found")
	ErrMalformedMission     = errors.New("malformed mission")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInternalValidation   = errors.New("internal validation failure")
)

// KindOf names the taxonomy entry an error belongs to.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEntryNotFound):
		return "EntryNotFound"
	case errors.Is(err, ErrMalformedMission):
		return "MalformedMission"
	case errors.Is(err, ErrInvalidConfiguration):
		return "InvalidConfiguration"
	case errors.Is(err, ErrInternalValidation):
		return "InternalValidationFailure"
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return "IOError"
	}
	return "Unknown"
}
