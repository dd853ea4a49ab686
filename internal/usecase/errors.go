package usecase

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")

	// ErrExtraction aborts a cycle: the page had no recognizable match list.
	ErrExtraction = crerr.New("extraction failed")
	// ErrValidation drops one fragment; the cycle continues.
	ErrValidation = crerr.New("validation failed")
	// ErrResolutionConflict means the stored identity index holds two
	// entities with one key. It is logged, never returned to callers.
	ErrResolutionConflict = crerr.New("resolution conflict")
	// ErrPersistence aborts a cycle after the store rolled the batch back.
	ErrPersistence = crerr.New("persistence failed")
)

// ValidationError names the fragment and field that failed normalization.
type ValidationError struct {
	SourceID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.SourceID == "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: match %s: %s: %s", e.SourceID, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func extractionError(err error) error {
	return crerr.Mark(crerr.Wrap(err, "extract fragments"), ErrExtraction)
}

func persistenceError(op string, err error) error {
	return crerr.Mark(crerr.Wrap(err, op), ErrPersistence)
}
