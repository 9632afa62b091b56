package workflow

import (
	"errors"
	"fmt"
	"strings"

	"sourcing-backend/internal/decision"
)

var (
	ErrActivityNotFound  = errors.New("activity not found")
	ErrIndexOutOfRange   = errors.New("activity index out of range")
	ErrUnknownField      = errors.New("unknown field")
	ErrActivityLocked    = errors.New("activity already submitted; enter edit mode to change it")
	ErrSubmissionPending = errors.New("a submission for this activity is still in progress")
	ErrNothingToShow     = errors.New("no submitted results to show yet")
)

// ValidationError lists the required fields that block navigation or submission.
type ValidationError struct {
	ActivityID int
	Fields     []decision.Field
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("activity %d is missing required fields: %s", e.ActivityID, strings.Join(e.Keys(), ", "))
}

// Keys returns the wire names of the missing fields.
func (e *ValidationError) Keys() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Key())
	}
	return out
}
