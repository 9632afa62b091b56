package decision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrEmptyBatch is returned when a collaborator is called without inputs.
var ErrEmptyBatch = errors.New("decision batch is empty")

const (
	ErrorCodeValidation  = "validation_error"
	ErrorCodeRejected    = "decision_rejected"
	ErrorCodeUnavailable = "decision_unavailable"
)

// FieldProblem describes one invalid answer.
type FieldProblem struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// InputError reports answers that fail required-field or domain checks.
type InputError struct {
	Index    int
	Problems []FieldProblem
}

func (e *InputError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Issue)
	}
	return fmt.Sprintf("input %d invalid: %s", e.Index, strings.Join(parts, "; "))
}

// TransportError is a timeout or 5xx-class failure talking to the collaborator.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("decision service http status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("decision service transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError is a terminal refusal (4xx or semantic) from the collaborator.
type RejectionError struct {
	StatusCode int
	Message    string
	Problems   []FieldProblem
}

func (e *RejectionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("decision rejected (http status %d): %s", e.StatusCode, e.Message)
	}
	return "decision rejected: " + e.Message
}

// IsRetryable reports whether err is a timeout or 5xx-class failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return false
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
