package decision

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Collaborator maps a batch of answer sets to one Result per input, in order.
type Collaborator interface {
	Decide(ctx context.Context, inputs []Answers) ([]Result, error)
}

// Engine evaluates the rules in-process.
type Engine struct {
	Now func() time.Time
}

// Decide validates every input before evaluating any of them; one bad input rejects the batch.
func (e Engine) Decide(ctx context.Context, inputs []Answers) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, &RejectionError{StatusCode: http.StatusBadRequest, Message: ErrEmptyBatch.Error()}
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			var inputErr *InputError
			if errors.As(err, &inputErr) {
				inputErr.Index = i
				return nil, &RejectionError{
					StatusCode: http.StatusBadRequest,
					Message:    inputErr.Error(),
					Problems:   inputErr.Problems,
				}
			}
			return nil, err
		}
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ts := now().UTC()
	out := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		stamp := ts
		out = append(out, Result{Answers: in, Outcome: Determine(in), Timestamp: &stamp})
	}
	return out, nil
}

var _ Collaborator = Engine{}
