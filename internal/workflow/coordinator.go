package workflow

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/shared/metrics"
)

// Coordinator runs submissions against a decision collaborator.
type Coordinator struct {
	Decider decision.Collaborator
	Now     func() time.Time
}

// SubmitOutcome is what a submit produced. For a duplicate, Result is zero and View holds
// the current cache.
type SubmitOutcome struct {
	Duplicate bool
	Discarded bool
	Result    DecisionResult
	View      []ResultView
}

// Submit runs prepare, call and complete in one step. Callers that must not hold a lock
// across the call use PrepareSubmit, Call and CompleteSubmit/FailSubmit directly.
func (c *Coordinator) Submit(ctx context.Context, s *State, index int) (SubmitOutcome, error) {
	ticket, err := s.PrepareSubmit(index, c.now())
	if err != nil {
		return SubmitOutcome{}, err
	}
	if ticket.Duplicate {
		view, _ := s.ViewAll()
		return SubmitOutcome{Duplicate: true, View: view}, nil
	}

	result, err := c.Call(ctx, ticket)
	if err != nil {
		s.FailSubmit(ticket, err, c.now())
		return SubmitOutcome{}, err
	}
	entry, ok := s.CompleteSubmit(ticket, result, c.now())
	if !ok {
		return SubmitOutcome{Discarded: true}, nil
	}
	view, _ := s.ViewAll()
	return SubmitOutcome{Result: entry, View: view}, nil
}

// Call sends the ticket as a single-activity batch and checks the reply shape.
func (c *Coordinator) Call(ctx context.Context, t Ticket) (decision.Result, error) {
	if c.Decider == nil {
		return decision.Result{}, fmt.Errorf("decision collaborator not configured")
	}
	start := time.Now()
	results, err := c.Decider.Decide(ctx, []decision.Answers{t.Answers})
	metrics.ObserveDecisionDuration(time.Since(start))
	if err != nil {
		return decision.Result{}, err
	}
	if len(results) != 1 {
		return decision.Result{}, &decision.RejectionError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("expected 1 result, got %d", len(results)),
		}
	}
	if !results[0].Outcome.Known() {
		return decision.Result{}, &decision.RejectionError{
			StatusCode: http.StatusOK,
			Message:    fmt.Sprintf("unknown outcome %q", results[0].Outcome),
		}
	}
	return results[0], nil
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
