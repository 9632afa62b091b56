package workflow

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"sourcing-backend/internal/decision"
)

// Ticket is a prepared submission. A duplicate ticket needs no collaborator call.
type Ticket struct {
	ActivityID int              `json:"activityId"`
	Answers    decision.Answers `json:"answers"`
	Duplicate  bool             `json:"duplicate"`
	StartedAt  time.Time        `json:"startedAt"`
}

// PrepareSubmit validates and deduplicates the activity at index. For a fresh submission it
// commits the fingerprint and marks the activity pending; the fingerprint is not rolled back
// if the call later fails.
func (s *State) PrepareSubmit(index int, now time.Time) (Ticket, error) {
	if index < 0 || index >= len(s.Activities) {
		return Ticket{}, ErrIndexOutOfRange
	}
	rec := s.Activities[index]
	if s.IsPending(rec.ID) {
		return Ticket{}, ErrSubmissionPending
	}
	if missing := rec.Answers.Missing(); len(missing) > 0 {
		return Ticket{}, &ValidationError{ActivityID: rec.ID, Fields: missing}
	}

	ticket := Ticket{ActivityID: rec.ID, Answers: rec.Answers, StartedAt: now}
	if fp, ok := s.Fingerprints[rec.ID]; ok && fp.Equal(rec.Answers) {
		ticket.Duplicate = true
		return ticket, nil
	}

	s.Fingerprints[rec.ID] = rec.Answers
	s.Pending[rec.ID] = now
	return ticket, nil
}

// CompleteSubmit records an accepted decision. It reports false when the activity was
// removed while the call was in flight; the result is then dropped.
func (s *State) CompleteSubmit(t Ticket, result decision.Result, now time.Time) (DecisionResult, bool) {
	delete(s.Pending, t.ActivityID)
	if s.indexOf(t.ActivityID) < 0 {
		return DecisionResult{}, false
	}

	ts := now
	if result.Timestamp != nil && !result.Timestamp.IsZero() {
		ts = *result.Timestamp
	}
	entry := DecisionResult{
		SubmissionKey:      s.mintKey(t.ActivityID, now),
		OriginalActivityID: t.ActivityID,
		Answers:            t.Answers,
		Outcome:            result.Outcome,
		Timestamp:          ts.UTC(),
	}
	s.Results = append(s.Results, entry)
	s.Submitted[t.ActivityID] = true
	if s.Editing == t.ActivityID {
		s.Editing = 0
	}
	return entry, true
}

// FailSubmit clears the pending marker and leaves an error notice.
func (s *State) FailSubmit(t Ticket, err error, now time.Time) {
	delete(s.Pending, t.ActivityID)
	name := fmt.Sprintf("Activity %d", t.ActivityID)
	if rec, ok := s.Activity(t.ActivityID); ok {
		name = rec.Answers.Name(name)
	}
	s.Notice = &Notice{
		Kind:     NoticeError,
		Message:  fmt.Sprintf("Could not get a decision for %s: %s", name, failureReason(err)),
		IssuedAt: now,
	}
}

// mintKey builds "<activityId>-<unixNano>", bumping the instant on collision.
func (s *State) mintKey(activityID int, now time.Time) string {
	used := make(map[string]struct{}, len(s.Results))
	for _, r := range s.Results {
		used[r.SubmissionKey] = struct{}{}
	}
	nanos := now.UnixNano()
	for {
		key := strconv.Itoa(activityID) + "-" + strconv.FormatInt(nanos, 10)
		if _, taken := used[key]; !taken {
			return key
		}
		nanos++
	}
}

func failureReason(err error) string {
	var rejection *decision.RejectionError
	if errors.As(err, &rejection) {
		return "the decision service rejected the answers"
	}
	if decision.IsRetryable(err) {
		return "the decision service is unavailable, please try again"
	}
	return "unexpected error"
}
