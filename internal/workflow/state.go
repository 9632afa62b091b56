// Package workflow holds the per-session activity workflow: the registry of activities, the
// questionnaire cursor, submission bookkeeping and the result cache.
//
// All operations mutate an explicit State value. State carries no locks; callers serialize
// access (see internal/sessions).
package workflow

import (
	"time"

	"sourcing-backend/internal/decision"
)

// ActivityRecord is one activity under evaluation.
type ActivityRecord struct {
	ID      int              `json:"id"`
	Answers decision.Answers `json:"answers"`
}

// DecisionResult is one accepted submission. SubmissionKey is unique for the life of the cache.
type DecisionResult struct {
	SubmissionKey      string           `json:"submissionKey"`
	OriginalActivityID int              `json:"originalActivityId"`
	Answers            decision.Answers `json:"answers"`
	Outcome            decision.Outcome `json:"outcome"`
	Timestamp          time.Time        `json:"timestamp"`
}

// Cursor addresses an activity by position and a page within it.
type Cursor struct {
	Activity int `json:"activityIndex"`
	Page     int `json:"pageIndex"`
}

type NoticeKind string

const (
	NoticeInfo  NoticeKind = "info"
	NoticeError NoticeKind = "error"
)

// Notice is a transient advisory message.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	Message  string     `json:"message"`
	IssuedAt time.Time  `json:"issuedAt"`
}

// State is the whole workflow for one session.
type State struct {
	Activities   []ActivityRecord         `json:"activities"`
	Fingerprints map[int]decision.Answers `json:"fingerprints,omitempty"`
	Results      []DecisionResult         `json:"results"`
	Cursor       Cursor                   `json:"cursor"`
	Submitted    map[int]bool             `json:"submitted,omitempty"`
	// Pending maps activity id to the time its submission started.
	Pending map[int]time.Time `json:"pending,omitempty"`
	// Editing is the id under explicit edit, 0 when none.
	Editing int     `json:"editing,omitempty"`
	Notice  *Notice `json:"notice,omitempty"`
	// LastID is the highest id ever issued; ids are never reused.
	LastID int `json:"lastId"`
}

// NewState returns a workflow with one blank activity.
func NewState() *State {
	s := &State{}
	s.Normalize()
	return s
}

// Normalize restores the structural invariants after decoding: at least one activity, a valid
// cursor, non-nil maps and an id high-water mark at or above every live id.
func (s *State) Normalize() {
	if s.Fingerprints == nil {
		s.Fingerprints = make(map[int]decision.Answers)
	}
	if s.Submitted == nil {
		s.Submitted = make(map[int]bool)
	}
	if s.Pending == nil {
		s.Pending = make(map[int]time.Time)
	}
	for _, rec := range s.Activities {
		if rec.ID > s.LastID {
			s.LastID = rec.ID
		}
	}
	if len(s.Activities) == 0 {
		s.Activities = append(s.Activities, ActivityRecord{ID: s.nextID()})
	}
	s.clampCursor()
}

// Activity returns a copy of the record with the given id.
func (s *State) Activity(id int) (ActivityRecord, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return ActivityRecord{}, false
	}
	return s.Activities[i], true
}

// Current returns the record under the cursor.
func (s *State) Current() ActivityRecord {
	s.clampCursor()
	return s.Activities[s.Cursor.Activity]
}

// IsPending reports whether a submission for id is in flight.
func (s *State) IsPending(id int) bool {
	_, ok := s.Pending[id]
	return ok
}

// ActiveNotice returns the notice if it is younger than ttl, clearing it otherwise.
// A zero ttl keeps notices until replaced.
func (s *State) ActiveNotice(now time.Time, ttl time.Duration) *Notice {
	if s.Notice == nil {
		return nil
	}
	if ttl > 0 && now.Sub(s.Notice.IssuedAt) >= ttl {
		s.Notice = nil
		return nil
	}
	n := *s.Notice
	return &n
}

// ReleaseStale clears pending markers older than maxAge and returns their ids. A submission
// whose completion was lost (process restart) would otherwise keep its activity busy forever.
func (s *State) ReleaseStale(now time.Time, maxAge time.Duration) []int {
	var released []int
	for id, started := range s.Pending {
		if now.Sub(started) >= maxAge {
			delete(s.Pending, id)
			released = append(released, id)
		}
	}
	return released
}

func (s *State) indexOf(id int) int {
	for i, rec := range s.Activities {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (s *State) nextID() int {
	next := s.LastID
	for _, rec := range s.Activities {
		if rec.ID > next {
			next = rec.ID
		}
	}
	next++
	s.LastID = next
	return next
}

func (s *State) clampCursor() {
	if s.Cursor.Activity < 0 {
		s.Cursor.Activity = 0
	}
	if s.Cursor.Activity >= len(s.Activities) {
		s.Cursor.Activity = len(s.Activities) - 1
	}
	if s.Cursor.Page < 0 {
		s.Cursor.Page = 0
	}
	if s.Cursor.Page >= PageCount {
		s.Cursor.Page = PageCount - 1
	}
}
