package workflow

import (
	"strings"

	"sourcing-backend/internal/decision"
)

// AddActivity appends a blank record with a fresh id.
func (s *State) AddActivity() ActivityRecord {
	rec := ActivityRecord{ID: s.nextID()}
	s.Activities = append(s.Activities, rec)
	return rec
}

// UpdateField sets one answer, trimmed. Values are not checked against the field's domain
// here; submission validates.
func (s *State) UpdateField(id int, f decision.Field, value string) error {
	if !f.Valid() {
		return ErrUnknownField
	}
	i := s.indexOf(id)
	if i < 0 {
		return ErrActivityNotFound
	}
	s.Activities[i].Answers[f] = strings.TrimSpace(value)
	return nil
}

// RemoveActivity deletes the record and everything derived from it: its fingerprint, every
// cached result it produced and its submitted, pending and editing markers.
//
// The registry never empties. Removing the only record replaces it with a blank one under a
// new id.
func (s *State) RemoveActivity(id int) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrActivityNotFound
	}
	s.clampCursor()
	cursorID := s.Activities[s.Cursor.Activity].ID

	delete(s.Fingerprints, id)
	delete(s.Submitted, id)
	delete(s.Pending, id)
	if s.Editing == id {
		s.Editing = 0
	}
	kept := make([]DecisionResult, 0, len(s.Results))
	for _, r := range s.Results {
		if r.OriginalActivityID != id {
			kept = append(kept, r)
		}
	}
	s.Results = kept

	if len(s.Activities) == 1 {
		s.Activities = []ActivityRecord{{ID: s.nextID()}}
		s.Cursor = Cursor{}
		return nil
	}

	s.Activities = append(s.Activities[:i:i], s.Activities[i+1:]...)
	switch {
	case cursorID != id:
		s.Cursor.Activity = s.indexOf(cursorID)
	case i > 0:
		s.Cursor = Cursor{Activity: i - 1}
	default:
		s.Cursor = Cursor{}
	}
	return nil
}
