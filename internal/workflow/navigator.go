package workflow

// Controls describes which actions are available at the cursor.
type Controls struct {
	CanNext   bool `json:"canNext"`
	CanBack   bool `json:"canBack"`
	CanSubmit bool `json:"canSubmit"`
	Busy      bool `json:"busy"`
	Locked    bool `json:"locked"`
	Editing   bool `json:"editing"`
}

// Next advances one page, crossing into the next activity from the last page. It is a no-op
// on the final page of the final activity. Required fields on the current page must be
// filled before moving on.
func (s *State) Next() error {
	s.clampCursor()
	rec := s.Activities[s.Cursor.Activity]
	if missing := missingOnPage(rec.Answers, s.Cursor.Page); len(missing) > 0 {
		return &ValidationError{ActivityID: rec.ID, Fields: missing}
	}
	switch {
	case s.Cursor.Page < PageCount-1:
		s.Cursor.Page++
	case s.Cursor.Activity < len(s.Activities)-1:
		s.Cursor = Cursor{Activity: s.Cursor.Activity + 1}
	}
	return nil
}

// Back is the mirror of Next; stepping into the previous activity lands on its last page.
func (s *State) Back() {
	s.clampCursor()
	switch {
	case s.Cursor.Page > 0:
		s.Cursor.Page--
	case s.Cursor.Activity > 0:
		s.Cursor = Cursor{Activity: s.Cursor.Activity - 1, Page: PageCount - 1}
	}
}

// SkipTo jumps to the first page of the activity at index.
func (s *State) SkipTo(index int) error {
	if index < 0 || index >= len(s.Activities) {
		return ErrIndexOutOfRange
	}
	s.Cursor = Cursor{Activity: index}
	return nil
}

// CheckForward reports whether forward actions (next, submit, field edits) are allowed on
// the activity: not while its submission is pending, and not after it was submitted unless
// it is under edit.
func (s *State) CheckForward(id int) error {
	if s.indexOf(id) < 0 {
		return ErrActivityNotFound
	}
	if s.IsPending(id) {
		return ErrSubmissionPending
	}
	if s.Submitted[id] && s.Editing != id {
		return ErrActivityLocked
	}
	return nil
}

// Controls reports the actions available at the cursor.
func (s *State) Controls() Controls {
	s.clampCursor()
	rec := s.Activities[s.Cursor.Activity]
	forward := s.CheckForward(rec.ID)
	atEnd := s.Cursor.Activity == len(s.Activities)-1 && s.Cursor.Page == PageCount-1

	return Controls{
		CanNext:   forward == nil && !atEnd && len(missingOnPage(rec.Answers, s.Cursor.Page)) == 0,
		CanBack:   s.Cursor.Activity > 0 || s.Cursor.Page > 0,
		CanSubmit: forward == nil && len(rec.Answers.Missing()) == 0,
		Busy:      s.IsPending(rec.ID),
		Locked:    forward == ErrActivityLocked,
		Editing:   s.Editing == rec.ID,
	}
}
