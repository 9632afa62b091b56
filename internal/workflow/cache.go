package workflow

import (
	"fmt"
	"time"

	"sourcing-backend/internal/decision"
)

// ResultView is a cache entry annotated for display.
type ResultView struct {
	Seq          int    `json:"seq"`
	ActivityName string `json:"activityName"`
	DecisionResult
}

// OutcomeGroup collects the cached results that share an outcome.
type OutcomeGroup struct {
	Outcome     decision.Outcome `json:"outcome"`
	Description string           `json:"description"`
	Count       int              `json:"count"`
	Activities  []string         `json:"activities"`
}

// EnterEdit opens a submitted activity for changes and moves the cursor to its first page.
// The submitted marker stays; the next accepted submit clears the edit.
func (s *State) EnterEdit(id int, now time.Time) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrActivityNotFound
	}
	if s.IsPending(id) {
		return ErrSubmissionPending
	}
	s.Editing = id
	s.Cursor = Cursor{Activity: i}
	name := s.Activities[i].Answers.Name(fmt.Sprintf("Activity %d", id))
	s.Notice = &Notice{
		Kind:     NoticeInfo,
		Message:  fmt.Sprintf("Editing %s. Submit again to record a new decision; earlier results are kept.", name),
		IssuedAt: now,
	}
	return nil
}

// CancelEdit leaves edit mode without touching results or fingerprints.
func (s *State) CancelEdit(now time.Time) {
	s.Editing = 0
	s.Notice = &Notice{
		Kind:     NoticeInfo,
		Message:  "Edit cancelled. Previous results are unchanged.",
		IssuedAt: now,
	}
}

// ViewAll lists cached results in insertion order, numbered from 1.
func (s *State) ViewAll() ([]ResultView, error) {
	if len(s.Results) == 0 {
		return nil, ErrNothingToShow
	}
	out := make([]ResultView, 0, len(s.Results))
	for i, r := range s.Results {
		out = append(out, ResultView{
			Seq:            i + 1,
			ActivityName:   r.Answers.Name(fmt.Sprintf("Activity %d", r.OriginalActivityID)),
			DecisionResult: r,
		})
	}
	return out, nil
}

// Summary groups cached results by outcome in display order, skipping empty groups.
func (s *State) Summary() ([]OutcomeGroup, error) {
	view, err := s.ViewAll()
	if err != nil {
		return nil, err
	}
	byOutcome := make(map[decision.Outcome]*OutcomeGroup)
	for _, v := range view {
		g, ok := byOutcome[v.Outcome]
		if !ok {
			g = &OutcomeGroup{Outcome: v.Outcome, Description: v.Outcome.Description()}
			byOutcome[v.Outcome] = g
		}
		g.Count++
		g.Activities = append(g.Activities, v.ActivityName)
	}
	var out []OutcomeGroup
	for _, o := range decision.Outcomes() {
		if g, ok := byOutcome[o]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}
