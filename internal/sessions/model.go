package sessions

import (
	"fmt"

	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/workflow"
)

// Snapshot is the client-facing view of a session.
type Snapshot struct {
	ID          string            `json:"id"`
	Activities  []ActivityView    `json:"activities"`
	Cursor      workflow.Cursor   `json:"cursor"`
	Page        PageView          `json:"page"`
	Controls    workflow.Controls `json:"controls"`
	Notice      *workflow.Notice  `json:"notice,omitempty"`
	ResultCount int               `json:"resultCount"`
}

// ActivityView describes one activity and its submission markers.
type ActivityView struct {
	ID        int              `json:"id"`
	Index     int              `json:"index"`
	Name      string           `json:"name"`
	Answers   decision.Answers `json:"answers"`
	Missing   []string         `json:"missing"`
	Submitted bool             `json:"submitted"`
	Pending   bool             `json:"pending"`
	Editing   bool             `json:"editing"`
}

// PageView is the questionnaire page under the cursor.
type PageView struct {
	Index  int         `json:"index"`
	Count  int         `json:"count"`
	Title  string      `json:"title"`
	Fields []FieldView `json:"fields"`
}

// FieldView is one question with its current answer.
type FieldView struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Value    string   `json:"value"`
}

// SubmitResult reports the effect of a submit.
type SubmitResult struct {
	Duplicate bool                     `json:"duplicate"`
	Discarded bool                     `json:"discarded,omitempty"`
	Result    *workflow.DecisionResult `json:"result,omitempty"`
	Results   []workflow.ResultView    `json:"results"`
	Session   Snapshot                 `json:"session"`
}

func buildSnapshot(id string, st *workflow.State, notice *workflow.Notice) Snapshot {
	snap := Snapshot{
		ID:          id,
		Activities:  make([]ActivityView, 0, len(st.Activities)),
		Cursor:      st.Cursor,
		Controls:    st.Controls(),
		Notice:      notice,
		ResultCount: len(st.Results),
	}
	for i, rec := range st.Activities {
		missing := make([]string, 0)
		for _, f := range rec.Answers.Missing() {
			missing = append(missing, f.Key())
		}
		snap.Activities = append(snap.Activities, ActivityView{
			ID:        rec.ID,
			Index:     i,
			Name:      rec.Answers.Name(fmt.Sprintf("Activity %d", i+1)),
			Answers:   rec.Answers,
			Missing:   missing,
			Submitted: st.Submitted[rec.ID],
			Pending:   st.IsPending(rec.ID),
			Editing:   st.Editing == rec.ID,
		})
	}

	page := workflow.PageAt(st.Cursor.Page)
	current := st.Current()
	snap.Page = PageView{
		Index:  st.Cursor.Page,
		Count:  workflow.PageCount,
		Title:  page.Title,
		Fields: make([]FieldView, 0, len(page.Fields)),
	}
	for _, f := range page.Fields {
		snap.Page.Fields = append(snap.Page.Fields, FieldView{
			Key:      f.Key(),
			Label:    f.Label(),
			Required: f.Required(),
			Options:  f.Options(),
			Value:    current.Answers[f],
		})
	}
	return snap
}
