package workflow

import "sourcing-backend/internal/export"

// ExportRows returns one result-shaped row per cached result, or one registry-shaped row per
// activity when nothing has been submitted.
func (s *State) ExportRows() []export.Row {
	if len(s.Results) > 0 {
		rows := make([]export.Row, 0, len(s.Results))
		for _, r := range s.Results {
			rows = append(rows, export.Row{
				Answers:   r.Answers,
				HasResult: true,
				Outcome:   r.Outcome,
				Timestamp: r.Timestamp,
			})
		}
		return rows
	}
	rows := make([]export.Row, 0, len(s.Activities))
	for _, rec := range s.Activities {
		rows = append(rows, export.Row{Answers: rec.Answers})
	}
	return rows
}
