package decision

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Answers holds one value per Field. The empty string means "not answered".
type Answers [FieldCount]string

// Get returns the value for f, or "" when f is outside the set.
func (a Answers) Get(f Field) string {
	if !f.Valid() {
		return ""
	}
	return a[f]
}

// With returns a copy of a with f set to value.
func (a Answers) With(f Field, value string) Answers {
	if f.Valid() {
		a[f] = value
	}
	return a
}

// Trimmed returns a copy with surrounding whitespace removed from every value.
func (a Answers) Trimmed() Answers {
	for f := range a {
		a[f] = strings.TrimSpace(a[f])
	}
	return a
}

// Missing lists the required fields that are still empty.
func (a Answers) Missing() []Field {
	var out []Field
	for _, f := range RequiredFields() {
		if strings.TrimSpace(a[f]) == "" {
			out = append(out, f)
		}
	}
	return out
}

// Equal compares field by field. Values are trimmed so that "" and whitespace compare equal.
func (a Answers) Equal(b Answers) bool {
	for f := Field(0); f < FieldCount; f++ {
		if strings.TrimSpace(a[f]) != strings.TrimSpace(b[f]) {
			return false
		}
	}
	return true
}

// Validate checks required fields and value domains. Whitespace-only values count as
// unanswered, the same as in Missing and Equal.
func (a Answers) Validate() error {
	var problems []FieldProblem
	for _, f := range a.Missing() {
		problems = append(problems, FieldProblem{Field: f.Key(), Issue: "required"})
	}
	for f := Field(0); f < FieldCount; f++ {
		v := strings.TrimSpace(a[f])
		if v == "" || f.Accepts(v) {
			continue
		}
		problems = append(problems, FieldProblem{Field: f.Key(), Issue: fmt.Sprintf("invalid value %q", v)})
	}
	if len(problems) > 0 {
		return &InputError{Problems: problems}
	}
	return nil
}

// Name returns the activity name or a positional fallback.
func (a Answers) Name(fallback string) string {
	if name := strings.TrimSpace(a[FieldActivityName]); name != "" {
		return name
	}
	return fallback
}

// MarshalJSON writes the answers as a flat object keyed by field key.
func (a Answers) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.toMap())
}

// UnmarshalJSON reads a flat object; unknown keys are ignored.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = answersFromMap(raw)
	return nil
}

func (a Answers) toMap() map[string]any {
	out := make(map[string]any, FieldCount)
	for f := Field(0); f < FieldCount; f++ {
		out[f.Key()] = a[f]
	}
	return out
}

func answersFromMap(raw map[string]any) Answers {
	var a Answers
	for key, val := range raw {
		f, err := ParseField(key)
		if err != nil {
			continue
		}
		if s, ok := val.(string); ok {
			a[f] = s
		}
	}
	return a
}

// Result is the collaborator's decision for one input.
type Result struct {
	Answers   Answers
	Outcome   Outcome
	Timestamp *time.Time
}

// MarshalJSON flattens the answers next to outcome and timestamp.
func (r Result) MarshalJSON() ([]byte, error) {
	m := r.Answers.toMap()
	m["outcome"] = r.Outcome
	if r.Timestamp != nil {
		m["timestamp"] = r.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the flat shape produced by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Result{Answers: answersFromMap(raw)}
	if v, ok := raw["outcome"].(string); ok {
		out.Outcome = Outcome(v)
	}
	if v, ok := raw["timestamp"].(string); ok && strings.TrimSpace(v) != "" {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		out.Timestamp = &ts
	}
	*r = out
	return nil
}
