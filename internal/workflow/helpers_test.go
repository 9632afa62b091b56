package workflow

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sourcing-backend/internal/decision"
)

var testNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// countingDecider answers through the in-process rules and counts calls. When errs is
// non-empty, each call pops the next error first.
type countingDecider struct {
	mu     sync.Mutex
	calls  int
	inputs [][]decision.Answers
	errs   []error
	omitTS bool
}

func (d *countingDecider) Decide(ctx context.Context, inputs []decision.Answers) ([]decision.Result, error) {
	d.mu.Lock()
	d.calls++
	d.inputs = append(d.inputs, inputs)
	var err error
	if len(d.errs) > 0 {
		err, d.errs = d.errs[0], d.errs[1:]
	}
	omit := d.omitTS
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	results, err := decision.Engine{Now: func() time.Time { return testNow }}.Decide(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if omit {
		for i := range results {
			results[i].Timestamp = nil
		}
	}
	return results, nil
}

func (d *countingDecider) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// steppingClock returns a strictly increasing instant per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := testNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func completeAnswers() decision.Answers {
	var a decision.Answers
	a[decision.FieldCore] = "Yes"
	a[decision.FieldFrequency] = "High"
	a[decision.FieldSpecialisedSkill] = "Yes"
	a[decision.FieldSimilarityWithCurrentScopes] = "Yes"
	a[decision.FieldSkillCapacity] = "No"
	a[decision.FieldDuration] = "Short"
	a[decision.FieldAffordability] = "Yes"
	a[decision.FieldBusinessCase] = "Yes"
	return a
}

func fill(t *testing.T, s *State, id int, a decision.Answers) {
	t.Helper()
	for _, f := range decision.Fields() {
		require.NoError(t, s.UpdateField(id, f, a[f]))
	}
}

func itoa64(n int64) string {
	return strconv.FormatInt(n, 10)
}
