package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sourcing-backend/internal/decision"
)

func TestEnterEditRoutesCursorAndNotifies(t *testing.T) {
	s := NewState()
	s.AddActivity()
	require.NoError(t, s.UpdateField(2, decision.FieldActivityName, "Payroll"))
	s.Submitted[2] = true
	s.Cursor = Cursor{Activity: 0, Page: 2}

	require.NoError(t, s.EnterEdit(2, testNow))
	require.Equal(t, 2, s.Editing)
	require.Equal(t, Cursor{Activity: 1}, s.Cursor)
	require.True(t, s.Submitted[2], "edit does not clear submitted")
	require.NotNil(t, s.Notice)
	require.Contains(t, s.Notice.Message, "Payroll")

	require.ErrorIs(t, s.EnterEdit(7, testNow), ErrActivityNotFound)
}

func TestCancelEditKeepsResults(t *testing.T) {
	s := NewState()
	fill(t, s, 1, completeAnswers())
	_, err := newCoordinator(&countingDecider{}).Submit(context.Background(), s, 0)
	require.NoError(t, err)
	fingerprint := s.Fingerprints[1]

	require.NoError(t, s.EnterEdit(1, testNow))
	editNotice := s.Notice.Message
	s.CancelEdit(testNow)
	require.Zero(t, s.Editing)
	require.NotEqual(t, editNotice, s.Notice.Message)
	require.Len(t, s.Results, 1)
	require.Equal(t, fingerprint, s.Fingerprints[1])
	require.ErrorIs(t, s.CheckForward(1), ErrActivityLocked)
}

func TestNoticeExpires(t *testing.T) {
	s := NewState()
	require.NoError(t, s.EnterEdit(1, testNow))
	require.NotNil(t, s.ActiveNotice(testNow.Add(time.Second), 3*time.Second))
	require.Nil(t, s.ActiveNotice(testNow.Add(3*time.Second), 3*time.Second))
	require.Nil(t, s.Notice)
}

func TestViewAllNumbersFromOne(t *testing.T) {
	s := NewState()
	_, err := s.ViewAll()
	require.ErrorIs(t, err, ErrNothingToShow)

	s.AddActivity()
	require.NoError(t, s.UpdateField(2, decision.FieldActivityName, "Payroll"))
	s.Results = []DecisionResult{
		{SubmissionKey: "1-1", OriginalActivityID: 1, Outcome: decision.OutcomeInsource},
		{SubmissionKey: "2-1", OriginalActivityID: 2, Answers: s.Activities[1].Answers, Outcome: decision.OutcomeEliminate},
	}
	view, err := s.ViewAll()
	require.NoError(t, err)
	require.Len(t, view, 2)
	require.Equal(t, 1, view[0].Seq)
	require.Equal(t, "Activity 1", view[0].ActivityName)
	require.Equal(t, 2, view[1].Seq)
	require.Equal(t, "Payroll", view[1].ActivityName)
}

func TestSummaryGroupsInOutcomeOrder(t *testing.T) {
	s := NewState()
	s.Results = []DecisionResult{
		{SubmissionKey: "1-1", OriginalActivityID: 1, Outcome: decision.OutcomeInsource},
		{SubmissionKey: "2-1", OriginalActivityID: 2, Outcome: decision.OutcomeEliminate},
		{SubmissionKey: "3-1", OriginalActivityID: 3, Outcome: decision.OutcomeInsource},
	}
	groups, err := s.Summary()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, decision.OutcomeEliminate, groups[0].Outcome)
	require.Equal(t, decision.OutcomeInsource, groups[1].Outcome)
	require.Equal(t, 2, groups[1].Count)
	require.Equal(t, []string{"Activity 1", "Activity 3"}, groups[1].Activities)
	require.Equal(t, decision.OutcomeInsource.Description(), groups[1].Description)
}

func TestReleaseStale(t *testing.T) {
	s := NewState()
	s.AddActivity()
	s.Pending[1] = testNow
	s.Pending[2] = testNow.Add(50 * time.Second)
	released := s.ReleaseStale(testNow.Add(time.Minute), 30*time.Second)
	require.Equal(t, []int{1}, released)
	require.True(t, s.IsPending(2))
}
