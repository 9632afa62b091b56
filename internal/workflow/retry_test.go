package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sourcing-backend/internal/decision"
)

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	base := &countingDecider{errs: []error{
		&decision.TransportError{StatusCode: 502, Err: errors.New("bad gateway")},
		context.DeadlineExceeded,
	}}
	d := WithRetry(base, RetryPolicy{MaxAttempts: 3})

	results, err := d.Decide(context.Background(), []decision.Answers{completeAnswers()})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 3, base.Calls())
}

func TestRetryIsBounded(t *testing.T) {
	fail := &decision.TransportError{StatusCode: 503, Err: errors.New("unavailable")}
	base := &countingDecider{errs: []error{fail, fail, fail, fail, fail}}
	d := WithRetry(base, RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond})

	_, err := d.Decide(context.Background(), []decision.Answers{completeAnswers()})
	require.ErrorIs(t, err, fail)
	require.Equal(t, 3, base.Calls())
}

func TestRetrySkipsRejections(t *testing.T) {
	rejection := &decision.RejectionError{StatusCode: 400, Message: "bad input"}
	base := &countingDecider{errs: []error{rejection}}
	d := WithRetry(base, RetryPolicy{MaxAttempts: 3})

	_, err := d.Decide(context.Background(), []decision.Answers{completeAnswers()})
	require.ErrorIs(t, err, rejection)
	require.Equal(t, 1, base.Calls())
}

func TestRetryStopsWhenContextEnds(t *testing.T) {
	fail := &decision.TransportError{Err: errors.New("reset")}
	base := &countingDecider{errs: []error{fail, fail, fail}}
	d := WithRetry(base, RetryPolicy{MaxAttempts: 3, Delay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := d.Decide(ctx, []decision.Answers{completeAnswers()})
	require.ErrorIs(t, err, fail)
	require.Equal(t, 1, base.Calls())
	require.Less(t, time.Since(start), time.Second)
}

func TestWithRetryDefaults(t *testing.T) {
	require.Nil(t, WithRetry(nil, RetryPolicy{}))
	d := WithRetry(&countingDecider{}, RetryPolicy{Delay: -time.Second}).(retryingDecider)
	require.Equal(t, DefaultMaxAttempts, d.policy.MaxAttempts)
	require.Zero(t, d.policy.Delay)
}

func TestCoordinatorWithRetryMakesOneLogicalCall(t *testing.T) {
	base := &countingDecider{errs: []error{&decision.TransportError{StatusCode: 500, Err: errors.New("boom")}}}
	c := &Coordinator{Decider: WithRetry(base, RetryPolicy{MaxAttempts: 2}), Now: steppingClock()}
	s := NewState()
	fill(t, s, 1, completeAnswers())

	out, err := c.Submit(context.Background(), s, 0)
	require.NoError(t, err)
	require.Len(t, s.Results, 1)
	require.Equal(t, decision.OutcomeNewOutsource, out.Result.Outcome)
	require.Equal(t, 2, base.Calls())
	for _, batch := range base.inputs {
		require.Len(t, batch, 1, "each attempt carries only the submitted activity")
	}
}
