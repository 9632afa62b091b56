package decision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

func TestEngineDecide(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.FixedZone("X", 3600))
	engine := Engine{Now: func() time.Time { return now }}

	inputs := []Answers{baseAnswers(), baseAnswers().With(FieldDuration, "Long")}
	results, err := engine.Decide(context.Background(), inputs)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Outcome != OutcomeNewOutsource || results[1].Outcome != OutcomeInsource {
		t.Fatalf("unexpected outcomes %q %q", results[0].Outcome, results[1].Outcome)
	}
	if results[1].Answers != inputs[1] {
		t.Fatalf("expected answers echoed back")
	}
	if results[0].Timestamp == nil || results[0].Timestamp.Location() != time.UTC || !results[0].Timestamp.Equal(now) {
		t.Fatalf("expected UTC timestamp, got %v", results[0].Timestamp)
	}
}

func TestEngineRejectsWholeBatch(t *testing.T) {
	inputs := []Answers{baseAnswers(), baseAnswers().With(FieldCore, "")}
	_, err := Engine{}.Decide(context.Background(), inputs)
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RejectionError, got %v", err)
	}
	if len(rejection.Problems) != 1 || rejection.Problems[0].Field != "core" {
		t.Fatalf("unexpected problems %+v", rejection.Problems)
	}
	if IsRetryable(err) {
		t.Fatalf("rejection must not be retryable")
	}
}

func TestEngineEmptyBatch(t *testing.T) {
	_, err := Engine{}.Decide(context.Background(), nil)
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RejectionError, got %v", err)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transport", &TransportError{StatusCode: 503, Err: errors.New("unavailable")}, true},
		{"wrapped transport", fmt.Errorf("submit: %w", &TransportError{Err: errors.New("reset")}), true},
		{"deadline", context.DeadlineExceeded, true},
		{"net timeout", timeoutErr{}, true},
		{"rejection", &RejectionError{StatusCode: 400, Message: "bad"}, false},
		{"plain", errors.New("boom"), false},
		{"canceled", context.Canceled, false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
