package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/decision/api"
	"sourcing-backend/internal/decision/remote"
)

func completeAnswers() decision.Answers {
	var a decision.Answers
	a[decision.FieldActivityName] = "Cleaning"
	a[decision.FieldCore] = "No"
	a[decision.FieldFrequency] = "High"
	a[decision.FieldSpecialisedSkill] = "No"
	a[decision.FieldSimilarityWithCurrentScopes] = "Yes"
	a[decision.FieldSkillCapacity] = "Yes"
	a[decision.FieldDuration] = "Long"
	a[decision.FieldAffordability] = "Yes"
	a[decision.FieldBusinessCase] = "Yes"
	a[decision.FieldRiskTolerance] = "No"
	return a
}

func newClient(t *testing.T, handler http.HandlerFunc) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := remote.NewClient(srv.URL+"/", time.Second)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := remote.NewClient("  ", time.Second)
	require.Error(t, err)
}

func TestDecideAgainstDecisionAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api.NewHandler(decision.Engine{}, nil).RegisterRoutes(r.Group("/api/v1"))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := remote.NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	results, err := c.Decide(context.Background(), []decision.Answers{completeAnswers()})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, decision.OutcomeEliminate, results[0].Outcome)
	require.Equal(t, "Cleaning", results[0].Answers[decision.FieldActivityName])
	require.NotNil(t, results[0].Timestamp)
}

func TestDecideSendsBatch(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/decision/determine", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))
		var body struct {
			Inputs []decision.Answers `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Inputs, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"activity_name":"Cleaning","outcome":"Insource"}]}`))
	})

	results, err := c.Decide(context.Background(), []decision.Answers{completeAnswers()})
	require.NoError(t, err)
	require.Equal(t, decision.OutcomeInsource, results[0].Outcome)
	require.Nil(t, results[0].Timestamp)
}

func TestDecideServerErrorIsTransport(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":"down","message":"maintenance"}}`))
	})

	_, err := c.Decide(context.Background(), []decision.Answers{completeAnswers()})
	var transport *decision.TransportError
	require.ErrorAs(t, err, &transport)
	require.Equal(t, http.StatusServiceUnavailable, transport.StatusCode)
	require.Contains(t, err.Error(), "maintenance")
	require.True(t, decision.IsRetryable(err))
}

func TestDecideClientErrorIsRejection(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"validation_error","message":"input 0 invalid","details":[{"field":"core","issue":"required"}]}}`))
	})

	_, err := c.Decide(context.Background(), []decision.Answers{completeAnswers()})
	var rejection *decision.RejectionError
	require.ErrorAs(t, err, &rejection)
	require.Equal(t, "input 0 invalid", rejection.Message)
	require.Equal(t, []decision.FieldProblem{{Field: "core", Issue: "required"}}, rejection.Problems)
	require.False(t, decision.IsRetryable(err))
}

func TestDecideMalformedResponses(t *testing.T) {
	cases := map[string]string{
		"not json":        `<html>`,
		"count mismatch":  `{"results":[]}`,
		"unknown outcome": `{"results":[{"outcome":"Maybe"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.Decide(context.Background(), []decision.Answers{completeAnswers()})
			var rejection *decision.RejectionError
			require.ErrorAs(t, err, &rejection)
		})
	}
}

func TestDecideTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	c, err := remote.NewClient(srv.URL, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = c.Decide(context.Background(), []decision.Answers{completeAnswers()})
	var transport *decision.TransportError
	require.ErrorAs(t, err, &transport)
	require.True(t, decision.IsRetryable(err))
}

func TestDecideCancelledContextPassesThrough(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Decide(ctx, []decision.Answers{completeAnswers()})
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, decision.IsRetryable(err))
}

func TestDecideEmptyBatch(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	})
	_, err := c.Decide(context.Background(), nil)
	var rejection *decision.RejectionError
	require.ErrorAs(t, err, &rejection)
}
