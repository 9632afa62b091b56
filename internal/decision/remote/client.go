// Package remote implements decision.Collaborator against an HTTP decision service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"sourcing-backend/internal/decision"
)

const (
	determinePath  = "/api/v1/decision/determine"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client posts decision batches to a remote service. It performs a single attempt per call;
// retries are the caller's policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for the service rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("DECISION_SERVICE_URL is required for the remote provider")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type determineRequest struct {
	Inputs []decision.Answers `json:"inputs"`
}

type determineResponse struct {
	Results []decision.Result `json:"results"`
}

type errorEnvelope struct {
	Error *struct {
		Code    string                  `json:"code"`
		Message string                  `json:"message"`
		Details []decision.FieldProblem `json:"details,omitempty"`
	} `json:"error"`
}

// Decide sends the batch and maps failures onto TransportError or RejectionError.
func (c *Client) Decide(ctx context.Context, inputs []decision.Answers) ([]decision.Result, error) {
	if len(inputs) == 0 {
		return nil, &decision.RejectionError{Message: decision.ErrEmptyBatch.Error()}
	}
	payload, err := json.Marshal(determineRequest{Inputs: inputs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+determinePath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &decision.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &decision.TransportError{StatusCode: resp.StatusCode, Err: errors.New(errorMessage(body, resp.Status))}
	}
	if resp.StatusCode == http.StatusRequestTimeout {
		return nil, &decision.TransportError{StatusCode: resp.StatusCode, Err: errors.New("request timeout")}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rejection := &decision.RejectionError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.Status)}
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error != nil {
			rejection.Problems = env.Error.Details
		}
		return nil, rejection
	}

	var parsed determineResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &decision.RejectionError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decision response parse: %v", err)}
	}
	if len(parsed.Results) != len(inputs) {
		return nil, &decision.RejectionError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decision response has %d results for %d inputs", len(parsed.Results), len(inputs)),
		}
	}
	for i, r := range parsed.Results {
		if !r.Outcome.Known() {
			return nil, &decision.RejectionError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("result %d has unknown outcome %q", i, r.Outcome)}
		}
	}
	return parsed.Results, nil
}

func errorMessage(body []byte, fallback string) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return fallback
}

var _ decision.Collaborator = (*Client)(nil)
