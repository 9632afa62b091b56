package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sourcing-backend/internal/decision"
	decisionapi "sourcing-backend/internal/decision/api"
	"sourcing-backend/internal/export"
	"sourcing-backend/internal/services/health"
	"sourcing-backend/internal/sessions"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/workflow"
)

func newTestRouter(t *testing.T, healthSvc *health.Service) http.Handler {
	t.Helper()
	svc := &sessions.Service{
		Store:       sessions.NewMemoryStore(time.Hour),
		Coordinator: &workflow.Coordinator{Decider: decision.Engine{}},
		Exporter:    export.NewXLSX(),
	}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewRouter(RouterDeps{
		Config: config.Config{
			CORSAllowOrigin:  []string{"http://localhost:5173"},
			SubmitRatePerSec: 1,
			SubmitRateBurst:  1,
		},
		Health:          healthSvc,
		SessionsHandler: sessions.NewHandler(svc),
		DecisionHandler: decisionapi.NewHandler(decision.Engine{}, export.NewXLSX()),
		RateLimiter:     middleware.NewRateLimiter(func() time.Time { return now }),
	})
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	w := serve(r, http.MethodGet, "/api/v1/health")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouterHealthDegraded(t *testing.T) {
	hs := health.NewService()
	hs.Register("redis", func(context.Context) error { return errors.New("down") })
	r := newTestRouter(t, hs)
	w := serve(r, http.MethodGet, "/api/v1/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRouterMetricsAndWelcome(t *testing.T) {
	r := newTestRouter(t, nil)
	if w := serve(r, http.MethodGet, "/"); w.Code != http.StatusOK {
		t.Fatalf("welcome status = %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("metrics status = %d", w.Code)
	}
}

func TestRouterRateLimitsSubmit(t *testing.T) {
	r := newTestRouter(t, nil)
	w := serve(r, http.MethodPost, "/api/v1/sessions")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	id := strings.Split(strings.Split(w.Body.String(), `"id":"`)[1], `"`)[0]

	first := serve(r, http.MethodPost, "/api/v1/sessions/"+id+"/submit")
	if first.Code != http.StatusUnprocessableEntity {
		t.Fatalf("first submit status = %d body=%s", first.Code, first.Body.String())
	}
	second := serve(r, http.MethodPost, "/api/v1/sessions/"+id+"/submit")
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second submit status = %d", second.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/sessions/"+id); w.Code != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", w.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
