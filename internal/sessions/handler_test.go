package sessions

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/decision"
	"sourcing-backend/internal/export"
)

func setupRouter(t *testing.T, d decision.Collaborator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t, d)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	var snap Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap.ID
}

func fillOverHTTP(t *testing.T, r http.Handler, id string) {
	t.Helper()
	for key, value := range requiredAnswers {
		body, _ := json.Marshal(map[string]string{"field": key, "value": value})
		w := doJSON(r, http.MethodPatch, "/api/v1/sessions/"+id+"/activities/1", string(body))
		if w.Code != http.StatusOK {
			t.Fatalf("patch %s status = %d body=%s", key, w.Code, w.Body.String())
		}
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body.Error.Code
}

func TestHandlerSubmitFlow(t *testing.T) {
	r := setupRouter(t, &countingEngine{})
	id := createSession(t, r)
	fillOverHTTP(t, r, id)

	w := doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d body=%s", w.Code, w.Body.String())
	}
	var res SubmitResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if res.Result == nil || res.Result.Outcome != decision.OutcomeNewOutsource {
		t.Fatalf("unexpected result %+v", res.Result)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/submit", `{"activityIndex":0}`)
	if w.Code != http.StatusConflict || errorCode(t, w) != "activity_locked" {
		t.Fatalf("resubmit status = %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/v1/sessions/"+id+"/results", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"seq":1`) {
		t.Fatalf("results status = %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/v1/sessions/"+id+"/results/summary", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "New Outsource") {
		t.Fatalf("summary status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestHandlerSubmitValidationDetails(t *testing.T) {
	r := setupRouter(t, &countingEngine{})
	id := createSession(t, r)

	w := doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/submit", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if errorCode(t, w) != decision.ErrorCodeValidation {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"field":"core"`) {
		t.Fatalf("expected missing core in details: %s", w.Body.String())
	}
}

func TestHandlerUnavailableCollaborator(t *testing.T) {
	engine := &countingEngine{err: &decision.TransportError{StatusCode: http.StatusServiceUnavailable}}
	r := setupRouter(t, engine)
	id := createSession(t, r)
	fillOverHTTP(t, r, id)

	w := doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/submit", "")
	if w.Code != http.StatusBadGateway || errorCode(t, w) != decision.ErrorCodeUnavailable {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestHandlerNotFound(t *testing.T) {
	r := setupRouter(t, &countingEngine{})

	w := doJSON(r, http.MethodGet, "/api/v1/sessions/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}

	id := createSession(t, r)
	w = doJSON(r, http.MethodGet, "/api/v1/sessions/"+id+"/results", "")
	if w.Code != http.StatusNotFound || errorCode(t, w) != "no_results" {
		t.Fatalf("results status = %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodDelete, "/api/v1/sessions/"+id+"/activities/9", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("remove status = %d", w.Code)
	}

	w = doJSON(r, http.MethodDelete, "/api/v1/sessions/"+id, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/v1/sessions/"+id, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
}

func TestHandlerBadRequests(t *testing.T) {
	r := setupRouter(t, &countingEngine{})
	id := createSession(t, r)

	cases := []struct {
		name, method, path, body string
	}{
		{"non numeric activity", http.MethodPatch, "/activities/abc", `{"field":"core","value":"Yes"}`},
		{"missing value", http.MethodPatch, "/activities/1", `{"field":"core"}`},
		{"unknown field", http.MethodPatch, "/activities/1", `{"field":"salary","value":"1"}`},
		{"skip without index", http.MethodPost, "/navigation/skip", `{}`},
		{"skip out of range", http.MethodPost, "/navigation/skip", `{"activityIndex":5}`},
		{"malformed submit", http.MethodPost, "/submit", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, tc.method, "/api/v1/sessions/"+id+tc.path, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandlerNavigation(t *testing.T) {
	r := setupRouter(t, &countingEngine{})
	id := createSession(t, r)

	w := doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/navigation/next", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("next on blank page status = %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/activities", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d", w.Code)
	}
	w = doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/navigation/skip", `{"activityIndex":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("skip status = %d body=%s", w.Code, w.Body.String())
	}
	var snap Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Cursor.Activity != 1 || snap.Cursor.Page != 0 {
		t.Fatalf("unexpected cursor %+v", snap.Cursor)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/navigation/back", "")
	if w.Code != http.StatusOK {
		t.Fatalf("back status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Cursor.Activity != 0 || snap.Cursor.Page != 2 {
		t.Fatalf("back should land on last page of previous activity, got %+v", snap.Cursor)
	}
}

func TestHandlerEditFlow(t *testing.T) {
	r := setupRouter(t, &countingEngine{})
	id := createSession(t, r)
	fillOverHTTP(t, r, id)
	if w := doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/submit", ""); w.Code != http.StatusOK {
		t.Fatalf("submit status = %d", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/activities/1/edit", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"editing":true`) {
		t.Fatalf("edit status = %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPost, "/api/v1/sessions/"+id+"/submit", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"duplicate":true`) {
		t.Fatalf("duplicate submit status = %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodDelete, "/api/v1/sessions/"+id+"/edit", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Edit cancelled") {
		t.Fatalf("cancel status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestHandlerExport(t *testing.T) {
	r := setupRouter(t, &countingEngine{})
	id := createSession(t, r)

	w := doJSON(r, http.MethodGet, "/api/v1/sessions/"+id+"/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != export.MimeTypeXLSX {
		t.Fatalf("content type = %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, export.DefaultFilename) {
		t.Fatalf("content disposition = %q", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected zip container")
	}
}
