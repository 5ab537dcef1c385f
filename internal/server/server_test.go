package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/brandlens/internal/ailink/driver"
	"github.com/namelens/brandlens/internal/config"
	apperrors "github.com/namelens/brandlens/internal/errors"
	"github.com/namelens/brandlens/internal/evaluate"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/server/handlers"
	"github.com/namelens/brandlens/internal/store"
)

type memoryStore struct {
	mu     sync.Mutex
	checks []schema.StatusCheck
	evals  map[string]*store.Evaluation
	err    error
}

func (m *memoryStore) CreateStatusCheck(ctx context.Context, sc schema.StatusCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.checks = append(m.checks, sc)
	return nil
}

func (m *memoryStore) ListStatusChecks(ctx context.Context, limit int) ([]schema.StatusCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := append([]schema.StatusCheck{}, m.checks...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) ListEvaluations(ctx context.Context, limit int) ([]store.EvaluationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.EvaluationSummary, 0, len(m.evals))
	for id, ev := range m.evals {
		out = append(out, store.EvaluationSummary{ID: id, BrandNames: ev.Request.BrandNames})
	}
	return out, nil
}

func (m *memoryStore) GetEvaluation(ctx context.Context, id string) (*store.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.evals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return ev, nil
}

type stubEvaluator struct {
	resp *schema.BrandEvaluationResponse
	err  error
	got  *schema.BrandEvaluationRequest
}

func (s *stubEvaluator) Evaluate(ctx context.Context, req schema.BrandEvaluationRequest) (*schema.BrandEvaluationResponse, error) {
	s.got = &req
	return s.resp, s.err
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../schema/testdata/" + name)
	require.NoError(t, err)
	return data
}

func testServer(t *testing.T, eval evaluate.Evaluator, st handlers.Store) *Server {
	t.Helper()
	cfg := config.ServerConfig{Host: "127.0.0.1", MaxBodyBytes: 1 << 20}
	return New(cfg, &handlers.API{Evaluator: eval, Store: st}, nil)
}

func do(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := testServer(t, &stubEvaluator{}, &memoryStore{})

	rec := do(t, srv, http.MethodGet, "/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)

	rec = do(t, srv, http.MethodDelete, "/api/status", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Error.Code)
}

func TestAPIRoot(t *testing.T) {
	srv := testServer(t, &stubEvaluator{}, &memoryStore{})

	rec := do(t, srv, http.MethodGet, "/api/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"BrandLens API"}`, rec.Body.String())
}

func TestStatusChecks(t *testing.T) {
	st := &memoryStore{}
	srv := testServer(t, &stubEvaluator{}, st)

	rec := do(t, srv, http.MethodPost, "/api/status", []byte(`{"client_name":"monitor-1"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var created schema.StatusCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "monitor-1", created.ClientName)
	assert.Len(t, created.ID, 36)
	assert.WithinDuration(t, time.Now().UTC(), created.Timestamp, time.Minute)

	rec = do(t, srv, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []schema.StatusCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestStatusCheckValidation(t *testing.T) {
	srv := testServer(t, &stubEvaluator{}, &memoryStore{})

	cases := []struct {
		name string
		body string
		code string
	}{
		{"missing field", `{}`, "VALIDATION_FAILED"},
		{"wrong type", `{"client_name":42}`, "VALIDATION_FAILED"},
		{"unknown field", `{"client_name":"a","extra":1}`, "VALIDATION_FAILED"},
		{"malformed", `{"client_name":`, "INVALID_INPUT"},
		{"empty", ``, "INVALID_INPUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/status", []byte(tc.body))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestStatusCheckValidationListsViolations(t *testing.T) {
	srv := testServer(t, &stubEvaluator{}, &memoryStore{})

	rec := do(t, srv, http.MethodPost, "/api/status", []byte(`{}`))
	body := decodeError(t, rec)
	violations, ok := body.Error.Details["violations"].([]any)
	require.True(t, ok, "details: %v", body.Error.Details)
	require.NotEmpty(t, violations)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestStatusCheckStoreFailure(t *testing.T) {
	srv := testServer(t, &stubEvaluator{}, &memoryStore{err: errors.New("disk full")})

	rec := do(t, srv, http.MethodPost, "/api/status", []byte(`{"client_name":"a"}`))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "DATABASE_ERROR", decodeError(t, rec).Error.Code)
}

func TestStatusListLimit(t *testing.T) {
	srv := testServer(t, &stubEvaluator{}, &memoryStore{})

	rec := do(t, srv, http.MethodGet, "/api/status?limit=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Error.Code)
}

func TestEvaluate(t *testing.T) {
	resp, err := schema.ParseBrandEvaluationResponse(fixture(t, "response.json"))
	require.NoError(t, err)
	eval := &stubEvaluator{resp: &resp}
	srv := testServer(t, eval, &memoryStore{})

	rec := do(t, srv, http.MethodPost, "/api/evaluate", fixture(t, "request.json"))
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := schema.ParseBrandEvaluationResponse(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, resp.ExecutiveSummary, got.ExecutiveSummary)
	require.NotNil(t, eval.got)
	assert.Equal(t, []string{"Zynth", "Kavo"}, eval.got.BrandNames)
}

func TestEvaluateRejectsInvalidRequest(t *testing.T) {
	eval := &stubEvaluator{}
	srv := testServer(t, eval, &memoryStore{})

	body := strings.Replace(string(fixture(t, "request.json")), `"Premium"`, `"Luxury"`, 1)
	rec := do(t, srv, http.MethodPost, "/api/evaluate", []byte(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Error.Code)
	assert.Nil(t, eval.got)
}

func TestEvaluateErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"provider failure", &evaluate.UpstreamError{Stage: "generation", Err: &driver.ProviderError{Provider: "openai", StatusCode: 503}}, http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"provider timeout", &evaluate.UpstreamError{Stage: "generation", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "TIMEOUT"},
		{"invalid reply", &evaluate.UpstreamError{Stage: "response", Err: &schema.ValidationError{Record: "BrandEvaluationResponse"}}, http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"misaligned", &evaluate.AlignmentError{Missing: []string{"Kavo"}}, http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := testServer(t, &stubEvaluator{err: tc.err}, &memoryStore{})
			rec := do(t, srv, http.MethodPost, "/api/evaluate", fixture(t, "request.json"))
			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestEvaluateRejectsOversizedBody(t *testing.T) {
	cfg := config.ServerConfig{MaxBodyBytes: 64}
	srv := New(cfg, &handlers.API{Evaluator: &stubEvaluator{}, Store: &memoryStore{}}, nil)

	rec := do(t, srv, http.MethodPost, "/api/evaluate", fixture(t, "request.json"))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeError(t, rec).Error.Code)
}

func TestEvaluationHistory(t *testing.T) {
	req, err := schema.ParseBrandEvaluationRequest(fixture(t, "request.json"))
	require.NoError(t, err)
	st := &memoryStore{evals: map[string]*store.Evaluation{
		"ev-1": {ID: "ev-1", Request: req},
	}}
	srv := testServer(t, &stubEvaluator{}, st)

	rec := do(t, srv, http.MethodGet, "/api/evaluations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"ev-1"`)

	rec = do(t, srv, http.MethodGet, "/api/evaluations/ev-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"brand_names":["Zynth","Kavo"]`)

	rec = do(t, srv, http.MethodGet, "/api/evaluations/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Error.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	srv := testServer(t, &stubEvaluator{}, &memoryStore{})

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-abc", decodeError(t, rec).Error.RequestID)
}

func TestHealthAndVersionRoutes(t *testing.T) {
	srv := testServer(t, &stubEvaluator{}, &memoryStore{})

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/health/startup", "/version"} {
		rec := do(t, srv, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
