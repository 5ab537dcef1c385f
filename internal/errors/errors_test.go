package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/server/middleware"
)

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		CodeInvalidInput:       http.StatusBadRequest,
		CodeValidationFailed:   http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
		CodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeExternalService:    http.StatusBadGateway,
		CodeServiceUnavailable: http.StatusServiceUnavailable,
		CodeDatabase:           http.StatusInternalServerError,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatusFromCode(code), code)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromEnvelope(nil))
}

func TestWrapUsesRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDContextKey, "req-123")
	env := WrapNotFound(ctx, fmt.Errorf("missing row"), "evaluation not found")

	assert.Equal(t, CodeNotFound, env.Code)
	assert.Equal(t, "evaluation not found", env.Message)
	assert.Equal(t, "req-123", env.CorrelationID)
	assert.Equal(t, "missing row", ResponseDetails(env)["wrapped_error"])
}

func TestWrapValidationErrorListsViolations(t *testing.T) {
	verr := &schema.ValidationError{
		Record: "BrandEvaluationRequest",
		Violations: []schema.FieldViolation{
			{Field: "/brand_names", Message: "required"},
			{Field: "", Message: "must be an object"},
		},
	}
	env := WrapValidationError(context.Background(), fmt.Errorf("decode: %w", verr), "invalid request")

	require.Equal(t, CodeValidationFailed, env.Code)
	details := ResponseDetails(env)
	require.NotNil(t, details)
	assert.Equal(t, "BrandEvaluationRequest", details["record"])

	violations, ok := details["violations"].([]map[string]string)
	require.True(t, ok)
	require.Len(t, violations, 2)
	assert.Equal(t, "/brand_names", violations[0]["field"])
	assert.Equal(t, "/", violations[1]["field"])
}

func TestEnsureEnvelope(t *testing.T) {
	env := EnsureEnvelope(fmt.Errorf("boom"))
	assert.Equal(t, CodeInternal, env.Code)
	assert.Equal(t, "boom", ResponseDetails(env)["wrapped_error"])

	original := NewInvalidInputError("bad")
	assert.Same(t, original, EnsureEnvelope(original))

	assert.Equal(t, CodeInternal, EnsureEnvelope(nil).Code)
}

func TestEnsureCorrelationIDFallback(t *testing.T) {
	env := EnsureCorrelationID(NewInternalError("x"), context.Background())
	assert.Contains(t, env.CorrelationID, "fallback-")
	assert.Nil(t, EnsureCorrelationID(nil, nil))
}

func TestRespondWithEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/evaluations/abc", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDContextKey, "req-9"))
	rec := httptest.NewRecorder()

	RespondWithEnvelope(rec, req, NewNotFoundError("evaluation not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeNotFound, body.Error.Code)
	assert.Equal(t, "evaluation not found", body.Error.Message)
	assert.Equal(t, "req-9", body.Error.RequestID)
}
