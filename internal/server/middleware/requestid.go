package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

type requestIDContextKey string

// RequestIDContextKey holds the request id string in the request context.
const RequestIDContextKey requestIDContextKey = "request_id"

type requestInfoKey struct{}

// maxRequestIDLength bounds caller-supplied ids; longer ones are replaced.
const maxRequestIDLength = 128

// requestInfo is shared between the handlers and the access log for one
// request. Handlers record the evaluation they produced or served.
type requestInfo struct {
	mu           sync.Mutex
	evaluationID string
}

// RequestID gives every request an id, echoed in X-Request-ID. An id set by
// chi's RequestID middleware wins, then a caller-supplied header when it is
// short and printable, then a fresh UUID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = acceptRequestID(r.Header.Get(RequestIDHeader))
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		ctx = context.WithValue(ctx, requestInfoKey{}, &requestInfo{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func acceptRequestID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > maxRequestIDLength {
		return ""
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return ""
		}
	}
	return id
}

// GetRequestID returns the request id from ctx, falling back to chi's.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return requestID
	}
	return middleware.GetReqID(ctx)
}

// SetEvaluationID records the evaluation a request created or looked up so
// the access log and error responses can name it. Outside RequestID it does
// nothing.
func SetEvaluationID(ctx context.Context, id string) {
	info, ok := ctx.Value(requestInfoKey{}).(*requestInfo)
	if !ok || id == "" {
		return
	}
	info.mu.Lock()
	info.evaluationID = id
	info.mu.Unlock()
}

// EvaluationID returns the id recorded by SetEvaluationID, or "".
func EvaluationID(ctx context.Context) string {
	info, ok := ctx.Value(requestInfoKey{}).(*requestInfo)
	if !ok {
		return ""
	}
	info.mu.Lock()
	defer info.mu.Unlock()
	return info.evaluationID
}
