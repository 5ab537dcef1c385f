package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/namelens/brandlens/internal/errors"
	"github.com/namelens/brandlens/internal/evaluate"
	"github.com/namelens/brandlens/internal/metrics"
	"github.com/namelens/brandlens/internal/schema"
	servermw "github.com/namelens/brandlens/internal/server/middleware"
	"github.com/namelens/brandlens/internal/store"
)

// Headers set on evaluation responses when the evaluator records history.
const (
	EvaluationIDHeader     = servermw.EvaluationIDHeader
	EvaluationCachedHeader = servermw.EvaluationCachedHeader
)

// Store is the persistence the API needs. *store.Store satisfies it.
type Store interface {
	CreateStatusCheck(ctx context.Context, sc schema.StatusCheck) error
	ListStatusChecks(ctx context.Context, limit int) ([]schema.StatusCheck, error)
	ListEvaluations(ctx context.Context, limit int) ([]store.EvaluationSummary, error)
	GetEvaluation(ctx context.Context, id string) (*store.Evaluation, error)
}

// evaluationRunner is implemented by *evaluate.Service; it exposes the
// history id alongside the response.
type evaluationRunner interface {
	Run(ctx context.Context, req schema.BrandEvaluationRequest, opts evaluate.RunOptions) (*evaluate.Result, error)
}

// API serves the /api routes.
type API struct {
	Evaluator evaluate.Evaluator
	Store     Store
}

// RootResponse is returned by GET /api/.
type RootResponse struct {
	Message string `json:"message"`
}

// Routes mounts the API on r.
func (a *API) Routes(r chi.Router) {
	r.Get("/", a.Root)
	r.Post("/status", a.CreateStatusCheck)
	r.Get("/status", a.ListStatusChecks)
	r.Post("/evaluate", a.Evaluate)
	r.Get("/evaluations", a.ListEvaluations)
	r.Get("/evaluations/{id}", a.GetEvaluation)
}

// Root answers the API liveness greeting.
func (a *API) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Message: "BrandLens API"})
}

// CreateStatusCheck records a client status ping.
func (a *API) CreateStatusCheck(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	in, err := schema.ParseStatusCheckCreate(body)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	sc := schema.NewStatusCheck(in)
	if err := a.Store.CreateStatusCheck(r.Context(), sc); err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to store status check"))
		return
	}
	metrics.RecordStatusCheck()
	writeJSON(w, http.StatusOK, sc)
}

// ListStatusChecks returns recorded status checks.
func (a *API) ListStatusChecks(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, store.DefaultStatusLimit)
	if !ok {
		return
	}
	checks, err := a.Store.ListStatusChecks(r.Context(), limit)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list status checks"))
		return
	}
	writeJSON(w, http.StatusOK, checks)
}

// Evaluate scores the requested brand names.
func (a *API) Evaluate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := schema.ParseBrandEvaluationRequest(body)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if runner, ok := a.Evaluator.(evaluationRunner); ok {
		result, err := runner.Run(r.Context(), req, evaluate.RunOptions{})
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		if result.ID != "" {
			servermw.SetEvaluationID(r.Context(), result.ID)
			w.Header().Set(EvaluationIDHeader, result.ID)
		}
		w.Header().Set(EvaluationCachedHeader, strconv.FormatBool(result.Cached))
		writeJSON(w, http.StatusOK, result.Response)
		return
	}

	resp, err := a.Evaluator.Evaluate(r.Context(), req)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEvaluations returns evaluation history summaries, newest first.
func (a *API) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, store.DefaultHistoryLimit)
	if !ok {
		return
	}
	list, err := a.Store.ListEvaluations(r.Context(), limit)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list evaluations"))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetEvaluation returns one stored evaluation.
func (a *API) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	servermw.SetEvaluationID(r.Context(), id)
	ev, err := a.Store.GetEvaluation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, r, apperrors.WrapNotFound(r.Context(), err, fmt.Sprintf("evaluation %s not found", id)))
			return
		}
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to load evaluation"))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// readBody reads the request body, writing an error response when it is
// oversized, unreadable, empty, or not JSON.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, r, apperrors.WrapPayloadTooLarge(r.Context(), err,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)))
			return nil, false
		}
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "failed to read request body"))
		return nil, false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("request body is required"))
		return nil, false
	}
	if !jsonValid(body) {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), nil, "request body is not valid JSON"))
		return nil, false
	}
	return body, true
}

func parseLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "limit must be a positive integer"))
		return 0, false
	}
	return limit, true
}
