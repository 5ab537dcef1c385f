package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/namelens/brandlens/internal/schema"
)

// DefaultHistoryLimit caps ListEvaluations when no limit is given.
const DefaultHistoryLimit = 50

// Evaluation is a stored evaluation with its originating request.
type Evaluation struct {
	ID        string                         `json:"id"`
	Request   schema.BrandEvaluationRequest  `json:"request"`
	Response  schema.BrandEvaluationResponse `json:"response"`
	Provider  string                         `json:"provider,omitempty"`
	Model     string                         `json:"model,omitempty"`
	CreatedAt time.Time                      `json:"created_at"`
}

// EvaluationSummary is the listing view of a stored evaluation.
type EvaluationSummary struct {
	ID          string    `json:"id"`
	BrandNames  []string  `json:"brand_names"`
	Category    string    `json:"category"`
	Positioning string    `json:"positioning"`
	MarketScope string    `json:"market_scope"`
	Provider    string    `json:"provider,omitempty"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveEvaluation records an evaluation in history.
func (s *Store) SaveEvaluation(ctx context.Context, ev Evaluation) error {
	ctx, err := s.ready(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(ev.ID) == "" {
		return errors.New("evaluation id is required")
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	reqJSON, err := json.Marshal(ev.Request)
	if err != nil {
		return fmt.Errorf("encode evaluation request: %w", err)
	}
	respJSON, err := json.Marshal(ev.Response)
	if err != nil {
		return fmt.Errorf("encode evaluation response: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO evaluations (id, request_json, response_json, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID, string(reqJSON), string(respJSON), ev.Provider, ev.Model, ev.CreatedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// GetEvaluation loads a stored evaluation. Returns ErrNotFound when absent.
func (s *Store) GetEvaluation(ctx context.Context, id string) (*Evaluation, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	var (
		reqJSON   string
		respJSON  string
		provider  string
		model     string
		createdAt int64
	)
	row := s.DB.QueryRowContext(ctx, `
		SELECT request_json, response_json, provider, model, created_at
		FROM evaluations WHERE id = ?
	`, id)
	if err := row.Scan(&reqJSON, &respJSON, &provider, &model, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("evaluation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch evaluation: %w", err)
	}

	ev := &Evaluation{
		ID:        id,
		Provider:  provider,
		Model:     model,
		CreatedAt: time.UnixMilli(createdAt).UTC(),
	}
	if err := json.Unmarshal([]byte(reqJSON), &ev.Request); err != nil {
		return nil, fmt.Errorf("decode evaluation request: %w", err)
	}
	resp, err := schema.ParseBrandEvaluationResponse([]byte(respJSON))
	if err != nil {
		return nil, fmt.Errorf("decode evaluation response: %w", err)
	}
	ev.Response = resp
	return ev, nil
}

// ListEvaluations returns evaluation summaries, newest first.
func (s *Store) ListEvaluations(ctx context.Context, limit int) ([]EvaluationSummary, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, request_json, provider, model, created_at
		FROM evaluations ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	out := make([]EvaluationSummary, 0)
	for rows.Next() {
		var (
			id        string
			reqJSON   string
			provider  string
			model     string
			createdAt int64
		)
		if err := rows.Scan(&id, &reqJSON, &provider, &model, &createdAt); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		var req schema.BrandEvaluationRequest
		if err := json.Unmarshal([]byte(reqJSON), &req); err != nil {
			return nil, fmt.Errorf("decode evaluation %s: %w", id, err)
		}
		out = append(out, EvaluationSummary{
			ID:          id,
			BrandNames:  req.BrandNames,
			Category:    req.Category,
			Positioning: string(req.Positioning),
			MarketScope: string(req.MarketScope),
			Provider:    provider,
			Model:       model,
			CreatedAt:   time.UnixMilli(createdAt).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return out, nil
}
