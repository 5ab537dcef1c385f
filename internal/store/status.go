package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/namelens/brandlens/internal/schema"
)

// DefaultStatusLimit caps ListStatusChecks when no limit is given.
const DefaultStatusLimit = 1000

// CreateStatusCheck persists a status check.
func (s *Store) CreateStatusCheck(ctx context.Context, sc schema.StatusCheck) error {
	ctx, err := s.ready(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(sc.ID) == "" {
		return fmt.Errorf("status check id is required")
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO status_checks (id, client_name, timestamp) VALUES (?, ?, ?)`,
		sc.ID, sc.ClientName, sc.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert status check: %w", err)
	}
	return nil
}

// ListStatusChecks returns stored status checks in insertion order.
// A non-positive limit falls back to DefaultStatusLimit.
func (s *Store) ListStatusChecks(ctx context.Context, limit int) ([]schema.StatusCheck, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultStatusLimit
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, client_name, timestamp FROM status_checks ORDER BY rowid ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	out := make([]schema.StatusCheck, 0)
	for rows.Next() {
		var id, client, ts string
		if err := rows.Scan(&id, &client, &ts); err != nil {
			return nil, fmt.Errorf("scan status check: %w", err)
		}
		sc, err := schema.DecodeStatusCheck(map[string]any{
			"id":          id,
			"client_name": client,
			"timestamp":   ts,
		})
		if err != nil {
			return nil, fmt.Errorf("decode status check %s: %w", id, err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list status checks: %w", err)
	}
	return out, nil
}
