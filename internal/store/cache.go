package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EvaluationCacheEntry captures a cached evaluation response and the
// provider and model that produced it.
type EvaluationCacheEntry struct {
	ResponseJSON string
	Provider     string
	Model        string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// DomainCacheEntry captures a cached RDAP lookup.
type DomainCacheEntry struct {
	Domain    string
	Status    string
	Message   string
	CheckedAt time.Time
	ExpiresAt time.Time
}

// GetEvaluationCache returns a cached evaluation if present and not expired.
// A miss returns nil, nil.
func (s *Store) GetEvaluationCache(ctx context.Context, key string) (*EvaluationCacheEntry, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	var (
		response string
		provider string
		model    string
		created  int64
		expires  int64
	)
	row := s.DB.QueryRowContext(ctx,
		`SELECT response_json, provider, model, created_at, expires_at FROM evaluation_cache
		 WHERE key = ? AND expires_at > ?`,
		key, time.Now().UTC().Unix(),
	)
	if err := row.Scan(&response, &provider, &model, &created, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached evaluation: %w", err)
	}

	return &EvaluationCacheEntry{
		ResponseJSON: response,
		Provider:     provider,
		Model:        model,
		CreatedAt:    time.Unix(created, 0).UTC(),
		ExpiresAt:    time.Unix(expires, 0).UTC(),
	}, nil
}

// SetEvaluationCache stores an evaluation response with TTL. The entry's
// timestamps are ignored and derived from the current time.
func (s *Store) SetEvaluationCache(ctx context.Context, key string, entry EvaluationCacheEntry, ttl time.Duration) error {
	ctx, err := s.ready(ctx)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	now := time.Now().UTC()
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO evaluation_cache (key, response_json, provider, model, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key)
		 DO UPDATE SET response_json = excluded.response_json,
		               provider = excluded.provider,
		               model = excluded.model,
		               created_at = excluded.created_at,
		               expires_at = excluded.expires_at`,
		key, entry.ResponseJSON, entry.Provider, entry.Model, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("store cached evaluation: %w", err)
	}
	return nil
}

// GetDomainCache returns a cached domain check if still valid.
func (s *Store) GetDomainCache(ctx context.Context, domain string) (*DomainCacheEntry, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	domain = normalizeDomain(domain)
	if domain == "" {
		return nil, errors.New("domain is required")
	}

	var (
		status  string
		message sql.NullString
		checked int64
		expires int64
	)
	row := s.DB.QueryRowContext(ctx, `
		SELECT status, message, checked_at, expires_at
		FROM domain_cache
		WHERE domain = ? AND expires_at > ?
	`, domain, time.Now().UTC().Unix())
	if err := row.Scan(&status, &message, &checked, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached domain: %w", err)
	}

	return &DomainCacheEntry{
		Domain:    domain,
		Status:    status,
		Message:   message.String,
		CheckedAt: time.Unix(checked, 0).UTC(),
		ExpiresAt: time.Unix(expires, 0).UTC(),
	}, nil
}

// SetDomainCache stores a domain check with TTL.
func (s *Store) SetDomainCache(ctx context.Context, entry DomainCacheEntry, ttl time.Duration) error {
	ctx, err := s.ready(ctx)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	domain := normalizeDomain(entry.Domain)
	if domain == "" {
		return errors.New("domain is required")
	}

	checked := entry.CheckedAt
	if checked.IsZero() {
		checked = time.Now().UTC()
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO domain_cache (domain, status, message, checked_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			status = excluded.status,
			message = excluded.message,
			checked_at = excluded.checked_at,
			expires_at = excluded.expires_at
	`, domain, entry.Status, entry.Message, checked.Unix(), checked.Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("store cached domain: %w", err)
	}
	return nil
}

func normalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}
