//go:build cgo

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/brandlens/internal/config"
	"github.com/namelens/brandlens/internal/schema"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestOpenMemoryStore(t *testing.T) {
	s := openMemory(t)
	require.Equal(t, "libsql", s.Driver())
	require.NoError(t, s.Ping(context.Background()))
}

func TestOpenLocalStore_ConfiguresSQLite(t *testing.T) {
	ctx := context.Background()

	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   "file:" + t.TempDir() + "/brandlens.db",
	}

	s, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.Equal(t, 1, s.DB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, s.DB.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
	require.Contains(t, journalMode, "wal")

	var busyTimeout int
	require.NoError(t, s.DB.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
	require.GreaterOrEqual(t, busyTimeout, 1000)
}

func TestStatusChecksPersist(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	first := schema.NewStatusCheck(schema.StatusCheckCreate{ClientName: "alpha"})
	second := schema.NewStatusCheck(schema.StatusCheckCreate{ClientName: "beta"})
	require.NoError(t, s.CreateStatusCheck(ctx, first))
	require.NoError(t, s.CreateStatusCheck(ctx, second))

	checks, err := s.ListStatusChecks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.Equal(t, first.ID, checks[0].ID)
	assert.True(t, first.Timestamp.Equal(checks[0].Timestamp))
	assert.Equal(t, "beta", checks[1].ClientName)

	limited, err := s.ListStatusChecks(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestEvaluationHistoryPersist(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	req := schema.BrandEvaluationRequest{
		BrandNames:  []string{"Zynth"},
		Category:    "Tech",
		Positioning: schema.PositioningPremium,
		MarketScope: schema.MarketScopeGlobal,
		Countries:   []string{},
	}
	resp := schema.BrandEvaluationResponse{
		ExecutiveSummary:  "ok",
		BrandScores:       []schema.BrandScore{},
		ComparisonVerdict: "n/a",
	}

	older := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, s.SaveEvaluation(ctx, Evaluation{ID: "old", Request: req, Response: resp, CreatedAt: older}))
	require.NoError(t, s.SaveEvaluation(ctx, Evaluation{ID: "new", Request: req, Response: resp}))

	list, err := s.ListEvaluations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, []string{"Zynth"}, list[1].BrandNames)

	got, err := s.GetEvaluation(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Response.ExecutiveSummary)

	_, err = s.GetEvaluation(ctx, "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCachesExpire(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SetEvaluationCache(ctx, "k1", EvaluationCacheEntry{ResponseJSON: `{"a":1}`, Provider: "openai", Model: "gpt-4o"}, time.Hour))
	entry, err := s.GetEvaluationCache(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, `{"a":1}`, entry.ResponseJSON)
	assert.Equal(t, "openai", entry.Provider)
	assert.Equal(t, "gpt-4o", entry.Model)

	past := time.Now().Add(-2 * time.Hour).UTC()
	require.NoError(t, s.SetDomainCache(ctx, DomainCacheEntry{Domain: "kavo.com", Status: "taken", CheckedAt: past}, time.Hour))
	stale, err := s.GetDomainCache(ctx, "kavo.com")
	require.NoError(t, err)
	assert.Nil(t, stale)
}
