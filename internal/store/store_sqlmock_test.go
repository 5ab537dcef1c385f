package store

import (
	"context"
	"database/sql"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/brandlens/internal/schema"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

func tableInfo(columns ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"cid", "name", "type", "notnull", "dflt_value", "pk"})
	for i, name := range columns {
		rows.AddRow(i, name, "TEXT", 1, nil, 0)
	}
	return rows
}

func TestMigrateRunsAllStatements(t *testing.T) {
	s, mock := newMockStore(t)
	for range schemaStatements {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	current := []string{"key", "response_json", "provider", "model", "created_at", "expires_at"}
	for range cacheColumns {
		mock.ExpectQuery(regexp.QuoteMeta("PRAGMA table_info(evaluation_cache)")).WillReturnRows(tableInfo(current...))
	}
	require.NoError(t, s.Migrate(context.Background()))
}

func TestMigrateAddsCacheColumnsToOlderTables(t *testing.T) {
	s, mock := newMockStore(t)
	for range schemaStatements {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	older := []string{"key", "response_json", "created_at", "expires_at"}
	mock.ExpectQuery(regexp.QuoteMeta("PRAGMA table_info(evaluation_cache)")).WillReturnRows(tableInfo(older...))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE evaluation_cache ADD COLUMN provider TEXT NOT NULL DEFAULT ''")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("PRAGMA table_info(evaluation_cache)")).WillReturnRows(tableInfo(append(older, "provider")...))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE evaluation_cache ADD COLUMN model TEXT NOT NULL DEFAULT ''")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
}

func TestMigrateFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS status_checks").WillReturnError(sql.ErrConnDone)
	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCreateStatusCheck(t *testing.T) {
	s, mock := newMockStore(t)
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO status_checks (id, client_name, timestamp)")).
		WithArgs("abc", "monitor", "2024-05-01T12:30:00Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.CreateStatusCheck(context.Background(), schema.StatusCheck{ID: "abc", ClientName: "monitor", Timestamp: ts})
	require.NoError(t, err)
}

func TestCreateStatusCheckRequiresID(t *testing.T) {
	s, _ := newMockStore(t)
	require.Error(t, s.CreateStatusCheck(context.Background(), schema.StatusCheck{ClientName: "monitor"}))
}

func TestListStatusChecks(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "client_name", "timestamp"}).
		AddRow("a", "first", "2024-05-01T12:30:00Z").
		AddRow("b", "second", "2024-05-01T12:31:00.5Z")
	mock.ExpectQuery("SELECT id, client_name, timestamp FROM status_checks").
		WithArgs(DefaultStatusLimit).
		WillReturnRows(rows)

	checks, err := s.ListStatusChecks(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.Equal(t, "a", checks[0].ID)
	assert.Equal(t, "second", checks[1].ClientName)
	assert.Equal(t, 500*time.Millisecond, time.Duration(checks[1].Timestamp.Nanosecond()))
	assert.Equal(t, time.UTC, checks[1].Timestamp.Location())
}

func TestListStatusChecksEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM status_checks").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_name", "timestamp"}))

	checks, err := s.ListStatusChecks(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, checks)
	assert.Empty(t, checks)
}

func TestGetEvaluation(t *testing.T) {
	s, mock := newMockStore(t)
	reqJSON, err := os.ReadFile("../schema/testdata/request.json")
	require.NoError(t, err)
	respJSON, err := os.ReadFile("../schema/testdata/response.json")
	require.NoError(t, err)

	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM evaluations WHERE id = ?").
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"request_json", "response_json", "provider", "model", "created_at"}).
			AddRow(string(reqJSON), string(respJSON), "openai", "gpt-4o", created.UnixMilli()))

	ev, err := s.GetEvaluation(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, []string{"Zynth", "Kavo"}, ev.Request.BrandNames)
	require.Len(t, ev.Response.BrandScores, 2)
	assert.Equal(t, "openai", ev.Provider)
	assert.True(t, created.Equal(ev.CreatedAt))
}

func TestGetEvaluationNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM evaluations WHERE id = ?").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetEvaluation(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveEvaluation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO evaluations").
		WithArgs("ev-2", sqlmock.AnyArg(), sqlmock.AnyArg(), "xai", "grok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.SaveEvaluation(context.Background(), Evaluation{
		ID:       "ev-2",
		Request:  schema.BrandEvaluationRequest{BrandNames: []string{"Kavo"}, Countries: []string{}},
		Provider: "xai",
		Model:    "grok",
	})
	require.NoError(t, err)
}

func TestEvaluationCacheMiss(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM evaluation_cache").
		WithArgs("k", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	entry, err := s.GetEvaluationCache(context.Background(), "k")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestEvaluationCacheKeepsProviderAndModel(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO evaluation_cache (key, response_json, provider, model, created_at, expires_at)")).
		WithArgs("k", "{}", "xai", "grok", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.SetEvaluationCache(context.Background(), "k",
		EvaluationCacheEntry{ResponseJSON: "{}", Provider: "xai", Model: "grok"}, time.Minute))

	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT response_json, provider, model, created_at, expires_at FROM evaluation_cache")).
		WithArgs("k", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"response_json", "provider", "model", "created_at", "expires_at"}).
			AddRow("{}", "xai", "grok", created.Unix(), created.Add(time.Minute).Unix()))
	entry, err := s.GetEvaluationCache(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "xai", entry.Provider)
	assert.Equal(t, "grok", entry.Model)
	assert.Equal(t, created, entry.CreatedAt)
}

func TestSetEvaluationCacheSkipsZeroTTL(t *testing.T) {
	s, _ := newMockStore(t)
	require.NoError(t, s.SetEvaluationCache(context.Background(), "k", EvaluationCacheEntry{ResponseJSON: "{}"}, 0))
}

func TestDomainCacheRoundTrip(t *testing.T) {
	s, mock := newMockStore(t)
	checked := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO domain_cache").
		WithArgs("zynth.com", "available", "", checked.Unix(), checked.Add(time.Minute).Unix()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM domain_cache").
		WithArgs("zynth.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"status", "message", "checked_at", "expires_at"}).
			AddRow("available", nil, checked.Unix(), checked.Add(time.Minute).Unix()))

	require.NoError(t, s.SetDomainCache(context.Background(), DomainCacheEntry{
		Domain:    "Zynth.com",
		Status:    "available",
		CheckedAt: checked,
	}, time.Minute))

	entry, err := s.GetDomainCache(context.Background(), "zynth.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "available", entry.Status)
	assert.Empty(t, entry.Message)
}
