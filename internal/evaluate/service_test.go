package evaluate

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/namelens/brandlens/internal/ailink"
	"github.com/namelens/brandlens/internal/ailink/driver"
	"github.com/namelens/brandlens/internal/domaincheck"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type scriptedGenerator struct {
	mu      sync.Mutex
	replies []func() (*ailink.GenerateResponse, error)
	calls   []ailink.GenerateRequest
}

func (g *scriptedGenerator) Generate(ctx context.Context, req ailink.GenerateRequest) (*ailink.GenerateResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if len(g.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	next := g.replies[0]
	if len(g.replies) > 1 {
		g.replies = g.replies[1:]
	}
	return next()
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func reply(raw []byte) func() (*ailink.GenerateResponse, error) {
	return func() (*ailink.GenerateResponse, error) {
		return &ailink.GenerateResponse{Raw: raw, Provider: "openai", Model: "gpt-4o"}, nil
	}
}

func fail(err error) func() (*ailink.GenerateResponse, error) {
	return func() (*ailink.GenerateResponse, error) { return nil, err }
}

type memoryStore struct {
	mu      sync.Mutex
	cache   map[string]store.EvaluationCacheEntry
	history []store.Evaluation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{cache: map[string]store.EvaluationCacheEntry{}}
}

func (m *memoryStore) GetEvaluationCache(ctx context.Context, key string) (*store.EvaluationCacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.cache[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *memoryStore) SetEvaluationCache(ctx context.Context, key string, entry store.EvaluationCacheEntry, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = entry
	return nil
}

func (m *memoryStore) SaveEvaluation(ctx context.Context, ev store.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, ev)
	return nil
}

type stubDomains struct {
	results map[string]*domaincheck.Result
}

func (s stubDomains) Check(ctx context.Context, domain string) (*domaincheck.Result, error) {
	if r, ok := s.results[domain]; ok {
		return r, nil
	}
	return nil, errors.New("lookup failed")
}

func fixtureRequest(t *testing.T) schema.BrandEvaluationRequest {
	t.Helper()
	data, err := os.ReadFile("../schema/testdata/request.json")
	require.NoError(t, err)
	req, err := schema.ParseBrandEvaluationRequest(data)
	require.NoError(t, err)
	return req
}

func fixtureResponse(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../schema/testdata/response.json")
	require.NoError(t, err)
	return data
}

// withScores rewrites the fixture's brand_scores through fn.
func withScores(t *testing.T, fn func([]map[string]any) []map[string]any) []byte {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(fixtureResponse(t), &doc))
	raw := doc["brand_scores"].([]any)
	scores := make([]map[string]any, 0, len(raw))
	for _, s := range raw {
		scores = append(scores, s.(map[string]any))
	}
	doc["brand_scores"] = fn(scores)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func newTestService(gen Generator, st Store, opts Options) (*Service, *[]time.Duration) {
	svc := NewService(gen, st, nil, opts)
	var sleeps []time.Duration
	svc.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	svc.NewID = func() string { return "eval-1" }
	return svc, &sleeps
}

func TestRunSuccess(t *testing.T) {
	gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){reply(fixtureResponse(t))}}
	st := newMemoryStore()
	svc, _ := newTestService(gen, st, Options{Model: "gpt-4o", CacheEnabled: true, CacheTTL: time.Hour})

	result, err := svc.Run(context.Background(), fixtureRequest(t), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "eval-1", result.ID)
	assert.False(t, result.Cached)
	assert.Equal(t, "openai", result.Provider)
	require.Len(t, result.Response.BrandScores, 2)
	assert.Equal(t, "Zynth", result.Response.BrandScores[0].BrandName)

	require.Len(t, gen.calls, 1)
	call := gen.calls[0]
	assert.Equal(t, DefaultPrompt, call.PromptSlug)
	assert.Equal(t, DefaultPrompt, call.Role)
	assert.Equal(t, "gpt-4o", call.Model)
	assert.Equal(t, "Zynth, Kavo", call.Variables["brand_names"])
	assert.Equal(t, "USA, India", call.Variables["countries"])
	assert.Equal(t, "Premium", call.Variables["positioning"])

	assert.Len(t, st.cache, 1)
	require.Len(t, st.history, 1)
	assert.Equal(t, "eval-1", st.history[0].ID)
}

func TestRunReordersScores(t *testing.T) {
	raw := withScores(t, func(scores []map[string]any) []map[string]any {
		scores[0]["brand_name"] = "  zynth "
		scores[1]["brand_name"] = "KAVO"
		return []map[string]any{scores[1], scores[0]}
	})
	gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){reply(raw)}}
	svc, _ := newTestService(gen, nil, Options{})

	resp, err := svc.Evaluate(context.Background(), fixtureRequest(t))
	require.NoError(t, err)
	require.Len(t, resp.BrandScores, 2)
	assert.Equal(t, "  zynth ", resp.BrandScores[0].BrandName)
	assert.Equal(t, "KAVO", resp.BrandScores[1].BrandName)
}

func TestRunAlignmentFailure(t *testing.T) {
	raw := withScores(t, func(scores []map[string]any) []map[string]any {
		scores[1]["brand_name"] = "Other"
		return scores
	})
	gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){reply(raw)}}
	st := newMemoryStore()
	svc, _ := newTestService(gen, st, Options{CacheEnabled: true, CacheTTL: time.Hour})

	_, err := svc.Evaluate(context.Background(), fixtureRequest(t))
	var alignErr *AlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, []string{"Kavo"}, alignErr.Missing)
	assert.Equal(t, []string{"Other"}, alignErr.Extra)
	assert.Empty(t, st.cache)
	assert.Empty(t, st.history)
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	gen := &scriptedGenerator{}
	svc, _ := newTestService(gen, nil, Options{})

	req := fixtureRequest(t)
	req.Positioning = "Luxury"
	_, err := svc.Evaluate(context.Background(), req)
	require.True(t, schema.IsValidationError(err))
	assert.Zero(t, gen.callCount())
}

func TestRunRetriesTransientFailures(t *testing.T) {
	unavailable := &driver.ProviderError{Provider: "openai", StatusCode: 503, Message: "overloaded"}
	gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){
		fail(unavailable),
		fail(unavailable),
		reply(fixtureResponse(t)),
	}}
	svc, sleeps := newTestService(gen, nil, Options{MaxRetries: 2})

	_, err := svc.Evaluate(context.Background(), fixtureRequest(t))
	require.NoError(t, err)
	assert.Equal(t, 3, gen.callCount())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, *sleeps)
}

func TestRunRetryBudgetExhausted(t *testing.T) {
	limited := &driver.ProviderError{Provider: "openai", StatusCode: 429, Message: "slow down"}
	gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){fail(limited)}}
	svc, _ := newTestService(gen, nil, Options{MaxRetries: 1})

	_, err := svc.Evaluate(context.Background(), fixtureRequest(t))
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "generation", upstream.Stage)
	assert.Equal(t, 2, gen.callCount())
}

func TestRunDoesNotRetryPermanentFailures(t *testing.T) {
	cases := map[string]error{
		"bad request":      &driver.ProviderError{Provider: "openai", StatusCode: 400, Message: "bad"},
		"invalid response": &ailink.RawResponseError{Err: errors.New("response is not valid JSON")},
	}
	for name, failure := range cases {
		t.Run(name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){fail(failure)}}
			svc, sleeps := newTestService(gen, nil, Options{MaxRetries: 3})

			_, err := svc.Evaluate(context.Background(), fixtureRequest(t))
			require.Error(t, err)
			assert.Equal(t, 1, gen.callCount())
			assert.Empty(t, *sleeps)
		})
	}
}

func TestRunRejectsNonConformingResponse(t *testing.T) {
	gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){
		reply([]byte(`{"executive_summary":"only this"}`)),
	}}
	svc, _ := newTestService(gen, nil, Options{})

	_, err := svc.Evaluate(context.Background(), fixtureRequest(t))
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "response", upstream.Stage)
	assert.True(t, schema.IsValidationError(err))
}

func TestRunServesFromCache(t *testing.T) {
	gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){reply(fixtureResponse(t))}}
	st := newMemoryStore()
	svc, _ := newTestService(gen, st, Options{CacheEnabled: true, CacheTTL: time.Hour})

	_, err := svc.Run(context.Background(), fixtureRequest(t), RunOptions{})
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), fixtureRequest(t), RunOptions{})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, 1, gen.callCount())
	assert.Len(t, st.history, 2)
	assert.Equal(t, "openai", second.Provider)
	assert.Equal(t, "gpt-4o", second.Model)
	assert.Equal(t, "openai", st.history[1].Provider)
	assert.Equal(t, "gpt-4o", st.history[1].Model)

	_, err = svc.Run(context.Background(), fixtureRequest(t), RunOptions{NoCache: true})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.callCount())
}

func TestCacheKeyVariesWithModel(t *testing.T) {
	req := fixtureRequest(t)
	a, err := cacheKey(req, Options{Prompt: DefaultPrompt, Model: "a"})
	require.NoError(t, err)
	b, err := cacheKey(req, Options{Prompt: DefaultPrompt, Model: "b"})
	require.NoError(t, err)
	again, err := cacheKey(req, Options{Prompt: DefaultPrompt, Model: "a"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
	assert.Len(t, a, 64)
}

func TestRunVerifiesDomains(t *testing.T) {
	gen := &scriptedGenerator{replies: []func() (*ailink.GenerateResponse, error){reply(fixtureResponse(t))}}
	svc, _ := newTestService(gen, nil, Options{VerifyDomains: true, Workers: 2})
	svc.Domains = stubDomains{results: map[string]*domaincheck.Result{
		"zynth.com": {Domain: "zynth.com", Status: domaincheck.StatusAvailable},
	}}

	result, err := svc.Run(context.Background(), fixtureRequest(t), RunOptions{})
	require.NoError(t, err)

	require.Len(t, result.Domains, 1)
	zynth := result.Response.BrandScores[0].DomainAnalysis.ExactMatchStatus
	kavo := result.Response.BrandScores[1].DomainAnalysis.ExactMatchStatus
	assert.True(t, strings.HasPrefix(zynth, "zynth.com: available (RDAP verified)."), zynth)
	assert.False(t, strings.Contains(kavo, "RDAP verified"), kavo)

	off := false
	gen.replies = []func() (*ailink.GenerateResponse, error){reply(fixtureResponse(t))}
	plain, err := svc.Run(context.Background(), fixtureRequest(t), RunOptions{VerifyDomains: &off})
	require.NoError(t, err)
	assert.Empty(t, plain.Domains)
}

func TestAlign(t *testing.T) {
	scores := []schema.BrandScore{{BrandName: "B"}, {BrandName: "a"}, {BrandName: "A"}}

	out, err := align([]string{"A", "b", "a"}, scores)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "B", "A"}, []string{out[0].BrandName, out[1].BrandName, out[2].BrandName})

	_, err = align([]string{"A"}, scores)
	var alignErr *AlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, []string{"B", "A"}, alignErr.Extra)
	assert.Contains(t, alignErr.Error(), "unrequested scores for B, A")
}
