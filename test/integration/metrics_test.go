package integration

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/brandlens/internal/observability"
	"github.com/namelens/brandlens/internal/schema"
	"github.com/namelens/brandlens/internal/server/handlers"
	"github.com/namelens/brandlens/internal/store"
)

// statusOnlyStore accepts status checks in memory and has no history.
type statusOnlyStore struct {
	mu     sync.Mutex
	checks []schema.StatusCheck
}

func (s *statusOnlyStore) CreateStatusCheck(_ context.Context, sc schema.StatusCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, sc)
	return nil
}

func (s *statusOnlyStore) ListStatusChecks(_ context.Context, _ int) ([]schema.StatusCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.StatusCheck(nil), s.checks...), nil
}

func (s *statusOnlyStore) ListEvaluations(context.Context, int) ([]store.EvaluationSummary, error) {
	return nil, nil
}

func (s *statusOnlyStore) GetEvaluation(_ context.Context, id string) (*store.Evaluation, error) {
	return nil, store.ErrNotFound
}

func readMetrics(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url + "/metrics")
	require.NoError(t, err)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	return resp, string(body)
}

func TestMetricsEndpoint_Integration(t *testing.T) {
	initLoggers()
	initMetricsOrSkip(t)

	ts, client := newTestServer(t, &handlers.API{Store: &statusOnlyStore{}})

	const numRequests = 48
	const numWorkers = 8

	requestChan := make(chan int, numRequests)
	for i := 0; i < numRequests; i++ {
		requestChan <- i
	}
	close(requestChan)

	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for reqNum := range requestChan {
				var (
					resp *http.Response
					err  error
				)
				switch reqNum % 4 {
				case 0:
					resp, err = client.Post(ts.URL+"/api/status", "application/json", strings.NewReader(`{"client_name":"load"}`))
				case 1:
					resp, err = client.Get(ts.URL + "/api/status")
				case 2:
					resp, err = client.Get(ts.URL + "/api/missing")
				default:
					resp, err = client.Get(ts.URL + "/health")
				}
				if err == nil {
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)

	resp, metricsContent := readMetrics(t, client, ts.URL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, metricsContent, "test_http_requests_total", "Should have HTTP request metrics")
	assert.Contains(t, metricsContent, "test_http_request_duration_ms", "Should have duration metrics")
	assert.True(t, elapsed < 5*time.Second, "Load test should complete in reasonable time")
	t.Logf("Load test completed: %d requests in %v (%.2f req/s)", numRequests, elapsed, float64(numRequests)/elapsed.Seconds())
}

func TestMetricsEndpoint_PrometheusFormat(t *testing.T) {
	initLoggers()
	initMetricsOrSkip(t)

	ts, client := newTestServer(t, &handlers.API{Store: &statusOnlyStore{}})

	resp, err := client.Get(ts.URL + "/api/")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, metricsContent := readMetrics(t, client, ts.URL)
	contentType := resp.Header.Get("Content-Type")
	assert.True(t,
		contentType == "text/plain; version=0.0.4" ||
			contentType == "text/plain; version=0.0.4; charset=utf-8",
		"Expected Prometheus content type, got: %s", contentType)

	metricLines := 0
	labelled := false
	for _, line := range strings.Split(strings.TrimSpace(metricsContent), "\n") {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		metricLines++
		if strings.Contains(line, "{") && len(strings.Fields(line)) >= 2 {
			labelled = true
		}
	}
	assert.True(t, labelled, "Should have valid Prometheus metric lines")
	assert.Greater(t, metricLines, 0, "Should have actual metric values")
}

func TestMetricsEndpoint_WithTelemetryDisabled(t *testing.T) {
	initLoggers()

	originalExporter := observability.PrometheusExporter
	originalTelemetry := observability.TelemetrySystem
	observability.PrometheusExporter = nil
	observability.TelemetrySystem = nil
	t.Cleanup(func() {
		observability.PrometheusExporter = originalExporter
		observability.TelemetrySystem = originalTelemetry
	})
	t.Setenv("BRANDLENS_METRICS_ENABLED", "false")

	ts, client := newTestServer(t, &handlers.API{Store: &statusOnlyStore{}})

	resp, err := client.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = readMetrics(t, client, ts.URL)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
