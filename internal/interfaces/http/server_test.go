package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garprun/garprun/internal/models"
	"github.com/garprun/garprun/internal/persistence"
)

type stubRunsRepo struct {
	summaries []persistence.RunSummary
	run       *models.ScreenerResult
}

func (s *stubRunsRepo) SaveRun(ctx context.Context, result *models.ScreenerResult) error {
	return nil
}

func (s *stubRunsRepo) ListRuns(ctx context.Context, limit int) ([]persistence.RunSummary, error) {
	if limit < len(s.summaries) {
		return s.summaries[:limit], nil
	}
	return s.summaries, nil
}

func (s *stubRunsRepo) GetRun(ctx context.Context, runID string) (*models.ScreenerResult, error) {
	if s.run != nil && s.run.RunID == runID {
		return s.run, nil
	}
	return nil, fmt.Errorf("run %s not found", runID)
}

func newTestServer(repo persistence.RunsRepo) *Server {
	return NewServer("127.0.0.1:0", repo, NewMetricsRegistry(), NewHub())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubRunsRepo{})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestListRuns(t *testing.T) {
	repo := &stubRunsRepo{
		summaries: []persistence.RunSummary{
			{RunID: "run-2", ConfigName: "garp", TotalMatches: 12},
			{RunID: "run-1", ConfigName: "garp", TotalMatches: 9},
		},
	}
	srv := newTestServer(repo)

	req := httptest.NewRequest("GET", "/api/v1/runs", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs  []persistence.RunSummary `json:"runs"`
		Count int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "run-2", body.Runs[0].RunID)
}

func TestListRuns_RejectsBadLimit(t *testing.T) {
	srv := newTestServer(&stubRunsRepo{})

	req := httptest.NewRequest("GET", "/api/v1/runs?limit=nope", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRun(t *testing.T) {
	score := 7.85
	repo := &stubRunsRepo{
		run: &models.ScreenerResult{
			RunID:      "run-1",
			ConfigName: "garp",
			Stocks: []models.Stock{
				{Symbol: "ACME", Score: &score},
			},
		},
	}
	srv := newTestServer(repo)

	req := httptest.NewRequest("GET", "/api/v1/runs/run-1", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ScreenerResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Stocks, 1)
	assert.Equal(t, "ACME", result.Stocks[0].Symbol)
}

func TestGetRun_NotFound(t *testing.T) {
	srv := newTestServer(&stubRunsRepo{})

	req := httptest.NewRequest("GET", "/api/v1/runs/missing", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunEndpointsWithoutDatabase(t *testing.T) {
	srv := NewServer("127.0.0.1:0", nil, NewMetricsRegistry(), NewHub())

	req := httptest.NewRequest("GET", "/api/v1/runs", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetricsRegistry()
	metrics.ScreenStarted()
	metrics.ScreenFinished(100, 7)
	metrics.RecordCacheHit("fundamentals")
	metrics.RecordCacheMiss("fundamentals")

	srv := NewServer("127.0.0.1:0", &stubRunsRepo{}, metrics, NewHub())

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "garprun_screens_total 1"))
	assert.True(t, strings.Contains(body, "garprun_stocks_matched_total 7"))
	assert.True(t, strings.Contains(body, "garprun_cache_hit_ratio 0.5"))
}

func TestProgressStream(t *testing.T) {
	hub := NewHub()
	srv := NewServer("127.0.0.1:0", &stubRunsRepo{}, NewMetricsRegistry(), hub)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for the hub to register the client before publishing.
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Publish(ProgressEvent{
		RunID:     "run-1",
		Stage:     "scoring",
		Symbol:    "ACME",
		Completed: 3,
		Total:     10,
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var event ProgressEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "scoring", event.Stage)
	assert.Equal(t, 3, event.Completed)
	assert.False(t, event.Timestamp.IsZero())
}
