package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esgcli/internal/config"
	"esgcli/internal/services"
	"esgcli/internal/websocket"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.Source = "synthetic"
	cfg.Pipeline.Countries = []string{"USA", "DEU", "JPN"}
	cfg.Export.Dir = t.TempDir()

	hub := websocket.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	svc := services.NewAnalysisService(cfg, nil, hub)
	server := httptest.NewServer(NewRouter(svc, hub, cfg.WebSocket, nil))
	t.Cleanup(server.Close)
	return server
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestRouter_Health(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/api/healthz")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_AnalysisLifecycle(t *testing.T) {
	server := testServer(t)

	resp, err := http.Post(server.URL+"/api/analysis", "application/json", strings.NewReader(`{"source":"synthetic"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var run struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Source string `json:"source"`
	}
	decodeBody(t, resp, &run)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, "synthetic", run.Source)

	// Poll until the run completes.
	require.Eventually(t, func() bool {
		poll, pollErr := http.Get(server.URL + "/api/analysis/" + run.ID)
		if pollErr != nil {
			return false
		}
		var state struct {
			Status string `json:"status"`
		}
		pollErr = json.NewDecoder(poll.Body).Decode(&state)
		poll.Body.Close()
		return pollErr == nil && state.Status == "completed"
	}, 5*time.Second, 25*time.Millisecond)

	resp, err = http.Get(server.URL + "/api/results/" + run.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results struct {
		Source  string           `json:"source"`
		Median  float64          `json:"median_ratio"`
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
	}
	decodeBody(t, resp, &results)
	assert.Equal(t, "synthetic", results.Source)
	assert.Equal(t, []string{"country", "country_code", "year", "co2_per_capita", "gdp_per_capita", "ratio", "category"}, results.Columns)
	require.Len(t, results.Rows, 3)
	for _, row := range results.Rows {
		assert.Contains(t, row, "co2_per_capita")
		assert.Contains(t, row, "category")
	}
	assert.Greater(t, results.Median, 0.0)
}

func TestRouter_UnknownRunIs404(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/api/analysis/does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/results/does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_BadRequestBody(t *testing.T) {
	server := testServer(t)

	resp, err := http.Post(server.URL+"/api/analysis", "application/json", strings.NewReader(`{"source":`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
