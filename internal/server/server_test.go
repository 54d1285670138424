package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/penwyp/go-kiln-monitor/internal/config"
	"github.com/penwyp/go-kiln-monitor/internal/core/events"
	"github.com/penwyp/go-kiln-monitor/internal/core/model"
	"github.com/penwyp/go-kiln-monitor/internal/data/api"
)

var testNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			DBPath:      ":memory:",
			Seed:        42,
			RateLimit:   1000,
			Burst:       1000,
			CORSOrigins: []string{"*"},
		},
		Anomaly: config.AnomalyConfig{Rules: map[string]config.Rule{
			"kiln_temp": {Min: 1400, Max: 1480},
			"oxygen":    {Min: 1.5, Max: 3.0},
			"pressure":  {Min: -6.0, Max: -4.5},
			"fcao":      {Min: 0.8, Max: 2.5},
			"fuel_rate": {Min: 10, Max: 14},
		}},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(context.Background(), cfg, zap.NewNop(), WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		srv.Close()
		s.Close()
	})
	return s, srv
}

func newAPIClient(t *testing.T, srv *httptest.Server) *api.Client {
	t.Helper()
	c, err := api.NewClient(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestEveryEndpointDecodesThroughClient(t *testing.T) {
	_, srv := newTestServer(t, testConfig())
	c := newAPIClient(t, srv)
	ctx := context.Background()

	overview, err := c.Overview(ctx)
	require.NoError(t, err)
	assert.Len(t, overview.KilnHealth.Trends, 24)
	assert.Len(t, overview.EnergyCockpit.Trends, 7)
	assert.Len(t, overview.ProcessFlow, 8)

	for _, tr := range model.AllTimeRanges() {
		kiln, err := c.KilnHealth(ctx, tr)
		require.NoError(t, err, tr)
		assert.Len(t, kiln.Trends, tr.Points())
		assert.NotNil(t, kiln.OperationalParameters)

		energy, err := c.EnergyCockpit(ctx, tr)
		require.NoError(t, err, tr)
		assert.Len(t, energy.Trends, tr.Points())
		assert.Empty(t, energy.Missing())

		quality, err := c.PredictiveQuality(ctx, tr)
		require.NoError(t, err, tr)
		assert.Len(t, quality.Trends, tr.Points())
		lo, hi := quality.TargetBand()
		assert.Equal(t, 2.0, lo)
		assert.Equal(t, 2.3, hi)
	}

	rows, err := c.VarianceAnalysis(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), 5, "one row per metric at least")

	nodes, err := c.ProcessFlow(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 8)

	actions, err := c.AgentActions(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, actions)

	recs, err := c.Recommendations(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	settings, err := c.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.NotificationsOn())
}

func TestInvalidTimeRangeIsProblem(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	resp, err := http.Get(srv.URL + api.PathKilnHealth + "?timerange=90d")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	var p Problem
	require.NoError(t, sonic.Unmarshal(body, &p))
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Contains(t, p.Detail, "90d")
	assert.Equal(t, api.PathKilnHealth, p.Instance)
}

func TestApproveAndReject(t *testing.T) {
	_, srv := newTestServer(t, testConfig())
	c := newAPIClient(t, srv)
	ctx := context.Background()

	before, err := c.AgentActions(ctx)
	require.NoError(t, err)

	res, err := c.ApproveRecommendation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Recommendation approved", res.Message)

	after, err := c.AgentActions(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)

	res, err = c.RejectRecommendation(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Recommendation rejected", res.Message)

	recs, err := c.Recommendations(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RecommendationApproved, recs[0].Status)
	assert.Equal(t, model.RecommendationRejected, recs[1].Status)

	_, err = c.ApproveRecommendation(ctx, 99)
	assert.True(t, api.IsKind(err, api.KindNotFound), "%v", err)

	resp, err := http.Post(srv.URL+api.PathRecommendations+"/abc/approve", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateSettings(t *testing.T) {
	_, srv := newTestServer(t, testConfig())
	c := newAPIClient(t, srv)

	off := false
	s, err := c.UpdateSettings(context.Background(), model.SettingsPatch{NotificationsEnabled: &off})
	require.NoError(t, err)
	assert.False(t, s.NotificationsOn())
	assert.Equal(t, "en", s.Language)

	tests := []struct {
		name string
		body string
	}{
		{name: "bad email", body: `{"userEmail":"not-an-email"}`},
		{name: "bad json", body: `{"darkMode":`},
		{name: "wrong type", body: `{"darkMode":"yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+api.PathSettings, "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAlertReachesWebSocketSource(t *testing.T) {
	s, srv := newTestServer(t, testConfig())
	c := newAPIClient(t, srv)

	src := events.NewWebSocketSource(c.AlertChannelURL(), 50*time.Millisecond)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := make(chan events.Event, 1)
	go func() {
		if ev, err := src.Next(ctx); err == nil {
			got <- ev
		}
	}()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	f, ok := s.detector.Check("kiln_temp", 1521.5)
	require.True(t, ok)
	raised, err := s.Alerter().Raise(ctx, f, testNow)
	require.NoError(t, err)
	require.NotNil(t, raised.RecommendationID)

	select {
	case ev := <-got:
		require.Equal(t, events.KindAlert, ev.Kind)
		assert.Equal(t, raised.ID, ev.Alert.ID)
		assert.Equal(t, "5", ev.Alert.TargetNodeID)
		assert.Equal(t, *raised.RecommendationID, *ev.Alert.RecommendationID)
	case <-ctx.Done():
		t.Fatal("alert not delivered")
	}

	nodes, err := c.ProcessFlow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.NodeFailed, nodes[4].Status, "kiln burning marked failed")

	// The same breach reuses the pending recommendation.
	again, err := s.Alerter().Raise(ctx, f, testNow)
	require.NoError(t, err)
	assert.Equal(t, *raised.RecommendationID, *again.RecommendationID)

	// Deciding the linked recommendation clears the failed stage.
	_, err = c.ApproveRecommendation(context.Background(), *raised.RecommendationID)
	require.NoError(t, err)
	nodes, err = c.ProcessFlow(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, model.NodeFailed, nodes[4].Status)
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(srv.URL + api.PathProcessFlow)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `kiln_http_requests_total{method="GET",route="/api/process_flow",status="200"} 1`)
	assert.Contains(t, string(body), "kiln_ws_clients 0")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = 0.001
	cfg.Server.Burst = 2
	_, srv := newTestServer(t, cfg)

	codes := make([]int, 0, 3)
	for range 3 {
		resp, err := http.Get(srv.URL + api.PathProcessFlow)
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health checks are not limited")
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodOptions, srv.URL+api.PathSettings, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
