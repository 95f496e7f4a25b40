package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rituraj200000/googlemapscraper/api/handler"
	"github.com/Rituraj200000/googlemapscraper/config"
	"github.com/Rituraj200000/googlemapscraper/feed"
	"github.com/Rituraj200000/googlemapscraper/models"
)

func testConfig() config.StatusConfig {
	return config.StatusConfig{Mode: "test", RequestsPerSecond: 100, Burst: 100}
}

func get(t *testing.T, h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	tracker := handler.NewTracker()
	r := NewRouter(testConfig(), tracker, time.Now())

	w := get(t, r, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Empty(t, resp.Running)

	tracker.Harvest(feed.Progress{ID: "run-1"})
	w = get(t, r, "/api/v1/health", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "harvest", resp.Running)
}

func TestProgress(t *testing.T) {
	tracker := handler.NewTracker()
	r := NewRouter(testConfig(), tracker, time.Now())

	w := get(t, r, "/api/v1/progress", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, models.ErrCodeNoSession, errResp.Error.Code)

	tracker.Harvest(feed.Progress{ID: "run-1", Accepted: 4, Processed: 6})
	w = get(t, r, "/api/v1/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap handler.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "harvest", snap.Kind)
	require.NotNil(t, snap.Harvest)
	assert.Equal(t, 4, snap.Harvest.Accepted)
	assert.Nil(t, snap.Enrich)
}

func TestProgress_Auth(t *testing.T) {
	cfg := testConfig()
	cfg.APIKeys = []string{"k1"}
	tracker := handler.NewTracker()
	tracker.Harvest(feed.Progress{ID: "run-1"})
	r := NewRouter(cfg, tracker, time.Now())

	assert.Equal(t, http.StatusOK, get(t, r, "/api/v1/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, r, "/api/v1/progress", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, r, "/api/v1/progress", map[string]string{"X-API-Key": "nope"}).Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/api/v1/progress", map[string]string{"X-API-Key": "k1"}).Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/api/v1/progress", map[string]string{"Authorization": "Bearer k1"}).Code)
}

func TestProgress_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	tracker := handler.NewTracker()
	tracker.Harvest(feed.Progress{})
	r := NewRouter(cfg, tracker, time.Now())

	assert.Equal(t, http.StatusOK, get(t, r, "/api/v1/progress", nil).Code)
	w := get(t, r, "/api/v1/progress", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeRateLimited)
}
