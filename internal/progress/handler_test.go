package progress

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sadhana-path/backend/internal/middleware"
	"github.com/sadhana-path/backend/internal/models"
	"github.com/sadhana-path/backend/internal/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func authed(method, target string, userID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestHandler_Dashboard(t *testing.T) {
	svc, _, counters := newTestService()
	counters.set(1, progression.ActivityCounters{AccountAgeDays: 1})
	h := NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Dashboard(rec, authed(http.MethodGet, "/progress", 1))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.DashboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(25), resp.Progress.Score)
	assert.Equal(t, "Seed", resp.Progress.CurrentLevel.Name)
	assert.Len(t, resp.Quests, 8)
}

func TestHandler_DashboardUnavailable(t *testing.T) {
	svc, _, counters := newTestService()
	counters.fail[1] = true
	h := NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Dashboard(rec, authed(http.MethodGet, "/progress", 1))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "progress data unavailable")
}

func TestHandler_LeaderboardLimit(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc, zap.NewNop())

	for _, q := range []string{"0", "101", "ten"} {
		rec := httptest.NewRecorder()
		h.Leaderboard(rec, authed(http.MethodGet, "/leaderboard?limit="+q, 1))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", q)
	}

	rec := httptest.NewRecorder()
	h.Leaderboard(rec, authed(http.MethodGet, "/leaderboard?limit=5", 1))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_RequiresUser(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Levels(t *testing.T) {
	svc, _, _ := newTestService()
	rec := httptest.NewRecorder()
	NewHandler(svc, zap.NewNop()).Levels(rec, httptest.NewRequest(http.MethodGet, "/progress/levels", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score_threshold":15000`)
}
