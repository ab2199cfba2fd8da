package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"streaksvc/internal/handler"
	"streaksvc/internal/httpserver"
	"streaksvc/internal/model"
	"streaksvc/internal/util"
)

const testSecret = "test-secret"

type mockSyncer struct {
	computeFn func(ctx context.Context, userID int, today time.Time) (*model.StreakAggregate, error)
	syncFn    func(ctx context.Context, userID int, today time.Time) (*model.StreakAggregate, bool, error)
}

func (m *mockSyncer) Compute(ctx context.Context, userID int, today time.Time) (*model.StreakAggregate, error) {
	if m.computeFn != nil {
		return m.computeFn(ctx, userID, today)
	}
	return &model.StreakAggregate{UserID: userID}, nil
}

func (m *mockSyncer) Sync(ctx context.Context, userID int, today time.Time) (*model.StreakAggregate, bool, error) {
	if m.syncFn != nil {
		return m.syncFn(ctx, userID, today)
	}
	return &model.StreakAggregate{UserID: userID}, true, nil
}

func (m *mockSyncer) SyncBackground(ctx context.Context, userID int, today time.Time) {}

type mockBoard struct {
	topFn  func(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
	rankFn func(ctx context.Context, userID int) (int, error)
}

func (m *mockBoard) Top(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	if m.topFn != nil {
		return m.topFn(ctx, n)
	}
	return nil, nil
}

func (m *mockBoard) Rank(ctx context.Context, userID int) (int, error) {
	if m.rankFn != nil {
		return m.rankFn(ctx, userID)
	}
	return 0, nil
}

type mockNames struct{}

func (m *mockNames) GetUsernames(_ context.Context, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	for _, id := range ids {
		names[id] = "user-" + string(rune('a'+id%26))
	}
	return names, nil
}

func newTestRouter(t *testing.T, syncer *mockSyncer, board *mockBoard) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := handler.NewStreakHandler(syncer, board, &mockNames{}, 10, zap.NewNop())
	return httpserver.NewRouter(h, zap.NewNop(), nil, nil, httpserver.RouterOptions{
		JWTSecret:        testSecret,
		RefreshPerMinute: 1000,
	})
}

func bearerFor(t *testing.T, userID int) string {
	t.Helper()
	token, err := util.GenerateJWT(userID, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestGetStreak_OK(t *testing.T) {
	syncer := &mockSyncer{
		computeFn: func(_ context.Context, userID int, _ time.Time) (*model.StreakAggregate, error) {
			return &model.StreakAggregate{UserID: userID, CurrentStreak: 4, LongestStreak: 9}, nil
		},
	}
	board := &mockBoard{
		rankFn: func(_ context.Context, _ int) (int, error) { return 2, nil },
	}
	router := newTestRouter(t, syncer, board)

	req := httptest.NewRequest(http.MethodGet, "/users/7/streak", nil)
	req.Header.Set("Authorization", bearerFor(t, 7))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Streak model.StreakAggregate `json:"streak"`
		Rank   int                   `json:"rank"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Streak.CurrentStreak)
	assert.Equal(t, 9, body.Streak.LongestStreak)
	assert.Equal(t, 2, body.Rank)
}

func TestGetStreak_RequiresToken(t *testing.T) {
	router := newTestRouter(t, &mockSyncer{}, &mockBoard{})

	req := httptest.NewRequest(http.MethodGet, "/users/7/streak", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetStreak_RejectsOtherUsersToken(t *testing.T) {
	router := newTestRouter(t, &mockSyncer{}, &mockBoard{})

	req := httptest.NewRequest(http.MethodGet, "/users/7/streak", nil)
	req.Header.Set("Authorization", bearerFor(t, 8))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshStreak_SurfacesFailure(t *testing.T) {
	syncer := &mockSyncer{
		syncFn: func(_ context.Context, _ int, _ time.Time) (*model.StreakAggregate, bool, error) {
			return nil, false, errors.New("backend unavailable")
		},
	}
	router := newTestRouter(t, syncer, &mockBoard{})

	req := httptest.NewRequest(http.MethodPost, "/users/7/streak/refresh", nil)
	req.Header.Set("Authorization", bearerFor(t, 7))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "try again")
}

func TestRefreshStreak_OK(t *testing.T) {
	syncer := &mockSyncer{
		syncFn: func(_ context.Context, userID int, _ time.Time) (*model.StreakAggregate, bool, error) {
			return &model.StreakAggregate{UserID: userID, CurrentStreak: 3}, true, nil
		},
	}
	router := newTestRouter(t, syncer, &mockBoard{})

	req := httptest.NewRequest(http.MethodPost, "/users/7/streak/refresh", nil)
	req.Header.Set("Authorization", bearerFor(t, 7))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"synced":true`)
}

func TestGetLeaderboard_ResolvesUsernames(t *testing.T) {
	board := &mockBoard{
		topFn: func(_ context.Context, n int) ([]model.LeaderboardEntry, error) {
			return []model.LeaderboardEntry{
				{Rank: 1, UserID: 1, CurrentStreak: 12},
				{Rank: 2, UserID: 2, CurrentStreak: 8},
			}, nil
		},
	}
	router := newTestRouter(t, &mockSyncer{}, board)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Entries []model.LeaderboardEntry `json:"entries"`
		Count   int                      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Entries, 2)
	assert.Equal(t, 1, body.Entries[0].Rank)
	assert.NotEmpty(t, body.Entries[0].Username)
}

func TestGetLeaderboard_InvalidLimit(t *testing.T) {
	router := newTestRouter(t, &mockSyncer{}, &mockBoard{})

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=zero", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
