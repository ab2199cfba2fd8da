package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"streaksvc/internal/model"
)

// StreakSyncer is the slice of the sync service the handlers need.
type StreakSyncer interface {
	Compute(ctx context.Context, userID int, today time.Time) (*model.StreakAggregate, error)
	Sync(ctx context.Context, userID int, today time.Time) (*model.StreakAggregate, bool, error)
	SyncBackground(ctx context.Context, userID int, today time.Time)
}

type Board interface {
	Top(ctx context.Context, n int) ([]model.LeaderboardEntry, error)
	Rank(ctx context.Context, userID int) (int, error)
}

type NameSource interface {
	GetUsernames(ctx context.Context, ids []int) (map[int]string, error)
}

type StreakHandler struct {
	syncer   StreakSyncer
	board    Board
	names    NameSource
	topLimit int
	logger   *zap.Logger
}

func NewStreakHandler(syncer StreakSyncer, board Board, names NameSource, topLimit int, logger *zap.Logger) *StreakHandler {
	return &StreakHandler{
		syncer:   syncer,
		board:    board,
		names:    names,
		topLimit: topLimit,
		logger:   logger,
	}
}

// GetStreak computes the user's streak from live data and returns it. It
// also kicks off an opportunistic background sync; failures there never
// reach this response.
func (h *StreakHandler) GetStreak(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	today := time.Now()
	agg, err := h.syncer.Compute(c.Request.Context(), userID, today)
	if err != nil {
		h.logger.Error("GetStreak: failed to compute streak",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not load streak, try again"})
		return
	}

	// Detached context: the publish must outlive this request.
	go h.syncer.SyncBackground(context.Background(), userID, today)

	rank := 0
	if h.board != nil {
		if r, err := h.board.Rank(c.Request.Context(), userID); err == nil {
			rank = r
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"streak": agg,
		"rank":   rank,
	})
}

// RefreshStreak is the user-initiated sync: errors surface to the caller
// as retryable.
func (h *StreakHandler) RefreshStreak(c *gin.Context) {
	userID, ok := h.userIDParam(c)
	if !ok {
		return
	}

	agg, published, err := h.syncer.Sync(c.Request.Context(), userID, time.Now())
	if err != nil {
		h.logger.Error("RefreshStreak: sync failed",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not refresh streak, try again"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"streak": agg,
		"synced": published,
	})
}

func (h *StreakHandler) GetLeaderboard(c *gin.Context) {
	limit := h.topLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	entries, err := h.board.Top(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("GetLeaderboard: failed to read leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch leaderboard"})
		return
	}

	if len(entries) > 0 && h.names != nil {
		ids := make([]int, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.UserID)
		}
		names, err := h.names.GetUsernames(c.Request.Context(), ids)
		if err != nil {
			h.logger.Warn("GetLeaderboard: failed to resolve usernames", zap.Error(err))
		} else {
			for i := range entries {
				entries[i].Username = names[entries[i].UserID]
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *StreakHandler) userIDParam(c *gin.Context) (int, bool) {
	idStr := c.Param("id")
	userID, err := strconv.Atoi(idStr)
	if err != nil {
		h.logger.Warn("Invalid user id in path", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return userID, true
}
