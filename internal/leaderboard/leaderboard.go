// Package leaderboard maintains the shared streak ranking in a Redis
// sorted set: member = user id, score = current streak.
package leaderboard

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"streaksvc/internal/model"
	"streaksvc/pkg/metrics"
)

const Key = "streaks:leaderboard"

type Leaderboard struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func New(rdb *redis.Client, logger *zap.Logger) *Leaderboard {
	return &Leaderboard{
		rdb:    rdb,
		logger: logger,
	}
}

// SetScore publishes the user's current streak to the ranking.
func (l *Leaderboard) SetScore(ctx context.Context, userID int, currentStreak int) error {
	err := l.rdb.ZAdd(ctx, Key, redis.Z{
		Score:  float64(currentStreak),
		Member: strconv.Itoa(userID),
	}).Err()
	if err != nil {
		l.logger.Error("Failed to update leaderboard score",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		metrics.IncrementLeaderboardUpdate("failed")
		return err
	}

	metrics.IncrementLeaderboardUpdate("success")
	return nil
}

// Top returns the n highest-ranked entries. Usernames are left empty; the
// caller joins them from the user store.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]model.LeaderboardEntry, error) {
	zs, err := l.rdb.ZRevRangeWithScores(ctx, Key, 0, int64(n-1)).Result()
	if err != nil {
		l.logger.Error("Failed to read leaderboard", zap.Error(err))
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		userID, err := strconv.Atoi(member)
		if err != nil {
			l.logger.Warn("Skipping malformed leaderboard member",
				zap.String("member", member),
			)
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			Rank:          i + 1,
			UserID:        userID,
			CurrentStreak: int(z.Score),
		})
	}

	return entries, nil
}

// Rank returns the user's 1-based position, or 0 when the user is not on
// the board.
func (l *Leaderboard) Rank(ctx context.Context, userID int) (int, error) {
	rank, err := l.rdb.ZRevRank(ctx, Key, strconv.Itoa(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		l.logger.Error("Failed to read leaderboard rank",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		return 0, err
	}
	return int(rank) + 1, nil
}
