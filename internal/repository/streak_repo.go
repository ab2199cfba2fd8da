package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"streaksvc/internal/model"
)

type StreakRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewStreakRepository(db *pgxpool.Pool, logger *zap.Logger) *StreakRepository {
	return &StreakRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the last persisted aggregate for the user, or nil when the
// user has never been synced.
func (r *StreakRepository) Get(ctx context.Context, userID int) (*model.StreakAggregate, error) {
	query := `
        SELECT user_id, current_streak, longest_streak, to_char(last_computed_date, 'YYYY-MM-DD')
        FROM streaks
        WHERE user_id = $1
    `

	var agg model.StreakAggregate
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&agg.UserID,
		&agg.CurrentStreak,
		&agg.LongestStreak,
		&agg.LastComputedDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get streak aggregate",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	return &agg, nil
}

// Upsert writes the aggregate keyed by user id.
func (r *StreakRepository) Upsert(ctx context.Context, agg *model.StreakAggregate) error {
	r.logger.Debug("Upserting streak aggregate",
		zap.Int("user_id", agg.UserID),
		zap.Int("current_streak", agg.CurrentStreak),
		zap.Int("longest_streak", agg.LongestStreak),
		zap.String("last_computed_date", agg.LastComputedDate),
	)

	query := `
        INSERT INTO streaks (user_id, current_streak, longest_streak, last_computed_date)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE SET
            current_streak = EXCLUDED.current_streak,
            longest_streak = EXCLUDED.longest_streak,
            last_computed_date = EXCLUDED.last_computed_date,
            updated_at = now()
    `

	if _, err := r.db.Exec(ctx, query,
		agg.UserID,
		agg.CurrentStreak,
		agg.LongestStreak,
		agg.LastComputedDate,
	); err != nil {
		r.logger.Error("Failed to upsert streak aggregate",
			zap.Int("user_id", agg.UserID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
