package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"streaksvc/internal/model"
)

type CompletionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCompletionRepository(db *pgxpool.Pool, logger *zap.Logger) *CompletionRepository {
	return &CompletionRepository{
		db:     db,
		logger: logger,
	}
}

// ListByUserSince returns the user's completions dated on or after since
// (YYYY-MM-DD). Callers pass the start of the lookback window to bound the
// result set.
func (r *CompletionRepository) ListByUserSince(ctx context.Context, userID int, since string) ([]model.Completion, error) {
	r.logger.Debug("Listing completions for user",
		zap.Int("user_id", userID),
		zap.String("since", since),
	)

	query := `
        SELECT id, user_id, habit_id, to_char(completed_on, 'YYYY-MM-DD')
        FROM habit_completions
        WHERE user_id = $1 AND completed_on >= $2
        ORDER BY completed_on
    `

	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		r.logger.Error("Failed to list completions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		var c model.Completion
		if err := rows.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Date); err != nil {
			r.logger.Error("Failed to scan completion", zap.Error(err))
			return nil, err
		}
		completions = append(completions, c)
	}

	r.logger.Debug("Listed completions",
		zap.Int("user_id", userID),
		zap.Int("count", len(completions)),
	)
	return completions, nil
}
