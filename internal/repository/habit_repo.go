package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"streaksvc/internal/model"
)

type HabitRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitRepository(db *pgxpool.Pool, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{
		db:     db,
		logger: logger,
	}
}

// ListByUser returns all of the user's habits, including inactive and
// weekly ones. The streak engine decides which of them participate.
func (r *HabitRepository) ListByUser(ctx context.Context, userID int) ([]model.Habit, error) {
	r.logger.Debug("Listing habits for user", zap.Int("user_id", userID))

	query := `
        SELECT id, user_id, title, is_weekly, is_active, created_at, updated_at
        FROM habits
        WHERE user_id = $1
        ORDER BY created_at
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.IsWeekly,
			&h.IsActive,
			&h.CreatedAt,
			&h.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan habit", zap.Error(err))
			return nil, err
		}
		habits = append(habits, h)
	}

	r.logger.Debug("Listed habits",
		zap.Int("user_id", userID),
		zap.Int("count", len(habits)),
	)
	return habits, nil
}

// ListDaysByUser returns the weekday bindings of all of the user's habits.
func (r *HabitRepository) ListDaysByUser(ctx context.Context, userID int) ([]model.HabitDay, error) {
	r.logger.Debug("Listing habit day bindings for user", zap.Int("user_id", userID))

	query := `
        SELECT hd.habit_id, hd.weekday
        FROM habit_days hd
        JOIN habits h ON h.id = hd.habit_id
        WHERE h.user_id = $1
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list habit day bindings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var days []model.HabitDay
	for rows.Next() {
		var d model.HabitDay
		if err := rows.Scan(&d.HabitID, &d.Weekday); err != nil {
			r.logger.Error("Failed to scan habit day binding", zap.Error(err))
			return nil, err
		}
		days = append(days, d)
	}

	r.logger.Debug("Listed habit day bindings",
		zap.Int("user_id", userID),
		zap.Int("count", len(days)),
	)
	return days, nil
}
