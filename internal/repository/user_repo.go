package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// ListActiveIDs returns the ids of users with at least one active habit.
// These are the sync candidates for the daily batched run.
func (r *UserRepository) ListActiveIDs(ctx context.Context) ([]int, error) {
	r.logger.Debug("Listing active user ids")

	query := `
        SELECT DISTINCT u.id
        FROM users u
        JOIN habits h ON h.user_id = u.id
        WHERE h.is_active = TRUE
        ORDER BY u.id
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active user ids", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			r.logger.Error("Failed to scan user id", zap.Error(err))
			return nil, err
		}
		ids = append(ids, id)
	}

	r.logger.Debug("Listed active user ids", zap.Int("count", len(ids)))
	return ids, nil
}

// GetUsernames resolves display names for the given user ids.
func (r *UserRepository) GetUsernames(ctx context.Context, ids []int) (map[int]string, error) {
	if len(ids) == 0 {
		return map[int]string{}, nil
	}

	query := `
        SELECT id, username
        FROM users
        WHERE id = ANY($1)
    `

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to get usernames", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	names := make(map[int]string, len(ids))
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			r.logger.Error("Failed to scan username", zap.Error(err))
			return nil, err
		}
		names[id] = name
	}

	return names, nil
}
