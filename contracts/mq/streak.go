package mq

// StreakUpdatedPayload is published on the events exchange after a user's
// streak aggregate has been recomputed and persisted.
type StreakUpdatedPayload struct {
	UserID        int    `json:"user_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	ComputedDate  string `json:"computed_date"` // YYYY-MM-DD format
}
