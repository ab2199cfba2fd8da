package model

// StreakAggregate is the per-user computed streak state persisted to the
// streaks table. LastComputedDate gates recomputation to once per day.
type StreakAggregate struct {
	UserID           int    `json:"user_id"`
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	LastComputedDate string `json:"last_computed_date"` // YYYY-MM-DD
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        int    `json:"user_id"`
	Username      string `json:"username"`
	CurrentStreak int    `json:"current_streak"`
}
