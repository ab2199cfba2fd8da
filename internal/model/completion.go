package model

// Completion records one habit marked done on one local calendar date.
// At most one row exists per (user, habit, date).
type Completion struct {
	ID      int    `json:"id"`
	UserID  int    `json:"user_id"`
	HabitID int    `json:"habit_id"`
	Date    string `json:"date"` // YYYY-MM-DD, local calendar date
}
