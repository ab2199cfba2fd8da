package model

import "time"

type Habit struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	IsWeekly  bool      `json:"is_weekly"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HabitDay binds a daily-cadence habit to one weekday on which it is
// required. A habit may carry several bindings.
type HabitDay struct {
	HabitID int `json:"habit_id"`
	Weekday int `json:"weekday"` // 0=Sunday .. 6=Saturday
}
