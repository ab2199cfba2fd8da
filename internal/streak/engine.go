// Package streak computes per-user habit streaks from raw completion data.
//
// All functions are pure: the reference date is always an explicit parameter
// and no wall clock is read here. Completion dates are local calendar dates
// in YYYY-MM-DD form; supplying anything else is a caller contract violation.
package streak

import (
	"time"

	"streaksvc/internal/model"
)

const DateLayout = "2006-01-02"

// lookbackDays bounds the scan: today plus the preceding 365 days are
// checked. Runs entirely outside the window are not seen, which is an
// accepted approximation.
const lookbackDays = 365

// ComputeStreaks derives the streak aggregate for one user.
//
// A date is a success day when at least one daily-cadence habit is bound to
// its weekday and every such habit has a completion on that date. A day with
// no bound daily habits never succeeds, and weekly-cadence habits never
// participate. CurrentStreak counts consecutive success days ending at
// today; it is 0 when today itself is not a success day. LongestStreak is
// the longest run of consecutive success days inside the window.
func ComputeStreaks(completions []model.Completion, habits []model.Habit, days []model.HabitDay, today time.Time) model.StreakAggregate {
	daily := make(map[int]bool, len(habits))
	for _, h := range habits {
		if !h.IsWeekly {
			daily[h.ID] = true
		}
	}

	// weekday -> ids of daily habits required on that weekday
	required := make(map[time.Weekday][]int)
	for _, d := range days {
		if !daily[d.HabitID] {
			continue
		}
		wd := time.Weekday(d.Weekday)
		required[wd] = append(required[wd], d.HabitID)
	}

	// date string -> set of habit ids completed that day
	done := make(map[string]map[int]bool, len(completions))
	for _, c := range completions {
		m := done[c.Date]
		if m == nil {
			m = make(map[int]bool)
			done[c.Date] = m
		}
		m[c.HabitID] = true
	}

	// success[i] is true when the date i days before today is a success day.
	// Consecutive offsets are consecutive calendar dates, so run lengths over
	// offsets equal run lengths over dates.
	success := make([]bool, lookbackDays+1)
	for i := 0; i <= lookbackDays; i++ {
		d := today.AddDate(0, 0, -i)
		req := required[d.Weekday()]
		if len(req) == 0 {
			continue
		}
		completed := done[d.Format(DateLayout)]
		ok := true
		for _, id := range req {
			if !completed[id] {
				ok = false
				break
			}
		}
		success[i] = ok
	}

	current := 0
	for i := 0; i <= lookbackDays && success[i]; i++ {
		current++
	}

	longest := 0
	run := 0
	for i := lookbackDays; i >= 0; i-- {
		if !success[i] {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}

	return model.StreakAggregate{
		CurrentStreak:    current,
		LongestStreak:    longest,
		LastComputedDate: today.Format(DateLayout),
	}
}

// ShouldSync reports whether the aggregate must be recomputed and
// republished: true when nothing was ever persisted or the persisted
// aggregate was computed on a different calendar day. The gate is
// date-based only; changed completion data within the same day does not
// reopen it.
func ShouldSync(last *model.StreakAggregate, today time.Time) bool {
	if last == nil {
		return true
	}
	return last.LastComputedDate != today.Format(DateLayout)
}

// WindowStart returns the first date inside the lookback window ending at
// today, formatted as a local calendar date. Callers use it to range-limit
// completion queries.
func WindowStart(today time.Time) string {
	return today.AddDate(0, 0, -lookbackDays).Format(DateLayout)
}
