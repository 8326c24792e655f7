package leaderboard

import (
	"time"

	"github.com/okian/questforge/internal/domain/model"
)

// allTimeEpoch anchors SEASON and ALL_TIME periods.
var allTimeEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// DerivePeriod resolves a time-window class to a concrete [start, end]
// period at the given instant, in UTC.
func DerivePeriod(window model.TimeWindow, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch window {
	case model.WindowDaily:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1)
	case model.WindowWeekly:
		// Weeks run Sunday through Saturday.
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		start := day.AddDate(0, 0, -int(day.Weekday()))
		return start, start.AddDate(0, 0, 7)
	case model.WindowMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	case model.WindowSeason, model.WindowAllTime:
		return allTimeEpoch, now
	default:
		return allTimeEpoch, now
	}
}
