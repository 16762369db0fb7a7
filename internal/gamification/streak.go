// Package gamification derives streaks and badge unlock status from a
// user's completion history. Everything here is pure computation: no I/O,
// no clocks, no mutation of inputs. Callers inject the reference date.
package gamification

import (
	"sort"
	"time"

	"github.com/wisp-app/wisp-server/internal/models"
)

// day truncates a timestamp to its UTC calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculateStreak returns the number of consecutive calendar days, ending
// today or yesterday relative to the reference date, on which at least one
// story was completed. Multiple completions on one day count once. A most
// recent completion older than yesterday breaks the streak entirely.
func CalculateStreak(history []models.CompletionRecord, today time.Time) int {
	seen := make(map[time.Time]bool)
	for _, rec := range history {
		ts, ok := rec.CompletionTime()
		if !ok {
			continue
		}
		seen[day(ts)] = true
	}
	if len(seen) == 0 {
		return 0
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	ref := day(today)
	if ref.Sub(dates[0]) > 24*time.Hour {
		return 0
	}

	streak := 1
	for i := 0; i < len(dates)-1; i++ {
		if dates[i].Sub(dates[i+1]) == 24*time.Hour {
			streak++
		} else {
			break
		}
	}
	return streak
}
