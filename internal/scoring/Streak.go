/*

This file derives the consecutive-active-day streak from a set of dated
activity records. A record dated yesterday with nothing yet today still
counts, so a process restart mid-day does not reset an active streak.

*/

package scoring

import (
	"sort"
	"time"

	"github.com/KcPele/lobster-sage-sub001/internal/logger"
	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

var streakLogger = logger.GetForComponent("streak_tracker")

// ComputeStreak counts consecutive active calendar days ending at the
// evaluation time.
// Inputs:
//   - records: the address's activity records; duplicate days are tolerated.
//   - now: the evaluation time; "today" and "yesterday" are relative to it.
//
// Output:
//   - The streak length in days. Zero when the most recent record is older
//     than yesterday.
func ComputeStreak(records []types.ActivityRecord, now time.Time) int {
	if len(records) == 0 {
		return 0
	}

	// Deduplicate to unique calendar days, newest first.
	daySet := make(map[time.Time]struct{}, len(records))
	for _, rec := range records {
		daySet[types.DayOf(rec.Date)] = struct{}{}
	}
	days := make([]time.Time, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := types.DayOf(now)
	yesterday := today.AddDate(0, 0, -1)

	// The streak is broken once the newest record predates yesterday.
	if !days[0].Equal(today) && !days[0].Equal(yesterday) {
		streakLogger.Debug().
			Time("newestDay", days[0]).
			Time("today", today).
			Msg("Most recent activity is older than yesterday, streak broken")
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		streak++
	}

	streakLogger.Debug().
		Int("streak", streak).
		Int("uniqueDays", len(days)).
		Msg("Streak computed")

	return streak
}
