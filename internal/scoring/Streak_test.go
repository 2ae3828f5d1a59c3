package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KcPele/lobster-sage-sub001/internal/types"
)

func activityOn(t time.Time) types.ActivityRecord {
	return types.ActivityRecord{
		Date:      types.DayOf(t),
		Timestamp: t,
		Action:    types.ActionPrediction,
	}
}

func TestComputeStreak(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }

	tests := []struct {
		name    string
		offsets []int
		want    int
	}{
		{"no records", nil, 0},
		{"single record today", []int{0}, 1},
		{"today and yesterday", []int{0, -1}, 2},
		{"week-long run", []int{0, -1, -2, -3, -4, -5, -6}, 7},
		{"gap breaks the run", []int{0, -1, -3, -4}, 2},
		{"stale history only", []int{-30}, 0},
		{"today with stale history", []int{0, -30}, 1},
		{"yesterday only still counts", []int{-1}, 1},
		{"yesterday anchored run", []int{-1, -2, -3}, 3},
		{"two days ago is broken", []int{-2, -3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]types.ActivityRecord, 0, len(tt.offsets))
			for _, offset := range tt.offsets {
				records = append(records, activityOn(day(offset)))
			}
			assert.Equal(t, tt.want, ComputeStreak(records, now))
		})
	}
}

func TestComputeStreak_DuplicateDaysCountOnce(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	records := []types.ActivityRecord{
		activityOn(now),
		activityOn(now.Add(-2 * time.Hour)),
		activityOn(now.Add(-4 * time.Hour)),
		activityOn(now.AddDate(0, 0, -1)),
	}

	assert.Equal(t, 2, ComputeStreak(records, now))
}

func TestComputeStreak_UnorderedInput(t *testing.T) {
	now := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)

	records := []types.ActivityRecord{
		activityOn(now.AddDate(0, 0, -2)),
		activityOn(now),
		activityOn(now.AddDate(0, 0, -1)),
	}

	assert.Equal(t, 3, ComputeStreak(records, now))
}
