package practice

import (
	"testing"
	"time"

	"github.com/sadhana-path/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func streakAt(current, longest int, last string) models.UserStreak {
	d := date(last)
	return models.UserStreak{CurrentStreak: current, RunLength: current, LongestStreak: longest, LastPracticeDate: &d}
}

func ptr[T any](v T) *T { return &v }

func TestAdvanceStreak(t *testing.T) {
	tests := []struct {
		name        string
		start       models.UserStreak
		day         string
		wantCurrent int
		wantLongest int
		wantLast    string
	}{
		{"first practice", models.UserStreak{}, "2025-03-10", 1, 1, "2025-03-10"},
		{"same day", streakAt(3, 5, "2025-03-10"), "2025-03-10", 3, 5, "2025-03-10"},
		{"next day", streakAt(3, 5, "2025-03-09"), "2025-03-10", 4, 5, "2025-03-10"},
		{"next day sets longest", streakAt(5, 5, "2025-03-09"), "2025-03-10", 6, 6, "2025-03-10"},
		{"gap resets", streakAt(9, 9, "2025-03-07"), "2025-03-10", 1, 9, "2025-03-10"},
		{"backfill ignored", streakAt(2, 4, "2025-03-10"), "2025-03-08", 2, 4, "2025-03-10"},
		{"after lapse", streakAt(0, 4, "2025-03-01"), "2025-03-10", 1, 4, "2025-03-10"},
		{"next day after lapse job", models.UserStreak{RunLength: 5, LongestStreak: 5, LastPracticeDate: ptr(date("2025-03-08"))}, "2025-03-09", 6, 6, "2025-03-09"},
		{"month boundary", streakAt(1, 1, "2025-02-28"), "2025-03-01", 2, 2, "2025-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdvanceStreak(tt.start, date(tt.day))
			assert.Equal(t, tt.wantCurrent, got.CurrentStreak)
			assert.Equal(t, got.CurrentStreak, got.RunLength)
			assert.Equal(t, tt.wantLongest, got.LongestStreak)
			if assert.NotNil(t, got.LastPracticeDate) {
				assert.Equal(t, tt.wantLast, got.LastPracticeDate.Format(dateLayout))
			}
		})
	}
}

func TestAdvanceStreak_IgnoresTimeOfDay(t *testing.T) {
	st := AdvanceStreak(models.UserStreak{}, time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC))
	st = AdvanceStreak(st, time.Date(2025, 3, 10, 0, 1, 0, 0, time.UTC))
	assert.Equal(t, 2, st.CurrentStreak)
}

func TestEffectiveStreak(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, EffectiveStreak(models.UserStreak{}, now))
	assert.Equal(t, 4, EffectiveStreak(streakAt(4, 4, "2025-03-10"), now))
	assert.Equal(t, 4, EffectiveStreak(streakAt(4, 4, "2025-03-09"), now), "yesterday keeps the run alive")
	assert.Equal(t, 0, EffectiveStreak(streakAt(4, 4, "2025-03-08"), now))
}

func TestLapseCutoff(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, date("2025-02-28"), LapseCutoff(now))
}
