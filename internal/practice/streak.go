package practice

import (
	"time"

	"github.com/sadhana-path/backend/internal/models"
)

const dateLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AdvanceStreak applies a practice on day to s and returns the new state.
//
// A practice on the last practice day, or on an earlier day, leaves the
// streak alone. The following calendar day extends the run ending on the
// last practice day, whether or not the lapse job has zeroed CurrentStreak
// since. Any later day starts a new run of one.
func AdvanceStreak(s models.UserStreak, day time.Time) models.UserStreak {
	day = Day(day)

	run := 1
	if s.LastPracticeDate != nil {
		last := Day(*s.LastPracticeDate)
		if !day.After(last) {
			return s
		}
		if day.Equal(last.AddDate(0, 0, 1)) {
			run = max(s.RunLength, s.CurrentStreak) + 1
		}
	}
	s.RunLength = run
	s.CurrentStreak = run

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastPracticeDate = &day
	return s
}

// EffectiveStreak is the streak as of today: a run whose last practice
// was before yesterday has lapsed even if the lapse job has not run yet.
func EffectiveStreak(s models.UserStreak, today time.Time) int {
	if s.LastPracticeDate == nil {
		return 0
	}
	if Day(*s.LastPracticeDate).Before(LapseCutoff(today)) {
		return 0
	}
	return s.CurrentStreak
}

// LapseCutoff returns yesterday relative to now. Streaks whose last
// practice date is before the cutoff are broken.
func LapseCutoff(now time.Time) time.Time {
	return Day(now).AddDate(0, 0, -1)
}

func streakInfo(s models.UserStreak, today time.Time) models.StreakInfo {
	info := models.StreakInfo{
		Current: EffectiveStreak(s, today),
		Longest: s.LongestStreak,
	}
	if s.LastPracticeDate != nil {
		info.LastPracticeDate = s.LastPracticeDate.Format(dateLayout)
	}
	return info
}
