// Package progression turns a practitioner's activity counters into a
// spiritual score, a lotus-stage level and quest progress.
//
// Everything here is a pure function over small integer inputs. Callers
// are expected to normalize missing data to zero before calling in; no
// validation of the counters themselves is performed.
package progression

// ActivityCounters are the raw inputs to scoring. All fields are
// non-negative and AccountAgeDays is at least 1.
type ActivityCounters struct {
	JapaCount         int `json:"japa_count"`
	MeditationMinutes int `json:"meditation_minutes"`
	JournalEntries    int `json:"journal_entries"`
	CurrentStreakDays int `json:"current_streak_days"`
	AccountAgeDays    int `json:"account_age_days"`
}

// Weights are the per-unit score contributions of each counter.
type Weights struct {
	Japa       int64
	Meditation int64
	Journal    int64
	Streak     int64
	AccountAge int64
}

// DefaultWeights: japa x1, meditation minute x5, journal entry x50,
// streak day x100, account day x25.
var DefaultWeights = Weights{
	Japa:       1,
	Meditation: 5,
	Journal:    50,
	Streak:     100,
	AccountAge: 25,
}

// Score returns the weighted sum of the counters. No clamping or rounding
// is applied.
func (w Weights) Score(c ActivityCounters) int64 {
	return int64(c.JapaCount)*w.Japa +
		int64(c.MeditationMinutes)*w.Meditation +
		int64(c.JournalEntries)*w.Journal +
		int64(c.CurrentStreakDays)*w.Streak +
		int64(c.AccountAgeDays)*w.AccountAge
}

// ComputeScore returns the spiritual score for c using DefaultWeights.
func ComputeScore(c ActivityCounters) int64 {
	return DefaultWeights.Score(c)
}

// ScoreResult is the derived view of a user's standing. It is recomputed
// on demand and only ever mirrored, never treated as the source of truth.
type ScoreResult struct {
	Score           int64            `json:"score"`
	CurrentLevel    LevelDefinition  `json:"current_level"`
	NextLevel       *LevelDefinition `json:"next_level"`
	ProgressPercent float64          `json:"progress_percent"`
	PointsToNext    int64            `json:"points_to_next"`
}

// Evaluate scores c and places the score on ladder.
func Evaluate(c ActivityCounters, ladder Ladder) ScoreResult {
	score := ComputeScore(c)
	current, next := ResolveLevel(score, ladder)

	var toNext int64
	if next != nil {
		toNext = next.Threshold - score
	}

	return ScoreResult{
		Score:           score,
		CurrentLevel:    current,
		NextLevel:       next,
		ProgressPercent: ProgressPercent(score, current, next),
		PointsToNext:    toNext,
	}
}
