package progression

import (
	"errors"
	"fmt"
)

// ErrInvalidQuest is returned by ValidateQuests.
var ErrInvalidQuest = errors.New("invalid quest")

// Metric names the counter a quest is measured against.
type Metric string

const (
	MetricStreak     Metric = "streak"
	MetricJapa       Metric = "japa"
	MetricMeditation Metric = "meditation"
	MetricJournal    Metric = "journal"
	MetricScripture  Metric = "scripture"
)

// Valid reports whether m is one of the supported metrics.
func (m Metric) Valid() bool {
	switch m {
	case MetricStreak, MetricJapa, MetricMeditation, MetricJournal, MetricScripture:
		return true
	}
	return false
}

// DerivedMetrics are values that are not raw counters but filtered counts
// produced by the store.
type DerivedMetrics struct {
	// ScriptureReflections is the number of journal entries tagged "scripture".
	ScriptureReflections int `json:"scripture_reflections"`
}

// Value selects the current value of m.
func (m Metric) Value(c ActivityCounters, d DerivedMetrics) int {
	switch m {
	case MetricStreak:
		return c.CurrentStreakDays
	case MetricJapa:
		return c.JapaCount
	case MetricMeditation:
		return c.MeditationMinutes
	case MetricJournal:
		return c.JournalEntries
	case MetricScripture:
		return d.ScriptureReflections
	}
	return 0
}

// QuestDefinition is a milestone on a single metric.
type QuestDefinition struct {
	ID          string `json:"id" toml:"id"`
	Title       string `json:"title" toml:"title"`
	Description string `json:"description" toml:"description"`
	Metric      Metric `json:"metric" toml:"metric"`
	Target      int    `json:"target" toml:"target"`
	Reward      string `json:"reward" toml:"reward"`
}

// QuestStatus is the evaluated state of one quest.
type QuestStatus struct {
	QuestID         string  `json:"quest_id"`
	Metric          Metric  `json:"metric"`
	Target          int     `json:"target"`
	CurrentValue    int     `json:"current_value"`
	IsComplete      bool    `json:"is_complete"`
	ProgressPercent float64 `json:"progress_percent"`
	// Recorded is set when the completion was stored earlier, so the quest
	// stays complete even if the live value has since dropped.
	Recorded bool `json:"recorded"`
}

var defaultQuests = []QuestDefinition{
	{ID: "first_step", Title: "First Step", Description: "Practice for the first day", Metric: MetricStreak, Target: 1, Reward: "Diya"},
	{ID: "week_of_devotion", Title: "Week of Devotion", Description: "Keep a 7-day streak", Metric: MetricStreak, Target: 7, Reward: "Marigold Garland"},
	{ID: "month_of_discipline", Title: "Month of Discipline", Description: "Keep a 30-day streak", Metric: MetricStreak, Target: 30, Reward: "Conch"},
	{ID: "sacred_108", Title: "Sacred 108", Description: "Keep a 108-day streak", Metric: MetricStreak, Target: 108, Reward: "Golden Lotus"},
	{ID: "mala_1008", Title: "Thousand Beads", Description: "Chant 1008 repetitions", Metric: MetricJapa, Target: 1008, Reward: "Rudraksha Mala"},
	{ID: "still_mind", Title: "Still Mind", Description: "Meditate for 600 minutes", Metric: MetricMeditation, Target: 600, Reward: "Singing Bowl"},
	{ID: "reflective_heart", Title: "Reflective Heart", Description: "Write 21 journal entries", Metric: MetricJournal, Target: 21, Reward: "Palm-leaf Journal"},
	{ID: "scripture_study", Title: "Scripture Study", Description: "Complete 30 scripture reflections", Metric: MetricScripture, Target: 30, Reward: "Sacred Scroll"},
}

// DefaultQuests returns a copy of the built-in quest list.
func DefaultQuests() []QuestDefinition {
	q := make([]QuestDefinition, len(defaultQuests))
	copy(q, defaultQuests)
	return q
}

// ValidateQuests rejects unknown metrics, non-positive targets, and
// missing or duplicate ids.
func ValidateQuests(quests []QuestDefinition) error {
	seen := make(map[string]bool, len(quests))
	for _, q := range quests {
		if q.ID == "" {
			return fmt.Errorf("%w: missing id", ErrInvalidQuest)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidQuest, q.ID)
		}
		seen[q.ID] = true
		if !q.Metric.Valid() {
			return fmt.Errorf("%w: %q has unknown metric %q", ErrInvalidQuest, q.ID, q.Metric)
		}
		if q.Target <= 0 {
			return fmt.Errorf("%w: %q target must be positive, got %d", ErrInvalidQuest, q.ID, q.Target)
		}
	}
	return nil
}

// EvaluateQuest measures q against the counters.
func EvaluateQuest(q QuestDefinition, c ActivityCounters, d DerivedMetrics) QuestStatus {
	value := q.Metric.Value(c, d)

	pct := 100.0
	if q.Target > 0 {
		pct = float64(value) / float64(q.Target) * 100
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
	}

	return QuestStatus{
		QuestID:         q.ID,
		Metric:          q.Metric,
		Target:          q.Target,
		CurrentValue:    value,
		IsComplete:      value >= q.Target,
		ProgressPercent: pct,
	}
}

// EvaluateQuests evaluates every quest in order.
func EvaluateQuests(quests []QuestDefinition, c ActivityCounters, d DerivedMetrics) []QuestStatus {
	statuses := make([]QuestStatus, len(quests))
	for i, q := range quests {
		statuses[i] = EvaluateQuest(q, c, d)
	}
	return statuses
}

// ApplyRecorded marks quests present in recorded as complete. The input
// slice is not modified.
func ApplyRecorded(statuses []QuestStatus, recorded map[string]bool) []QuestStatus {
	out := make([]QuestStatus, len(statuses))
	for i, s := range statuses {
		if recorded[s.QuestID] {
			s.Recorded = true
			s.IsComplete = true
			s.ProgressPercent = 100
		}
		out[i] = s
	}
	return out
}

// NewlyCompleted returns the ids of complete quests not yet in recorded.
func NewlyCompleted(statuses []QuestStatus, recorded map[string]bool) []string {
	var ids []string
	for _, s := range statuses {
		if s.IsComplete && !recorded[s.QuestID] {
			ids = append(ids, s.QuestID)
		}
	}
	return ids
}
