package models

import (
	"time"

	"github.com/sadhana-path/backend/internal/progression"
)

// UserProgress mirrors the last computed score for a user. It backs the
// leaderboard and is always derivable from the practice tables.
type UserProgress struct {
	UserID     int64     `json:"user_id"`
	Score      int64     `json:"score"`
	LevelIndex int       `json:"level_index"`
	LevelName  string    `json:"level_name"`
	Rank       int       `json:"rank"`
	ComputedAt time.Time `json:"computed_at"`
}

type QuestCompletion struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	QuestID     string    `json:"quest_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// ── Response Types ──────────────────────────────────────

type QuestView struct {
	progression.QuestStatus
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Reward      string     `json:"reward"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type DashboardResponse struct {
	Counters       progression.ActivityCounters `json:"counters"`
	Derived        progression.DerivedMetrics   `json:"derived"`
	Progress       progression.ScoreResult      `json:"progress"`
	Quests         []QuestView                  `json:"quests"`
	QuestsUnlocked []string                     `json:"quests_unlocked"`
	LongestStreak  int                          `json:"longest_streak"`
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        int64  `json:"user_id"`
	DisplayName   string `json:"display_name"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Score         int64  `json:"score"`
	LevelName     string `json:"level_name"`
	CurrentStreak int    `json:"current_streak"`
	IsCurrentUser bool   `json:"is_current_user"`
}

type LeaderboardResponse struct {
	Entries     []LeaderboardEntry `json:"entries"`
	CurrentUser *LeaderboardEntry  `json:"current_user,omitempty"`
	RefreshedAt *time.Time         `json:"refreshed_at,omitempty"`
}

type LevelsResponse struct {
	Levels []progression.LevelDefinition `json:"levels"`
}

type QuestsResponse struct {
	Quests []progression.QuestDefinition `json:"quests"`
}

// ── Reflection ──────────────────────────────────────────

type ReflectionPrompt struct {
	ID           int64     `json:"id"`
	PromptDate   time.Time `json:"prompt_date"`
	Theme        string    `json:"theme"`
	Prompt       string    `json:"prompt"`
	ScriptureRef string    `json:"scripture_ref,omitempty"`
	ModelUsed    string    `json:"model_used"`
	CreatedAt    time.Time `json:"created_at"`
}
