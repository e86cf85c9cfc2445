package models

import "time"

// ── Practice Rows ───────────────────────────────────────

// JapaLog is the repetition total for one mantra on one day.
type JapaLog struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	PracticeDate time.Time `json:"practice_date"`
	Mantra       string    `json:"mantra"`
	Count        int       `json:"count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MeditationLog is the minute total for one day.
type MeditationLog struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	PracticeDate time.Time `json:"practice_date"`
	Minutes      int       `json:"minutes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type JournalEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	EntryDate time.Time `json:"entry_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserStreak is the stored streak row. CurrentStreak is zeroed by the lapse
// job; RunLength keeps the length of the run ending on LastPracticeDate.
type UserStreak struct {
	UserID           int64      `json:"user_id"`
	CurrentStreak    int        `json:"current_streak"`
	RunLength        int        `json:"run_length"`
	LongestStreak    int        `json:"longest_streak"`
	LastPracticeDate *time.Time `json:"last_practice_date"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DailyPractice is one row of the per-day history view.
type DailyPractice struct {
	Date              string `json:"date"`
	JapaCount         int    `json:"japa_count"`
	MeditationMinutes int    `json:"meditation_minutes"`
	JournalEntries    int    `json:"journal_entries"`
}

// ── Request Types ───────────────────────────────────────

// Dates are "2006-01-02"; an empty date means today (UTC).

type LogJapaRequest struct {
	Count  int    `json:"count"`
	Mantra string `json:"mantra,omitempty"`
	Date   string `json:"date,omitempty"`
}

type LogMeditationRequest struct {
	Minutes int    `json:"minutes"`
	Date    string `json:"date,omitempty"`
}

type JournalEntryRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
	Date  string   `json:"date,omitempty"`
}

type JournalListRequest struct {
	Tag      string
	Page     int
	PageSize int
}

// ── Response Types ──────────────────────────────────────

type LogPracticeResponse struct {
	Date     string     `json:"date"`
	DayTotal int        `json:"day_total"`
	Streak   StreakInfo `json:"streak"`
}

type StreakInfo struct {
	Current          int    `json:"current"`
	Longest          int    `json:"longest"`
	LastPracticeDate string `json:"last_practice_date,omitempty"`
}

type JournalListResponse struct {
	Entries  []JournalEntry `json:"entries"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type HistoryResponse struct {
	Days []DailyPractice `json:"days"`
}
