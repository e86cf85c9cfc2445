// Package practice records devotional practice (japa, meditation and
// journaling), maintains consecutive-day streaks and sources the activity
// counters the progression engine scores.
package practice

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sadhana-path/backend/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultMantra = "om"
	// ScriptureTag marks journal entries that count as scripture study.
	ScriptureTag = "scripture"

	maxJapaPerLog    = 100000
	maxMinutesPerLog = 24 * 60
	maxMantraLen     = 100
	maxTitleLen      = 200
	maxBodyLen       = 20000
	maxTags          = 10
	maxTagLen        = 30
	maxBackfillDays  = 365

	DefaultHistoryDays = 30
	MaxHistoryDays     = 365

	defaultPageSize = 20
	maxPageSize     = 100
)

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger.Named("practice"), now: time.Now}
}

// ── Logging Practice ────────────────────────────────────

func (s *Service) LogJapa(ctx context.Context, userID int64, req models.LogJapaRequest) (*models.LogPracticeResponse, error) {
	if req.Count <= 0 {
		return nil, invalid("count", "must be positive")
	}
	if req.Count > maxJapaPerLog {
		return nil, invalid("count", "must be at most %d", maxJapaPerLog)
	}
	mantra := strings.ToLower(strings.TrimSpace(req.Mantra))
	if mantra == "" {
		mantra = DefaultMantra
	}
	if utf8.RuneCountInString(mantra) > maxMantraLen {
		return nil, invalid("mantra", "must be at most %d characters", maxMantraLen)
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	total, st, err := s.repo.LogJapa(ctx, userID, day, mantra, req.Count, advanceTo(day))
	if err != nil {
		s.logger.Error("log japa", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.practiceResponse(day, total, st), nil
}

func (s *Service) LogMeditation(ctx context.Context, userID int64, req models.LogMeditationRequest) (*models.LogPracticeResponse, error) {
	if req.Minutes <= 0 {
		return nil, invalid("minutes", "must be positive")
	}
	if req.Minutes > maxMinutesPerLog {
		return nil, invalid("minutes", "must be at most %d", maxMinutesPerLog)
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}

	total, st, err := s.repo.LogMeditation(ctx, userID, day, req.Minutes, advanceTo(day))
	if err != nil {
		s.logger.Error("log meditation", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.practiceResponse(day, total, st), nil
}

func (s *Service) practiceResponse(day time.Time, dayTotal int, st models.UserStreak) *models.LogPracticeResponse {
	return &models.LogPracticeResponse{
		Date:     day.Format(dateLayout),
		DayTotal: dayTotal,
		Streak:   streakInfo(st, s.now()),
	}
}

func advanceTo(day time.Time) StreakFunc {
	return func(cur models.UserStreak) models.UserStreak {
		return AdvanceStreak(cur, day)
	}
}

// ── Journal ─────────────────────────────────────────────

func (s *Service) CreateJournalEntry(ctx context.Context, userID int64, req models.JournalEntryRequest) (*models.JournalEntry, error) {
	entry, err := s.journalFromRequest(userID, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.CreateJournalEntry(ctx, entry, advanceTo(entry.EntryDate)); err != nil {
		s.logger.Error("create journal entry", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return entry, nil
}

// UpdateJournalEntry replaces an entry's content. Streaks are not touched:
// editing a reflection is not a new practice.
func (s *Service) UpdateJournalEntry(ctx context.Context, userID, id int64, req models.JournalEntryRequest) (*models.JournalEntry, error) {
	entry, err := s.journalFromRequest(userID, req)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	if err := s.repo.UpdateJournalEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) DeleteJournalEntry(ctx context.Context, userID, id int64) error {
	return s.repo.DeleteJournalEntry(ctx, userID, id)
}

func (s *Service) ListJournalEntries(ctx context.Context, userID int64, req models.JournalListRequest) (*models.JournalListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	size := req.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	tag := strings.ToLower(strings.TrimSpace(req.Tag))

	entries, total, err := s.repo.ListJournalEntries(ctx, userID, tag, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &models.JournalListResponse{Entries: entries, Total: total, Page: page, PageSize: size}, nil
}

func (s *Service) journalFromRequest(userID int64, req models.JournalEntryRequest) (*models.JournalEntry, error) {
	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, invalid("body", "is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, invalid("title", "must be at most %d characters", maxTitleLen)
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return nil, invalid("body", "must be at most %d characters", maxBodyLen)
	}
	tags, err := NormalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}
	day, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	return &models.JournalEntry{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Tags:      tags,
		EntryDate: day,
	}, nil
}

// NormalizeTags lower-cases and trims tags, drops empties and duplicates
// and keeps first-seen order.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLen {
			return nil, invalid("tags", "tag %q is longer than %d characters", t, maxTagLen)
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, invalid("tags", "at most %d tags allowed", maxTags)
	}
	return out, nil
}

// ── History & Streak ────────────────────────────────────

func (s *Service) History(ctx context.Context, userID int64, days int) (*models.HistoryResponse, error) {
	if days < 1 || days > MaxHistoryDays {
		return nil, invalid("days", "must be between 1 and %d", MaxHistoryDays)
	}
	to := Day(s.now())
	from := to.AddDate(0, 0, -(days - 1))

	totals, err := s.repo.DailyTotals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if totals == nil {
		totals = []models.DailyPractice{}
	}
	return &models.HistoryResponse{Days: totals}, nil
}

func (s *Service) Streak(ctx context.Context, userID int64) (*models.StreakInfo, error) {
	st, err := s.repo.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := streakInfo(st, s.now())
	return &info, nil
}

// parseDate accepts "2006-01-02" or empty for today. Future days and days
// more than a year back are rejected.
func (s *Service) parseDate(raw string) (time.Time, error) {
	today := Day(s.now())
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return today, nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, invalid("date", "must be formatted YYYY-MM-DD")
	}
	if day.After(today) {
		return time.Time{}, invalid("date", "cannot be in the future")
	}
	if day.Before(today.AddDate(0, 0, -maxBackfillDays)) {
		return time.Time{}, invalid("date", "cannot be more than %d days ago", maxBackfillDays)
	}
	return day, nil
}
