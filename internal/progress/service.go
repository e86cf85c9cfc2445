// Package progress turns practice counters into the user-facing dashboard,
// records quest completions and maintains the leaderboard mirror.
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sadhana-path/backend/internal/models"
	"github.com/sadhana-path/backend/internal/practice"
	"github.com/sadhana-path/backend/internal/progression"
	"go.uber.org/zap"
)

const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

// CounterSource supplies normalized engine inputs. practice.Service
// implements it.
type CounterSource interface {
	Counters(ctx context.Context, userID int64, now time.Time) (progression.ActivityCounters, progression.DerivedMetrics, error)
	Streak(ctx context.Context, userID int64) (*models.StreakInfo, error)
	UserIDs(ctx context.Context) ([]int64, error)
}

type Service struct {
	repo     Repository
	counters CounterSource
	ladder   progression.Ladder
	quests   []progression.QuestDefinition
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.RWMutex
	refreshedAt *time.Time
}

func NewService(repo Repository, counters CounterSource, ladder progression.Ladder, quests []progression.QuestDefinition, logger *zap.Logger) *Service {
	qs := make([]progression.QuestDefinition, len(quests))
	copy(qs, quests)
	return &Service{
		repo:     repo,
		counters: counters,
		ladder:   ladder,
		quests:   qs,
		logger:   logger.Named("progress"),
		now:      time.Now,
	}
}

// ── Dashboard ───────────────────────────────────────────

// Dashboard evaluates the user's current standing. Newly completed quests
// are recorded and the score is mirrored for the leaderboard. A counter
// source failure is returned as practice.ErrDataUnavailable and nothing
// is scored.
func (s *Service) Dashboard(ctx context.Context, userID int64) (*models.DashboardResponse, error) {
	now := s.now()

	counters, derived, err := s.counters.Counters(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	result := progression.Evaluate(counters, s.ladder)
	statuses := progression.EvaluateQuests(s.quests, counters, derived)

	completedAt, err := s.repo.RecordedQuests(ctx, userID)
	if err != nil {
		return nil, err
	}
	recorded := make(map[string]bool, len(completedAt))
	for id := range completedAt {
		recorded[id] = true
	}

	unlocked := progression.NewlyCompleted(statuses, recorded)
	if len(unlocked) > 0 {
		if err := s.repo.RecordQuests(ctx, userID, unlocked, now); err != nil {
			return nil, err
		}
		for _, id := range unlocked {
			completedAt[id] = now
		}
		s.logger.Info("quests completed", zap.Int64("user_id", userID), zap.Strings("quests", unlocked))
	}
	statuses = progression.ApplyRecorded(statuses, recorded)

	if err := s.mirror(ctx, userID, result, now); err != nil {
		// The dashboard is derived from the practice tables; a stale mirror
		// only affects the leaderboard.
		s.logger.Warn("mirror progress", zap.Int64("user_id", userID), zap.Error(err))
	}

	longest := 0
	if st, err := s.counters.Streak(ctx, userID); err != nil {
		s.logger.Warn("load longest streak", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		longest = st.Longest
	}

	if unlocked == nil {
		unlocked = []string{}
	}
	return &models.DashboardResponse{
		Counters:       counters,
		Derived:        derived,
		Progress:       result,
		Quests:         s.questViews(statuses, completedAt),
		QuestsUnlocked: unlocked,
		LongestStreak:  longest,
	}, nil
}

func (s *Service) questViews(statuses []progression.QuestStatus, completedAt map[string]time.Time) []models.QuestView {
	views := make([]models.QuestView, len(statuses))
	for i, st := range statuses {
		q := s.quests[i]
		v := models.QuestView{
			QuestStatus: st,
			Title:       q.Title,
			Description: q.Description,
			Reward:      q.Reward,
		}
		if at, ok := completedAt[st.QuestID]; ok {
			v.CompletedAt = &at
		}
		views[i] = v
	}
	return views
}

func (s *Service) mirror(ctx context.Context, userID int64, result progression.ScoreResult, at time.Time) error {
	return s.repo.SaveProgress(ctx, models.UserProgress{
		UserID:     userID,
		Score:      result.Score,
		LevelIndex: result.CurrentLevel.Index,
		LevelName:  result.CurrentLevel.Name,
		ComputedAt: at,
	})
}

// ── Leaderboard ─────────────────────────────────────────

// Leaderboard returns the top limit users by mirrored score. The caller's
// own entry is flagged, and returned separately when outside the top.
func (s *Service) Leaderboard(ctx context.Context, userID int64, limit int) (*models.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	cutoff := practice.LapseCutoff(s.now())
	entries, err := s.repo.TopEntries(ctx, limit, cutoff)
	if err != nil {
		return nil, err
	}

	resp := &models.LeaderboardResponse{Entries: entries}
	found := false
	for i := range resp.Entries {
		if resp.Entries[i].UserID == userID {
			resp.Entries[i].IsCurrentUser = true
			found = true
		}
	}
	if !found {
		me, err := s.repo.EntryFor(ctx, userID, cutoff)
		if err != nil {
			return nil, err
		}
		if me != nil {
			me.IsCurrentUser = true
			resp.CurrentUser = me
		}
	}

	s.mu.RLock()
	resp.RefreshedAt = s.refreshedAt
	s.mu.RUnlock()
	return resp, nil
}

// RefreshRanks recomputes every user's score from live counters, updates
// the mirror and reassigns stored ranks. Users whose counters cannot be
// read keep their previous mirror row.
func (s *Service) RefreshRanks(ctx context.Context) error {
	ids, err := s.counters.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := s.now()
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		counters, _, err := s.counters.Counters(ctx, id, now)
		if err != nil {
			failed++
			continue
		}
		if err := s.mirror(ctx, id, progression.Evaluate(counters, s.ladder), now); err != nil {
			failed++
			s.logger.Warn("mirror progress", zap.Int64("user_id", id), zap.Error(err))
		}
	}

	n, err := s.repo.AssignRanks(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.refreshedAt = &now
	s.mu.Unlock()

	s.logger.Info("ranks refreshed",
		zap.Int("users", len(ids)),
		zap.Int("failed", failed),
		zap.Int64("ranked", n),
	)
	return nil
}

// StartRankWorker runs RefreshRanks immediately and then every interval
// until ctx is cancelled. The returned channel is closed once the worker
// has stopped.
func (s *Service) StartRankWorker(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := s.RefreshRanks(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("refresh ranks", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return done
}

// ── Static Configuration ────────────────────────────────

func (s *Service) Levels() models.LevelsResponse {
	levels := make([]progression.LevelDefinition, len(s.ladder))
	copy(levels, s.ladder)
	return models.LevelsResponse{Levels: levels}
}

func (s *Service) Quests() models.QuestsResponse {
	quests := make([]progression.QuestDefinition, len(s.quests))
	copy(quests, s.quests)
	return models.QuestsResponse{Quests: quests}
}
