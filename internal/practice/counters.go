package practice

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sadhana-path/backend/internal/progression"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Counters reads every counter source for userID concurrently and returns
// the normalized engine inputs. Any source failure yields an error
// wrapping ErrDataUnavailable; partial counters are never returned.
func (s *Service) Counters(ctx context.Context, userID int64, now time.Time) (progression.ActivityCounters, progression.DerivedMetrics, error) {
	var (
		japa, meditation   int
		journal, scripture int
		streak             int
		createdAt          time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.repo.TotalJapa(gctx, userID)
		japa = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.TotalMeditation(gctx, userID)
		meditation = v
		return err
	})
	g.Go(func() error {
		total, tagged, err := s.repo.JournalCounts(gctx, userID, ScriptureTag)
		journal, scripture = total, tagged
		return err
	})
	g.Go(func() error {
		st, err := s.repo.GetStreak(gctx, userID)
		streak = EffectiveStreak(st, now)
		return err
	})
	g.Go(func() error {
		v, err := s.repo.UserCreatedAt(gctx, userID)
		createdAt = v
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("counter source failed", zap.Int64("user_id", userID), zap.Error(err))
		return progression.ActivityCounters{}, progression.DerivedMetrics{}, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	counters := progression.ActivityCounters{
		JapaCount:         nonNegative(japa),
		MeditationMinutes: nonNegative(meditation),
		JournalEntries:    nonNegative(journal),
		CurrentStreakDays: nonNegative(streak),
		AccountAgeDays:    AccountAgeDays(createdAt, now),
	}
	derived := progression.DerivedMetrics{ScriptureReflections: nonNegative(scripture)}
	return counters, derived, nil
}

// AccountAgeDays counts started 24h periods since createdAt, never less
// than one.
func AccountAgeDays(createdAt, now time.Time) int {
	if createdAt.IsZero() || !now.After(createdAt) {
		return 1
	}
	days := int(math.Ceil(now.Sub(createdAt).Hours() / 24))
	return max(1, days)
}

func nonNegative(v int) int {
	return max(0, v)
}

// UserIDs lists every user whose counters can be sourced.
func (s *Service) UserIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ActiveUserIDs(ctx)
}
