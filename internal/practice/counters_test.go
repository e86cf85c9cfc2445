package practice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sadhana-path/backend/internal/models"
	"github.com/sadhana-path/backend/internal/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountAgeDays(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"same instant", created, 1},
		{"one hour", created.Add(time.Hour), 1},
		{"exactly one day", created.Add(24 * time.Hour), 1},
		{"just over one day", created.Add(24*time.Hour + time.Minute), 2},
		{"ten days", created.Add(240 * time.Hour), 10},
		{"clock skew", created.Add(-time.Hour), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AccountAgeDays(created, tt.now))
		})
	}
	assert.Equal(t, 1, AccountAgeDays(time.Time{}, created))
}

func TestCounters(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	repo.createdAt[1] = testNow.Add(-72 * time.Hour)

	_, err := svc.LogJapa(ctx, 1, models.LogJapaRequest{Count: 500, Date: "2025-03-09"})
	require.NoError(t, err)
	_, err = svc.LogJapa(ctx, 1, models.LogJapaRequest{Count: 8, Mantra: "gayatri"})
	require.NoError(t, err)
	_, err = svc.LogMeditation(ctx, 1, models.LogMeditationRequest{Minutes: 45})
	require.NoError(t, err)
	_, err = svc.CreateJournalEntry(ctx, 1, models.JournalEntryRequest{Body: "b", Tags: []string{"scripture"}})
	require.NoError(t, err)
	_, err = svc.CreateJournalEntry(ctx, 1, models.JournalEntryRequest{Body: "b"})
	require.NoError(t, err)

	counters, derived, err := svc.Counters(ctx, 1, testNow)
	require.NoError(t, err)
	assert.Equal(t, progression.ActivityCounters{
		JapaCount:         508,
		MeditationMinutes: 45,
		JournalEntries:    2,
		CurrentStreakDays: 2,
		AccountAgeDays:    3,
	}, counters)
	assert.Equal(t, 1, derived.ScriptureReflections)
}

func TestCounters_NewUserIsZeroWithAgeOne(t *testing.T) {
	svc, repo := newTestService()
	repo.createdAt[7] = testNow.Add(-time.Minute)

	counters, derived, err := svc.Counters(context.Background(), 7, testNow)
	require.NoError(t, err)
	assert.Equal(t, progression.ActivityCounters{AccountAgeDays: 1}, counters)
	assert.Zero(t, derived.ScriptureReflections)
	assert.Equal(t, int64(25), progression.ComputeScore(counters))
}

func TestCounters_AnySourceFailureIsUnavailable(t *testing.T) {
	for _, method := range []string{"TotalJapa", "TotalMeditation", "JournalCounts", "GetStreak", "UserCreatedAt"} {
		t.Run(method, func(t *testing.T) {
			svc, repo := newTestService()
			repo.createdAt[1] = testNow
			boom := errors.New("connection reset")
			repo.fail[method] = boom

			counters, _, err := svc.Counters(context.Background(), 1, testNow)
			assert.ErrorIs(t, err, ErrDataUnavailable)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, progression.ActivityCounters{}, counters)
		})
	}
}

func TestCounters_LapsedStreakCountsAsZero(t *testing.T) {
	svc, repo := newTestService()
	repo.createdAt[1] = testNow.Add(-30 * 24 * time.Hour)
	last := date("2025-03-01")
	repo.streaks[1] = models.UserStreak{UserID: 1, CurrentStreak: 12, LongestStreak: 12, LastPracticeDate: &last}

	counters, _, err := svc.Counters(context.Background(), 1, testNow)
	require.NoError(t, err)
	assert.Zero(t, counters.CurrentStreakDays)
}
