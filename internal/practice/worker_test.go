package practice

import (
	"context"
	"testing"
	"time"

	"github.com/sadhana-path/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLapseStreaks(t *testing.T) {
	svc, repo := newTestService()
	yesterday := date("2025-03-09")
	old := date("2025-03-07")
	repo.streaks[1] = models.UserStreak{UserID: 1, CurrentStreak: 3, LongestStreak: 3, LastPracticeDate: &yesterday}
	repo.streaks[2] = models.UserStreak{UserID: 2, CurrentStreak: 5, RunLength: 5, LongestStreak: 8, LastPracticeDate: &old}

	n, err := svc.LapseStreaks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 3, repo.streaks[1].CurrentStreak)
	assert.Equal(t, 0, repo.streaks[2].CurrentStreak)
	assert.Equal(t, 5, repo.streaks[2].RunLength, "run length survives the lapse")
	assert.Equal(t, 8, repo.streaks[2].LongestStreak)
}

func TestStartLapseWorker_StopsOnCancel(t *testing.T) {
	svc, repo := newTestService()
	old := date("2025-03-01")
	repo.streaks[1] = models.UserStreak{UserID: 1, CurrentStreak: 2, LastPracticeDate: &old}

	ctx, cancel := context.WithCancel(context.Background())
	done := svc.StartLapseWorker(ctx, time.Hour)

	require.Eventually(t, func() bool {
		st, _ := repo.GetStreak(context.Background(), 1)
		return st.CurrentStreak == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
