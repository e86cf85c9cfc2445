package practice

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LapseStreaks zeroes every streak that missed yesterday.
func (s *Service) LapseStreaks(ctx context.Context) (int64, error) {
	n, err := s.repo.LapseStreaks(ctx, LapseCutoff(s.now()))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("streaks lapsed", zap.Int64("count", n))
	}
	return n, nil
}

// StartLapseWorker runs LapseStreaks immediately and then every interval
// until ctx is cancelled. The returned channel is closed once the worker
// has stopped.
func (s *Service) StartLapseWorker(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if _, err := s.LapseStreaks(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("lapse streaks", zap.Error(err))
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
