package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger removes lapsed records and reports how many were deleted.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically purges lapsed session rows from stores without
// native key expiry (the SQL store). Redis, Bolt and the memory store evict
// on their own.
type Sweeper struct {
	purger   Purger
	cron     *cron.Cron
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewSweeper(purger Purger, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		purger:   purger,
		cron:     cron.New(),
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start schedules the sweep and returns an error if the schedule cannot be
// registered.
func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("session sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Warn("session sweeper stop timed out")
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("expired sessions purged", zap.Int64("removed", removed))
	}
}
