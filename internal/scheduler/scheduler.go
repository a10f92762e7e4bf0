package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/samims/birthday/internal/clock"
	"github.com/samims/birthday/internal/logger"
	"github.com/samims/birthday/internal/metrics"
)

// Options configures when the scan fires.
type Options struct {
	Hour     int
	Minute   int
	Interval time.Duration
	Location *time.Location
}

// Scheduler polls the clock and starts the scan at the configured local
// hour and minute. Minutes missed while the process was down are not caught
// up. At most one scan runs at a time and at most one starts per local date.
type Scheduler struct {
	scan   Scanner
	clock  clock.Clock
	opts   Options
	logger *zap.Logger

	running   atomic.Bool
	mu        sync.Mutex
	lastFired string
	wg        sync.WaitGroup
}

func NewScheduler(scan Scanner, clk clock.Clock, opts Options, l *zap.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Scheduler{
		scan:   scan,
		clock:  clk,
		opts:   opts,
		logger: logger.Component(l, "scheduler", "scheduler"),
	}
}

// Start polls until ctx is cancelled and then waits for a running scan.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started",
		zap.Int("hour", s.opts.Hour),
		zap.Int("minute", s.opts.Minute),
		zap.Duration("interval", s.opts.Interval),
		zap.String("location", s.opts.Location.String()))

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.Tick(ctx)
			}()
		}
	}
}

// Tick checks the clock once and runs the scan when it is due. It reports
// whether a scan ran.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.clock.Now().In(s.opts.Location)
	if now.Hour() != s.opts.Hour || now.Minute() != s.opts.Minute {
		return false
	}

	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous scan still running, tick skipped")
		metrics.SchedulerSkippedTicks.WithLabelValues("already_running").Inc()
		return false
	}
	defer s.running.Store(false)

	day := now.Format(time.DateOnly)
	s.mu.Lock()
	if s.lastFired == day {
		s.mu.Unlock()
		s.logger.Debug("scan already ran today, tick skipped", zap.String("date", day))
		metrics.SchedulerSkippedTicks.WithLabelValues("already_fired").Inc()
		return false
	}
	s.lastFired = day
	s.mu.Unlock()

	s.logger.Info("starting daily scan", zap.Time("now", now))
	if _, err := s.scan.Run(ctx, now); err != nil {
		s.logger.Error("daily scan failed", zap.Error(err))
	}
	return true
}
