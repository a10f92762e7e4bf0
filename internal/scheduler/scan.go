package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/samims/birthday/internal/birthday"
	"github.com/samims/birthday/internal/logger"
	"github.com/samims/birthday/internal/metrics"
	"github.com/samims/birthday/internal/model"
	"github.com/samims/birthday/internal/service"
	"github.com/samims/birthday/internal/storage"
	"github.com/samims/birthday/pkg/tracing"
)

// ScanReport summarises one scan.
type ScanReport struct {
	Total     int
	Matched   int
	Delivered int
	Failed    int
}

// Scanner runs one pass over the stored users for the given instant.
type Scanner interface {
	Run(ctx context.Context, now time.Time) (ScanReport, error)
}

// DailyScan notifies every user whose birthday falls on now's calendar day.
type DailyScan struct {
	store    storage.UserStorage
	notifier service.BirthdayNotifier
	matcher  birthday.Matcher
	logger   *zap.Logger
	tracer   *tracing.Tracer
}

func NewDailyScan(store storage.UserStorage, notifier service.BirthdayNotifier, matcher birthday.Matcher, l *zap.Logger, tracer *tracing.Tracer) *DailyScan {
	return &DailyScan{
		store:    store,
		notifier: notifier,
		matcher:  matcher,
		logger:   logger.Component(l, "scheduler", "dailyScan"),
		tracer:   tracer,
	}
}

// Run fetches all users and notifies the matching ones one at a time, in
// fetch order. A failed fetch aborts the scan; a failed send only affects
// that user.
func (s *DailyScan) Run(ctx context.Context, now time.Time) (ScanReport, error) {
	ctx, span := s.tracer.StartInternalSpan(ctx, "scheduler.DailyScan",
		attribute.String("birthday.scan.date", now.Format(time.DateOnly)))
	defer span.End()

	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	users, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error("failed to fetch users, scan aborted", zap.Error(err))
		s.tracer.RecordError(span, err)
		return ScanReport{}, fmt.Errorf("fetch users: %w", err)
	}

	report := ScanReport{Total: len(users)}
	for _, user := range users {
		if !s.matcher.Matches(now, user.Birthday) {
			continue
		}
		report.Matched++
		metrics.ScanMatchedUsers.Inc()

		if outcome := s.notifier.Notify(ctx, user, model.TriggerScheduled); outcome.Delivered() {
			report.Delivered++
		} else {
			report.Failed++
		}
	}

	span.SetAttributes(
		attribute.Int("birthday.scan.total", report.Total),
		attribute.Int("birthday.scan.matched", report.Matched),
	)
	s.logger.Info("daily scan finished",
		zap.Int("total", report.Total),
		zap.Int("matched", report.Matched),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", report.Failed),
		zap.Duration("took", time.Since(start)))
	return report, nil
}
