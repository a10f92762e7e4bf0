package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samims/birthday/internal/kafka"
	"github.com/samims/birthday/internal/logger"
	"github.com/samims/birthday/internal/metrics"
	"github.com/samims/birthday/internal/model"
	"github.com/samims/birthday/internal/notifier"
)

// BirthdayNotifier makes one send attempt and reports its outcome through
// logs, metrics and the outcome event stream. It never retries.
type BirthdayNotifier interface {
	Notify(ctx context.Context, user model.User, trigger model.Trigger) model.Outcome
}

type birthdayNotifier struct {
	sender    notifier.Sender
	publisher kafka.OutcomePublisher
	logger    *zap.Logger
}

func NewBirthdayNotifier(sender notifier.Sender, publisher kafka.OutcomePublisher, l *zap.Logger) BirthdayNotifier {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	return &birthdayNotifier{
		sender:    sender,
		publisher: publisher,
		logger:    logger.Component(l, "service", "birthdayNotifier"),
	}
}

func (n *birthdayNotifier) Notify(ctx context.Context, user model.User, trigger model.Trigger) model.Outcome {
	start := time.Now()
	outcome := n.sender.Send(ctx, user)

	metrics.NotificationOutcomes.WithLabelValues(string(trigger), string(outcome.Kind)).Inc()
	metrics.NotificationDuration.WithLabelValues(string(outcome.Kind)).Observe(time.Since(start).Seconds())

	fields := []zap.Field{
		zap.String("fullName", user.FullName),
		zap.String("trigger", string(trigger)),
		zap.String("outcome", string(outcome.Kind)),
	}
	if outcome.StatusCode != 0 {
		fields = append(fields, zap.Int("statusCode", outcome.StatusCode))
	}
	if outcome.Detail != "" {
		fields = append(fields, zap.String("detail", outcome.Detail))
	}

	switch outcome.Kind {
	case model.OutcomeDelivered:
		n.logger.Info("birthday notification sent", append(fields, zap.Time("sentAt", outcome.At))...)
	case model.OutcomeTransientServerFault:
		n.logger.Warn("birthday notification hit a transient server fault", fields...)
	case model.OutcomeRejected:
		n.logger.Warn("birthday notification rejected", fields...)
	default:
		n.logger.Error("birthday notification failed", fields...)
	}

	event := model.OutcomeEvent{
		ID:         uuid.NewString(),
		FullName:   user.FullName,
		Trigger:    trigger,
		Outcome:    outcome.Kind,
		StatusCode: outcome.StatusCode,
		Detail:     outcome.Detail,
		OccurredAt: outcome.At,
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn("failed to publish outcome event", zap.String("eventID", event.ID), zap.Error(err))
	}

	return outcome
}
