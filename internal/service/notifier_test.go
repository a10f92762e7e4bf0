package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/samims/birthday/internal/model"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Start(ctx context.Context) {}

func (m *mockPublisher) Publish(ctx context.Context, event model.OutcomeEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close(ctx context.Context) {}

func TestBirthdayNotifier_PublishesOutcome(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 1, 0, time.UTC)
	sender := &recordingSender{outcome: model.Outcome{Kind: model.OutcomeRejected, StatusCode: 400, Detail: "bad email", At: at}}

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e model.OutcomeEvent) bool {
		return e.ID != "" &&
			e.FullName == "Ann Lee" &&
			e.Trigger == model.TriggerScheduled &&
			e.Outcome == model.OutcomeRejected &&
			e.StatusCode == 400 &&
			e.Detail == "bad email" &&
			e.OccurredAt.Equal(at)
	})).Return(nil).Once()

	n := NewBirthdayNotifier(sender, pub, zap.NewNop())
	outcome := n.Notify(context.Background(), model.User{FullName: "Ann Lee"}, model.TriggerScheduled)

	assert.Equal(t, model.OutcomeRejected, outcome.Kind)
	pub.AssertExpectations(t)
}

func TestBirthdayNotifier_PublishErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	n := NewBirthdayNotifier(&recordingSender{}, pub, zap.New(core))
	outcome := n.Notify(context.Background(), model.User{FullName: "Ann Lee"}, model.TriggerBirthdayChanged)

	assert.True(t, outcome.Delivered())
	assert.Equal(t, 1, logs.FilterMessage("failed to publish outcome event").Len())
}

func TestBirthdayNotifier_LogsByOutcome(t *testing.T) {
	tests := []struct {
		kind      model.OutcomeKind
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{kind: model.OutcomeDelivered, wantLevel: zapcore.InfoLevel, wantMsg: "birthday notification sent"},
		{kind: model.OutcomeTransientServerFault, wantLevel: zapcore.WarnLevel, wantMsg: "birthday notification hit a transient server fault"},
		{kind: model.OutcomeRejected, wantLevel: zapcore.WarnLevel, wantMsg: "birthday notification rejected"},
		{kind: model.OutcomeTimedOut, wantLevel: zapcore.ErrorLevel, wantMsg: "birthday notification failed"},
		{kind: model.OutcomeNetworkError, wantLevel: zapcore.ErrorLevel, wantMsg: "birthday notification failed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			sender := &recordingSender{outcome: model.Outcome{Kind: tt.kind}}
			n := NewBirthdayNotifier(sender, nil, zap.New(core))

			n.Notify(context.Background(), model.User{FullName: "Ann Lee"}, model.TriggerScheduled)

			entries := logs.FilterMessage(tt.wantMsg).All()
			if assert.Len(t, entries, 1) {
				assert.Equal(t, tt.wantLevel, entries[0].Level)
				assert.Equal(t, string(tt.kind), entries[0].ContextMap()["outcome"])
			}
		})
	}
}
