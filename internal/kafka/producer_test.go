package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/samims/birthday/internal/model"
	"github.com/samims/birthday/pkg/tracing"
)

func newMockProducer(t *testing.T) *mocks.AsyncProducer {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	return mocks.NewAsyncProducer(t, cfg)
}

func sampleEvent() model.OutcomeEvent {
	return model.OutcomeEvent{
		ID:         "3f1c8a52-7d7e-4a4e-9c51-0f9b2f6a1d11",
		FullName:   "Ann Lee",
		Trigger:    model.TriggerScheduled,
		Outcome:    model.OutcomeDelivered,
		StatusCode: 200,
		OccurredAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestProducer_Publish(t *testing.T) {
	mp := newMockProducer(t)
	mp.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "birthday.notification.outcomes" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "Ann Lee" {
			return errors.New("unexpected key " + string(key))
		}
		value, _ := msg.Value.Encode()
		var got model.OutcomeEvent
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if got.Outcome != model.OutcomeDelivered || got.Trigger != model.TriggerScheduled {
			return errors.New("unexpected event body")
		}
		return nil
	})

	p := NewProducer(mp, "birthday.notification.outcomes", zap.NewNop(), tracing.GetTracer("test"))
	p.Start(context.Background())

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	p.Close(context.Background())
}

func TestProducer_AckSpanCarriesKafkaAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tracing.NewTracer(tp.Tracer("test"))

	mp := newMockProducer(t)
	mp.ExpectInputAndSucceed()

	p := NewProducer(mp, "outcomes", zap.NewNop(), tracer)
	p.Start(context.Background())
	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	p.Close(context.Background())

	spans := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		spans[s.Name()] = s
	}
	publish, ok := spans["kafka.PublishOutcome"]
	require.True(t, ok)
	ack, ok := spans["kafka.OutcomeAcked"]
	require.True(t, ok)

	assert.Equal(t, publish.SpanContext().TraceID(), ack.Parent().TraceID())
	assert.Equal(t, publish.SpanContext().SpanID(), ack.Parent().SpanID())

	attrs := map[string]string{}
	for _, kv := range ack.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "kafka", attrs[tracing.AttrMessagingSystem])
	assert.Equal(t, "outcomes", attrs[tracing.AttrMessagingDestination])
	assert.Equal(t, "ack", attrs[tracing.AttrMessagingOperation])
	assert.Contains(t, attrs, tracing.AttrMessagingKafkaOffset)
	assert.Contains(t, attrs, tracing.AttrMessagingKafkaPartition)
}

func TestProducer_DeliveryFailureIsLogged(t *testing.T) {
	mp := newMockProducer(t)
	mp.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	p := NewProducer(mp, "outcomes", zap.NewNop(), tracing.GetTracer("test"))
	p.Start(context.Background())

	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	p.Close(context.Background())
}

func TestProducer_CloseIsIdempotent(t *testing.T) {
	mp := newMockProducer(t)
	p := NewProducer(mp, "outcomes", zap.NewNop(), tracing.GetTracer("test"))
	p.Start(context.Background())

	p.Close(context.Background())
	p.Close(context.Background())
}

func TestNewProducer_PanicsOnMissingDeps(t *testing.T) {
	assert.Panics(t, func() { NewProducer(nil, "outcomes", zap.NewNop(), tracing.GetTracer("test")) })
	assert.Panics(t, func() { NewProducer(newMockProducer(t), "", zap.NewNop(), tracing.GetTracer("test")) })
}

func TestNoopPublisher(t *testing.T) {
	var p OutcomePublisher = NoopPublisher{}
	p.Start(context.Background())
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	p.Close(context.Background())
}
