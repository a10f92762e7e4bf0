package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/samims/birthday/internal/config"
	"github.com/samims/birthday/internal/model"
	"github.com/samims/birthday/pkg/tracing"
)

// OutcomePublisher emits notification outcome events.
type OutcomePublisher interface {
	Start(ctx context.Context)
	Publish(ctx context.Context, event model.OutcomeEvent) error
	Close(ctx context.Context)
}

// NewAsyncProducer builds the sarama producer used in production.
func NewAsyncProducer(cfg config.KafkaConfig) (sarama.AsyncProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.ClientID = "birthday-service-producer"

	p, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create sarama producer: %w", err)
	}
	return p, nil
}

type producer struct {
	asyncProducer sarama.AsyncProducer
	topic         string
	log           *zap.Logger
	wg            sync.WaitGroup
	closeOnce     sync.Once
	tracer        *tracing.Tracer
}

func NewProducer(asyncProducer sarama.AsyncProducer, topic string, log *zap.Logger, tracer *tracing.Tracer) OutcomePublisher {
	if asyncProducer == nil || log == nil || tracer == nil {
		panic("NewProducer: nil dependencies provided")
	}
	if topic == "" {
		panic("NewProducer: topic must not be empty")
	}
	return &producer{
		asyncProducer: asyncProducer,
		topic:         topic,
		log:           log,
		tracer:        tracer,
	}
}

// Start launches the handlers draining the success and error channels.
func (p *producer) Start(ctx context.Context) {
	p.log.Info("starting kafka producer handlers", zap.String("topic", p.topic))
	p.wg.Add(2)
	go p.handleSuccess(ctx)
	go p.handleErrors(ctx)
}

func (p *producer) handleSuccess(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case msg, ok := <-p.asyncProducer.Successes():
			if !ok {
				return
			}
			p.traceAck(ctx, msg)
			key, _ := msg.Key.Encode()
			p.log.Debug("outcome event delivered",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.String("key", string(key)))
		case <-ctx.Done():
			return
		}
	}
}

// traceAck records the broker acknowledgement as a child of the publish span
// carried in the message metadata.
func (p *producer) traceAck(ctx context.Context, msg *sarama.ProducerMessage) {
	if sc, ok := msg.Metadata.(trace.SpanContext); ok && sc.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, sc)
	}
	_, span := p.tracer.StartInternalSpan(ctx, "kafka.OutcomeAcked")
	p.tracer.AddKafkaAttributes(span, msg.Topic, "ack", msg.Partition, msg.Offset)
	span.End()
}

func (p *producer) handleErrors(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case err, ok := <-p.asyncProducer.Errors():
			if !ok {
				return
			}
			p.log.Error("outcome event delivery failed",
				zap.String("topic", err.Msg.Topic),
				zap.Error(err.Err))
		case <-ctx.Done():
			return
		}
	}
}

// Publish queues the event keyed by full name, with the trace context in its headers.
func (p *producer) Publish(ctx context.Context, event model.OutcomeEvent) error {
	ctx, span := p.tracer.StartClientSpan(ctx, "kafka.PublishOutcome",
		attribute.String(tracing.AttrMessagingSystem, "kafka"),
		attribute.String(tracing.AttrMessagingDestination, p.topic),
		attribute.String(tracing.AttrMessagingOperation, "publish"),
	)
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		p.tracer.RecordError(span, err)
		return fmt.Errorf("failed to marshal outcome event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.FullName),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
		Headers:   tracing.InjectTraceContext(ctx, nil),
		Metadata:  trace.SpanContextFromContext(ctx),
	}

	select {
	case p.asyncProducer.Input() <- msg:
		span.SetAttributes(
			attribute.String(tracing.AttrNotificationOutcome, string(event.Outcome)),
			attribute.String(tracing.AttrNotificationTrigger, string(event.Trigger)),
		)
		return nil
	case <-ctx.Done():
		span.SetStatus(codes.Error, "publish cancelled by context")
		return ctx.Err()
	}
}

// Close flushes queued messages and waits for the handlers.
func (p *producer) Close(_ context.Context) {
	p.closeOnce.Do(func() {
		p.log.Info("closing kafka producer")
		p.asyncProducer.AsyncClose()
		p.wg.Wait()
		p.log.Info("kafka producer closed")
	})
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Start(context.Context) {}

func (NoopPublisher) Publish(context.Context, model.OutcomeEvent) error { return nil }

func (NoopPublisher) Close(context.Context) {}
