package tracing

import (
	"context"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel/propagation"
)

// InjectTraceContext copies the span context of ctx into Kafka record headers
// so outcome consumers can join the trace.
func InjectTraceContext(ctx context.Context, headers []sarama.RecordHeader) []sarama.RecordHeader {
	carrier := propagation.MapCarrier{}
	propagator := propagation.TraceContext{}
	propagator.Inject(ctx, carrier)

	newHeaders := make([]sarama.RecordHeader, len(headers), len(headers)+len(carrier))
	copy(newHeaders, headers)

	for k, v := range carrier {
		newHeaders = append(newHeaders, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	return newHeaders
}
