package observability

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TracerProvider holds the configured OpenTelemetry TracerProvider.
type TracerProvider struct {
	provider *trace.TracerProvider
	logger   *zap.Logger
}

// NewTracerProvider connects to the OTLP collector and registers the global
// provider and propagator. The returned cleanup flushes pending spans.
func NewTracerProvider(
	ctx context.Context,
	serviceName string,
	collectorEndpoint string,
	logger *zap.Logger,
) (*TracerProvider, func(), error) {
	logger.Info("initializing OpenTelemetry tracer",
		zap.String("service", serviceName),
		zap.String("collector", collectorEndpoint))

	conn, err := grpc.NewClient(
		collectorEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion("1.0.0"),
		semconv.ServiceInstanceID(os.Getenv("HOSTNAME")),
	)

	bsp := trace.NewBatchSpanProcessor(exporter)
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.AlwaysSample())),
		trace.WithResource(res),
		trace.WithSpanProcessor(bsp),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	cleanup := func() {
		logger.Info("shutting down TracerProvider")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown TracerProvider", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			logger.Error("failed to close gRPC connection", zap.Error(err))
		}
	}

	return &TracerProvider{provider: tp, logger: logger}, cleanup, nil
}

// Provider returns the underlying *trace.TracerProvider.
func (t *TracerProvider) Provider() *trace.TracerProvider {
	return t.provider
}
