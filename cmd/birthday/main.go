package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/samims/birthday/internal/birthday"
	"github.com/samims/birthday/internal/clock"
	"github.com/samims/birthday/internal/config"
	"github.com/samims/birthday/internal/handler"
	"github.com/samims/birthday/internal/kafka"
	"github.com/samims/birthday/internal/logger"
	"github.com/samims/birthday/internal/metrics"
	"github.com/samims/birthday/internal/notifier"
	"github.com/samims/birthday/internal/router"
	"github.com/samims/birthday/internal/scheduler"
	"github.com/samims/birthday/internal/service"
	"github.com/samims/birthday/internal/storage"
	"github.com/samims/birthday/pkg/observability"
	"github.com/samims/birthday/pkg/tracing"
)

const tracerName = "birthday-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	l, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	if err := run(cfg, l); err != nil {
		l.Error("service stopped with error", zap.Error(err))
		l.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, l *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	tracer := tracing.GetTracer(tracerName)
	if cfg.Tracing.Enabled() {
		tp, shutdown, err := observability.NewTracerProvider(ctx, cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint, l)
		if err != nil {
			return err
		}
		defer shutdown()
		tracer = tracing.NewTracer(tp.Provider().Tracer(tracerName))
	}

	db, err := storage.ConnectPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		return err
	}

	publisher := kafka.OutcomePublisher(kafka.NoopPublisher{})
	if cfg.Kafka.Enabled() {
		asyncProducer, err := kafka.NewAsyncProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		publisher = kafka.NewProducer(asyncProducer, cfg.Kafka.Topic, logger.Component(l, "kafka", "producer"), tracer)
	}
	publisher.Start(ctx)
	defer publisher.Close(context.Background())

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return fmt.Errorf("invalid schedule timezone: %w", err)
	}

	store := storage.NewPostgresStorage(db)
	sender := notifier.NewHTTPSender(
		cfg.Notifier,
		notifier.NewRandomFaultPolicy(cfg.Notifier.ServerFaultRate, time.Now().UnixNano()),
		clock.System(),
		tracer,
	)
	birthdayNotifier := service.NewBirthdayNotifier(sender, publisher, l)
	userSvc := service.NewUserService(store, birthdayNotifier, l)
	healthSvc := service.NewHealthService(store, l)

	scan := scheduler.NewDailyScan(store, birthdayNotifier, birthday.NewMatcher(cfg.Scheduler.LeapDayPolicy), l, tracer)
	sched := scheduler.NewScheduler(scan, clock.System(), scheduler.Options{
		Hour:     cfg.Scheduler.Hour,
		Minute:   cfg.Scheduler.Minute,
		Interval: cfg.Scheduler.Interval,
		Location: loc,
	}, l)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(handler.NewUserHandler(userSvc, l, tracer), handler.NewHealthHandler(healthSvc)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sched.Start(gctx)
		return nil
	})

	g.Go(func() error {
		l.Info("server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	l.Info("service shut down")
	return err
}
