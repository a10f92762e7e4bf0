package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/samims/birthday/internal/logger"
	"github.com/samims/birthday/internal/storage"
)

type HealthService interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

type healthService struct {
	store  storage.UserStorage
	logger *zap.Logger
}

func NewHealthService(store storage.UserStorage, l *zap.Logger) HealthService {
	return &healthService{store: store, logger: logger.Component(l, "service", "healthService")}
}

func (s *healthService) Liveness(ctx context.Context) error {
	return nil
}

// Readiness pings the database, waiting at most 2 seconds.
func (s *healthService) Readiness(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("readiness check failed", zap.Error(err))
		return err
	}
	return nil
}
