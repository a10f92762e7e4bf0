package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/samims/birthday/internal/storage"
)

func TestHealthService(t *testing.T) {
	t.Run("liveness never touches the database", func(t *testing.T) {
		svc := NewHealthService(storage.NewMockUserStorage(t), zap.NewNop())
		assert.NoError(t, svc.Liveness(context.Background()))
	})

	t.Run("readiness pings with a deadline", func(t *testing.T) {
		store := storage.NewMockUserStorage(t)
		store.On("Ping", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		})).Return(nil)

		svc := NewHealthService(store, zap.NewNop())
		assert.NoError(t, svc.Readiness(context.Background()))
	})

	t.Run("readiness fails when the ping fails", func(t *testing.T) {
		store := storage.NewMockUserStorage(t)
		store.On("Ping", mock.Anything).Return(errors.New("connection refused"))

		svc := NewHealthService(store, zap.NewNop())
		assert.Error(t, svc.Readiness(context.Background()))
	})
}
