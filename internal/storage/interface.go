package storage

import (
	"context"

	"github.com/samims/birthday/internal/model"
)

// UserStorage is the persistence contract shared by the handlers and the scan.
type UserStorage interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, user model.User) error
	DeleteByFullName(ctx context.Context, fullName string) (int64, error)
	UpdateByFullName(ctx context.Context, upd model.UserUpdate) (model.UpdateResult, error)
	FindAll(ctx context.Context) ([]model.User, error)
}
