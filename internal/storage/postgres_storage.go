package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/samims/birthday/internal/model"
)

type postgresStorage struct {
	db *sqlx.DB
}

func NewPostgresStorage(db *sqlx.DB) UserStorage {
	return &postgresStorage{db: db}
}

func (s *postgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *postgresStorage) Insert(ctx context.Context, user model.User) error {
	const query = `
		INSERT INTO users (full_name, custom_message, birthday, location, email)
		VALUES ($1, $2, $3, $4, $5)
	`
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			user.FullName, user.CustomMessage, user.Birthday, user.Location, user.Email)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
}

func (s *postgresStorage) DeleteByFullName(ctx context.Context, fullName string) (int64, error) {
	const query = `DELETE FROM users WHERE full_name = $1`

	var affected int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, fullName)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// updatedRow pairs the row after the update with the birthday it replaced.
type updatedRow struct {
	model.User
	PreviousBirthday time.Time `db:"previous_birthday"`
}

func (s *postgresStorage) UpdateByFullName(ctx context.Context, upd model.UserUpdate) (model.UpdateResult, error) {
	// previous is locked so the pair (old, new) is consistent under concurrent edits.
	const query = `
		WITH previous AS (
			SELECT full_name, birthday
			FROM users
			WHERE full_name = $4
			FOR UPDATE
		)
		UPDATE users u
		SET birthday = $1, location = $2, email = $3
		FROM previous p
		WHERE u.full_name = p.full_name
		RETURNING u.full_name, u.custom_message, u.birthday, u.location, u.email,
			p.birthday AS previous_birthday
	`

	var rows []updatedRow
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &rows, query, upd.Birthday, upd.Location, upd.Email, upd.FullName); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.UpdateResult{}, err
	}

	result := model.UpdateResult{Affected: int64(len(rows))}
	if len(rows) == 1 {
		current := rows[0].User
		previous := current
		previous.Birthday = rows[0].PreviousBirthday
		result.Previous = previous
		result.Current = current
	}
	return result, nil
}

func (s *postgresStorage) FindAll(ctx context.Context) ([]model.User, error) {
	const query = `
		SELECT full_name, custom_message, birthday, location, email
		FROM users
	`

	var users []model.User
	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}
