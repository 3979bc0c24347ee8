package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
)

// GetUser returns one user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, fmt.Errorf("user id is required")
	}
	return getUser(ctx, s.sqlDB, userID)
}

func getUser(ctx context.Context, q queryer, userID string) (domain.User, error) {
	row := q.QueryRowContext(
		ctx,
		`SELECT id, invites, owned_rooms, version, created_at, updated_at
		   FROM users
		  WHERE id = ?`,
		userID,
	)
	var user domain.User
	var invites, owned string
	var createdAt, updatedAt int64
	if err := row.Scan(&user.ID, &invites, &owned, &user.Version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, storage.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	var err error
	if user.Invites, err = storage.DecodeSet(invites); err != nil {
		return domain.User{}, fmt.Errorf("decode invites: %w", err)
	}
	if user.OwnedRooms, err = storage.DecodeSet(owned); err != nil {
		return domain.User{}, fmt.Errorf("decode owned rooms: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}

// CreateUser inserts the user when absent and returns the stored record.
func (s *Store) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	user.ID = strings.TrimSpace(user.ID)
	if user.ID == "" {
		return domain.User{}, fmt.Errorf("user id is required")
	}
	user.CreatedAt = s.stamp(user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	invites, err := storage.EncodeSet(user.Invites)
	if err != nil {
		return domain.User{}, fmt.Errorf("encode invites: %w", err)
	}
	owned, err := storage.EncodeSet(user.OwnedRooms)
	if err != nil {
		return domain.User{}, fmt.Errorf("encode owned rooms: %w", err)
	}
	if _, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (id, invites, owned_rooms, version, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		user.ID,
		invites,
		owned,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	); err != nil {
		return domain.User{}, writeError("create user", err)
	}
	return getUser(ctx, s.sqlDB, user.ID)
}

// CompareAndUpdateUser applies mutate against the stored user when its
// version matches expectedVersion.
func (s *Store) CompareAndUpdateUser(ctx context.Context, userID string, expectedVersion int64, mutate storage.UserMutation) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, fmt.Errorf("user id is required")
	}
	if mutate == nil {
		return domain.User{}, fmt.Errorf("mutation is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, writeError("begin update user", err)
	}
	defer rollback(tx)

	current, err := getUser(ctx, tx, userID)
	if err != nil {
		if isBusy(err) {
			return domain.User{}, storage.ErrConflict
		}
		return domain.User{}, err
	}
	if current.Version != expectedVersion {
		return domain.User{}, storage.ErrConflict
	}
	next, err := mutate(current.Clone())
	if err != nil {
		return domain.User{}, err
	}
	next.UpdatedAt = s.stamp(next.UpdatedAt)
	if err := updateUser(ctx, tx, current, next); err != nil {
		return domain.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, writeError("commit update user", err)
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	return next, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateUser(ctx context.Context, e execer, current, next domain.User) error {
	invites, err := storage.EncodeSet(next.Invites)
	if err != nil {
		return fmt.Errorf("encode invites: %w", err)
	}
	owned, err := storage.EncodeSet(next.OwnedRooms)
	if err != nil {
		return fmt.Errorf("encode owned rooms: %w", err)
	}
	result, err := e.ExecContext(
		ctx,
		`UPDATE users
		    SET invites = ?, owned_rooms = ?, version = ?, updated_at = ?
		  WHERE id = ? AND version = ?`,
		invites,
		owned,
		current.Version+1,
		toMillis(next.UpdatedAt),
		current.ID,
		current.Version,
	)
	if err != nil {
		return writeError("update user", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrConflict
	}
	return nil
}
