// Package postgres provides a PostgreSQL-backed rooms storage implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyamero/trackAsOne/internal/platform/storage/migrate"
	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage/postgres/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"

	roomColumns = `id, creator_id, admins, members, pending_requests, pending_invites, pending_deletion, version, created_at, updated_at`
	userColumns = `id, invites, owned_rooms, version, created_at, updated_at`
)

// Store persists rooms, users and tasks in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects to PostgreSQL and applies embedded migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applyMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	list, err := migrate.Load(migrations.FS, "")
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+migrate.Table+` (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	for _, m := range list {
		if strings.TrimSpace(m.UpSQL) == "" {
			continue
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.Name, err)
		}
		tag, err := tx.Exec(ctx, `INSERT INTO `+migrate.Table+` (name, applied_at) VALUES ($1, now()) ON CONFLICT (name) DO NOTHING`, m.Name)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		if tag.RowsAffected() == 0 {
			_ = tx.Rollback(ctx)
			continue
		}
		if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("exec migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}
	}
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func (s *Store) stamp(value time.Time) time.Time {
	if value.IsZero() {
		return s.now().UTC()
	}
	return value.UTC()
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func writeError(op string, err error) error {
	switch pgCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return storage.ErrConflict
	case pgUniqueViolation:
		return storage.ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func rollback(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(ctx)
}

func scanRoom(row pgx.Row) (domain.Room, error) {
	var room domain.Room
	var admins, members, requests, invites string
	if err := row.Scan(
		&room.ID,
		&room.Creator,
		&admins,
		&members,
		&requests,
		&invites,
		&room.PendingDeletion,
		&room.Version,
		&room.CreatedAt,
		&room.UpdatedAt,
	); err != nil {
		return domain.Room{}, err
	}
	var err error
	if room.Admins, err = storage.DecodeSet(admins); err != nil {
		return domain.Room{}, err
	}
	if room.Members, err = storage.DecodeSet(members); err != nil {
		return domain.Room{}, err
	}
	if room.PendingRequests, err = storage.DecodeSet(requests); err != nil {
		return domain.Room{}, err
	}
	if room.PendingInvites, err = storage.DecodeSet(invites); err != nil {
		return domain.Room{}, err
	}
	room.CreatedAt = room.CreatedAt.UTC()
	room.UpdatedAt = room.UpdatedAt.UTC()
	return room, nil
}

func roomArgs(room domain.Room) ([]any, error) {
	admins, err := storage.EncodeSet(room.Admins)
	if err != nil {
		return nil, err
	}
	members, err := storage.EncodeSet(room.Members)
	if err != nil {
		return nil, err
	}
	requests, err := storage.EncodeSet(room.PendingRequests)
	if err != nil {
		return nil, err
	}
	invites, err := storage.EncodeSet(room.PendingInvites)
	if err != nil {
		return nil, err
	}
	return []any{admins, members, requests, invites, room.PendingDeletion}, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	var invites, owned string
	if err := row.Scan(&user.ID, &invites, &owned, &user.Version, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	var err error
	if user.Invites, err = storage.DecodeSet(invites); err != nil {
		return domain.User{}, err
	}
	if user.OwnedRooms, err = storage.DecodeSet(owned); err != nil {
		return domain.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ storage.Store = (*Store)(nil)
