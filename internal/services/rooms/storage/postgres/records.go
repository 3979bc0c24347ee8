package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
	"github.com/jackc/pgx/v5"
)

// GetRoom returns one room by id.
func (s *Store) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Room{}, err
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return domain.Room{}, fmt.Errorf("room id is required")
	}
	room, err := scanRoom(s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, roomID))
	if err != nil {
		return domain.Room{}, notFound(err, "get room")
	}
	return room, nil
}

// CreateRoom inserts a room at version 1 and registers it with its creator.
func (s *Store) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Room{}, err
	}
	room.ID = strings.TrimSpace(room.ID)
	room.Creator = strings.TrimSpace(room.Creator)
	if err := room.Validate(); err != nil {
		return domain.Room{}, err
	}
	room.Version = 1
	room.CreatedAt = s.stamp(room.CreatedAt)
	room.UpdatedAt = room.CreatedAt
	args, err := roomArgs(room)
	if err != nil {
		return domain.Room{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Room{}, fmt.Errorf("begin create room: %w", err)
	}
	defer rollback(ctx, tx)

	var buried bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM room_graveyard WHERE id = $1)`, room.ID).Scan(&buried); err != nil {
		return domain.Room{}, fmt.Errorf("check room graveyard: %w", err)
	}
	if buried {
		return domain.Room{}, storage.ErrAlreadyExists
	}

	owner, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, room.Creator))
	if err != nil {
		return domain.Room{}, notFound(err, "get creator")
	}

	insertArgs := append([]any{room.ID, room.Creator}, args...)
	insertArgs = append(insertArgs, room.Version, room.CreatedAt, room.UpdatedAt)
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		insertArgs...,
	); err != nil {
		return domain.Room{}, writeError("insert room", err)
	}

	owned := owner.OwnedRooms.Clone()
	owned.Add(room.ID)
	encoded, err := storage.EncodeSet(owned)
	if err != nil {
		return domain.Room{}, err
	}
	if _, err := tx.Exec(
		ctx,
		`UPDATE users SET owned_rooms = $1, version = version + 1, updated_at = $2 WHERE id = $3`,
		encoded,
		room.UpdatedAt,
		owner.ID,
	); err != nil {
		return domain.Room{}, writeError("update creator", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Room{}, writeError("commit create room", err)
	}
	return room, nil
}

// CompareAndUpdateRoom applies mutate against the locked room row when its
// version matches expectedVersion.
func (s *Store) CompareAndUpdateRoom(ctx context.Context, roomID string, expectedVersion int64, mutate storage.RoomMutation) (domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Room{}, err
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return domain.Room{}, fmt.Errorf("room id is required")
	}
	if mutate == nil {
		return domain.Room{}, fmt.Errorf("mutation is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Room{}, fmt.Errorf("begin update room: %w", err)
	}
	defer rollback(ctx, tx)

	current, err := scanRoom(tx.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, roomID))
	if err != nil {
		return domain.Room{}, notFound(err, "get room")
	}
	if current.Version != expectedVersion {
		return domain.Room{}, storage.ErrConflict
	}
	next, err := mutate(current.Clone())
	if err != nil {
		return domain.Room{}, err
	}
	next.ID = current.ID
	next.Creator = current.Creator
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	next.UpdatedAt = s.stamp(next.UpdatedAt)
	if err := next.Validate(); err != nil {
		return domain.Room{}, err
	}
	args, err := roomArgs(next)
	if err != nil {
		return domain.Room{}, err
	}
	args = append(args, next.Version, next.UpdatedAt, current.ID, current.Version)
	tag, err := tx.Exec(
		ctx,
		`UPDATE rooms
		    SET admins = $1, members = $2, pending_requests = $3, pending_invites = $4,
		        pending_deletion = $5, version = $6, updated_at = $7
		  WHERE id = $8 AND version = $9`,
		args...,
	)
	if err != nil {
		return domain.Room{}, writeError("update room", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Room{}, storage.ErrConflict
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Room{}, writeError("commit update room", err)
	}
	return next, nil
}

// DeleteRoom removes the room row and buries its id.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete room: %w", err)
	}
	defer rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	if err != nil {
		return writeError("delete room", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO room_graveyard (id, deleted_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		roomID,
		s.now().UTC(),
	); err != nil {
		return writeError("bury room id", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return writeError("commit delete room", err)
	}
	return nil
}

// ListDeletingRooms returns tombstoned room ids, least recently updated first.
func (s *Store) ListDeletingRooms(ctx context.Context, limit int) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.pool.Query(ctx, `SELECT id FROM rooms WHERE pending_deletion ORDER BY updated_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list deleting rooms: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list deleting rooms: %w", err)
	}
	return ids, nil
}

// GetUser returns one user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if err := s.ready(ctx); err != nil {
		return domain.User{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, fmt.Errorf("user id is required")
	}
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return domain.User{}, notFound(err, "get user")
	}
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
	invites, err := storage.EncodeSet(user.Invites)
	if err != nil {
		return domain.User{}, err
	}
	owned, err := storage.EncodeSet(user.OwnedRooms)
	if err != nil {
		return domain.User{}, err
	}
	if _, err := s.pool.Exec(
		ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, 1, $4, $4) ON CONFLICT (id) DO NOTHING`,
		user.ID,
		invites,
		owned,
		user.CreatedAt,
	); err != nil {
		return domain.User{}, writeError("create user", err)
	}
	return s.GetUser(ctx, user.ID)
}

// CompareAndUpdateUser applies mutate against the locked user row when its
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
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin update user: %w", err)
	}
	defer rollback(ctx, tx)

	current, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
	if err != nil {
		return domain.User{}, notFound(err, "get user")
	}
	if current.Version != expectedVersion {
		return domain.User{}, storage.ErrConflict
	}
	next, err := mutate(current.Clone())
	if err != nil {
		return domain.User{}, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	next.UpdatedAt = s.stamp(next.UpdatedAt)
	invites, err := storage.EncodeSet(next.Invites)
	if err != nil {
		return domain.User{}, err
	}
	owned, err := storage.EncodeSet(next.OwnedRooms)
	if err != nil {
		return domain.User{}, err
	}
	tag, err := tx.Exec(
		ctx,
		`UPDATE users SET invites = $1, owned_rooms = $2, version = $3, updated_at = $4 WHERE id = $5 AND version = $6`,
		invites,
		owned,
		next.Version,
		next.UpdatedAt,
		current.ID,
		current.Version,
	)
	if err != nil {
		return domain.User{}, writeError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.User{}, storage.ErrConflict
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, writeError("commit update user", err)
	}
	return next, nil
}

// CreateTask inserts a task only while its room is live.
func (s *Store) CreateTask(ctx context.Context, task domain.Task) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	task.ID = strings.TrimSpace(task.ID)
	task.RoomID = strings.TrimSpace(task.RoomID)
	if task.ID == "" || task.RoomID == "" {
		return fmt.Errorf("task id and room id are required")
	}
	task.CreatedAt = s.stamp(task.CreatedAt)
	tag, err := s.pool.Exec(
		ctx,
		`INSERT INTO tasks (id, room_id, content, created_by, created_at)
		 SELECT $1::text, id, $3::text, $4::text, $5::timestamptz FROM rooms WHERE id = $2 AND NOT pending_deletion
		 FOR SHARE`,
		task.ID,
		task.RoomID,
		task.Content,
		task.CreatedBy,
		task.CreatedAt,
	)
	if err != nil {
		return writeError("create task", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTasks returns a room's tasks in creation order.
func (s *Store) ListTasks(ctx context.Context, roomID string) ([]domain.Task, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(
		ctx,
		`SELECT id, room_id, content, created_by, created_at FROM tasks WHERE room_id = $1 ORDER BY created_at, id`,
		strings.TrimSpace(roomID),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Task, error) {
		var task domain.Task
		err := row.Scan(&task.ID, &task.RoomID, &task.Content, &task.CreatedBy, &task.CreatedAt)
		task.CreatedAt = task.CreatedAt.UTC()
		return task, err
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListTaskIDs returns the ids of a room's tasks.
func (s *Store) ListTaskIDs(ctx context.Context, roomID string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT id FROM tasks WHERE room_id = $1 ORDER BY id`, strings.TrimSpace(roomID))
	if err != nil {
		return nil, fmt.Errorf("list task ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list task ids: %w", err)
	}
	return ids, nil
}

// DeleteTask removes a task from a room and reports whether it existed.
func (s *Store) DeleteTask(ctx context.Context, roomID, taskID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE room_id = $1 AND id = $2`, strings.TrimSpace(roomID), strings.TrimSpace(taskID))
	if err != nil {
		return false, writeError("delete task", err)
	}
	return tag.RowsAffected() > 0, nil
}
