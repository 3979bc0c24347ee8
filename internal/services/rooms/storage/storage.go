// Package storage defines persistence contracts for room membership state.
//
// Every write is a compare-and-update against a version counter. Stores never
// merge concurrent writes; the caller re-reads and re-applies on ErrConflict.
package storage

import (
	"context"
	"errors"

	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConflict indicates the stored version no longer matches the expected one.
	ErrConflict = errors.New("version conflict")
)

// RoomMutation derives the next room state from the stored one. Returning an
// error aborts the write and is passed through to the caller unchanged.
type RoomMutation func(domain.Room) (domain.Room, error)

// UserMutation derives the next user state from the stored one.
type UserMutation func(domain.User) (domain.User, error)

// RoomStore persists rooms.
type RoomStore interface {
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	// CreateRoom inserts the room and adds it to the creator's owned rooms in
	// one transaction. Ids that ever existed are rejected with ErrAlreadyExists.
	CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error)
	// CompareAndUpdateRoom applies mutate only when the stored version equals
	// expectedVersion and persists the result with the next version.
	CompareAndUpdateRoom(ctx context.Context, roomID string, expectedVersion int64, mutate RoomMutation) (domain.Room, error)
	// DeleteRoom removes the room and records its id so it is never reused.
	DeleteRoom(ctx context.Context, roomID string) error
	// ListDeletingRooms returns ids of tombstoned rooms, oldest update first.
	ListDeletingRooms(ctx context.Context, limit int) ([]string, error)
}

// UserStore persists the local user registry.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	// CreateUser registers the user, returning the existing record when present.
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	CompareAndUpdateUser(ctx context.Context, userID string, expectedVersion int64, mutate UserMutation) (domain.User, error)
}

// TaskStore persists room tasks.
type TaskStore interface {
	// CreateTask fails with ErrNotFound when the room is missing or tombstoned.
	CreateTask(ctx context.Context, task domain.Task) error
	ListTasks(ctx context.Context, roomID string) ([]domain.Task, error)
	ListTaskIDs(ctx context.Context, roomID string) ([]string, error)
	// DeleteTask reports whether a task row was removed. A missing task is
	// not an error.
	DeleteTask(ctx context.Context, roomID, taskID string) (bool, error)
}

// Store is the full persistence surface of the rooms service.
type Store interface {
	RoomStore
	UserStore
	TaskStore
	Close() error
}
