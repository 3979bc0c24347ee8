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

const roomColumns = `id, creator_id, admins, members, pending_requests, pending_invites,
        pending_deletion, version, created_at, updated_at`

// GetRoom returns one room by id.
func (s *Store) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Room{}, err
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return domain.Room{}, fmt.Errorf("room id is required")
	}
	return getRoom(ctx, s.sqlDB, roomID)
}

func getRoom(ctx context.Context, q queryer, roomID string) (domain.Room, error) {
	row := q.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, roomID)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, storage.ErrNotFound
		}
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func scanRoom(row rowScanner) (domain.Room, error) {
	var room domain.Room
	var admins, members, requests, invites string
	var pendingDeletion int
	var createdAt, updatedAt int64
	if err := row.Scan(
		&room.ID,
		&room.Creator,
		&admins,
		&members,
		&requests,
		&invites,
		&pendingDeletion,
		&room.Version,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Room{}, err
	}
	var err error
	if room.Admins, err = storage.DecodeSet(admins); err != nil {
		return domain.Room{}, fmt.Errorf("decode admins: %w", err)
	}
	if room.Members, err = storage.DecodeSet(members); err != nil {
		return domain.Room{}, fmt.Errorf("decode members: %w", err)
	}
	if room.PendingRequests, err = storage.DecodeSet(requests); err != nil {
		return domain.Room{}, fmt.Errorf("decode pending requests: %w", err)
	}
	if room.PendingInvites, err = storage.DecodeSet(invites); err != nil {
		return domain.Room{}, fmt.Errorf("decode pending invites: %w", err)
	}
	room.PendingDeletion = pendingDeletion != 0
	room.CreatedAt = fromMillis(createdAt)
	room.UpdatedAt = fromMillis(updatedAt)
	return room, nil
}

type encodedRoom struct {
	admins, members, requests, invites string
	pendingDeletion                    int
}

func encodeRoom(room domain.Room) (encodedRoom, error) {
	var (
		out encodedRoom
		err error
	)
	if out.admins, err = storage.EncodeSet(room.Admins); err != nil {
		return encodedRoom{}, err
	}
	if out.members, err = storage.EncodeSet(room.Members); err != nil {
		return encodedRoom{}, err
	}
	if out.requests, err = storage.EncodeSet(room.PendingRequests); err != nil {
		return encodedRoom{}, err
	}
	if out.invites, err = storage.EncodeSet(room.PendingInvites); err != nil {
		return encodedRoom{}, err
	}
	if room.PendingDeletion {
		out.pendingDeletion = 1
	}
	return out, nil
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
	enc, err := encodeRoom(room)
	if err != nil {
		return domain.Room{}, fmt.Errorf("encode room: %w", err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Room{}, fmt.Errorf("begin create room: %w", err)
	}
	defer rollback(tx)

	var buried int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM room_graveyard WHERE id = ?`, room.ID).Scan(&buried)
	if err == nil {
		return domain.Room{}, storage.ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, fmt.Errorf("check room graveyard: %w", err)
	}

	creator, err := getUser(ctx, tx, room.Creator)
	if err != nil {
		return domain.Room{}, err
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO rooms (
		   id, creator_id, admins, members, pending_requests, pending_invites,
		   pending_deletion, version, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Creator,
		enc.admins,
		enc.members,
		enc.requests,
		enc.invites,
		enc.pendingDeletion,
		room.Version,
		toMillis(room.CreatedAt),
		toMillis(room.UpdatedAt),
	); err != nil {
		if isUniqueViolation(err) {
			return domain.Room{}, storage.ErrAlreadyExists
		}
		return domain.Room{}, writeError("insert room", err)
	}

	next := creator.Clone()
	next.OwnedRooms.Add(room.ID)
	next.UpdatedAt = room.UpdatedAt
	if err := updateUser(ctx, tx, creator, next); err != nil {
		return domain.Room{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Room{}, writeError("commit create room", err)
	}
	return room, nil
}

// CompareAndUpdateRoom applies mutate against the stored room when its version
// matches expectedVersion.
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

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Room{}, writeError("begin update room", err)
	}
	defer rollback(tx)

	current, err := getRoom(ctx, tx, roomID)
	if err != nil {
		if isBusy(err) {
			return domain.Room{}, storage.ErrConflict
		}
		return domain.Room{}, err
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
	enc, err := encodeRoom(next)
	if err != nil {
		return domain.Room{}, fmt.Errorf("encode room: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		`UPDATE rooms
		    SET admins = ?, members = ?, pending_requests = ?, pending_invites = ?,
		        pending_deletion = ?, version = ?, updated_at = ?
		  WHERE id = ? AND version = ?`,
		enc.admins,
		enc.members,
		enc.requests,
		enc.invites,
		enc.pendingDeletion,
		next.Version,
		toMillis(next.UpdatedAt),
		current.ID,
		current.Version,
	)
	if err != nil {
		return domain.Room{}, writeError("update room", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return domain.Room{}, fmt.Errorf("update room rows: %w", err)
	} else if affected == 0 {
		return domain.Room{}, storage.ErrConflict
	}
	if err := tx.Commit(); err != nil {
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

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return writeError("begin delete room", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	if err != nil {
		return writeError("delete room", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO room_graveyard (id, deleted_at) VALUES (?, ?)`,
		roomID,
		toMillis(s.now()),
	); err != nil {
		return writeError("bury room id", err)
	}
	if err := tx.Commit(); err != nil {
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
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id FROM rooms
		  WHERE pending_deletion = 1
		  ORDER BY updated_at ASC, id ASC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list deleting rooms: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list deleting rooms: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deleting rooms: %w", err)
	}
	return ids, nil
}
