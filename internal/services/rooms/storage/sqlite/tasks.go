package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
)

// CreateTask inserts a task only while its room is live.
func (s *Store) CreateTask(ctx context.Context, task domain.Task) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	task.ID = strings.TrimSpace(task.ID)
	task.RoomID = strings.TrimSpace(task.RoomID)
	if task.ID == "" {
		return fmt.Errorf("task id is required")
	}
	if task.RoomID == "" {
		return fmt.Errorf("room id is required")
	}
	task.CreatedAt = s.stamp(task.CreatedAt)

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO tasks (id, room_id, content, created_by, created_at)
		 SELECT ?, ?, ?, ?, ?
		  WHERE EXISTS (SELECT 1 FROM rooms WHERE id = ? AND pending_deletion = 0)`,
		task.ID,
		task.RoomID,
		task.Content,
		task.CreatedBy,
		toMillis(task.CreatedAt),
		task.RoomID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return writeError("create task", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create task rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTasks returns a room's tasks in creation order.
func (s *Store) ListTasks(ctx context.Context, roomID string) ([]domain.Task, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("room id is required")
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, room_id, content, created_by, created_at
		   FROM tasks
		  WHERE room_id = ?
		  ORDER BY created_at ASC, id ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		var createdAt int64
		if err := rows.Scan(&task.ID, &task.RoomID, &task.Content, &task.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		task.CreatedAt = fromMillis(createdAt)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListTaskIDs returns the ids of a room's tasks.
func (s *Store) ListTaskIDs(ctx context.Context, roomID string) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, fmt.Errorf("room id is required")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM tasks WHERE room_id = ? ORDER BY id ASC`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list task ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list task ids: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list task ids: %w", err)
	}
	return ids, nil
}

// DeleteTask removes a task from a room and reports whether it existed.
func (s *Store) DeleteTask(ctx context.Context, roomID, taskID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	roomID = strings.TrimSpace(roomID)
	taskID = strings.TrimSpace(taskID)
	if roomID == "" || taskID == "" {
		return false, fmt.Errorf("room id and task id are required")
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tasks WHERE room_id = ? AND id = ?`, roomID, taskID)
	if err != nil {
		return false, writeError("delete task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task rows affected: %w", err)
	}
	return n > 0, nil
}
