package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
)

// CreateTask adds a task to the room's list. Only the creator and members may
// add tasks, and a tombstoned room accepts none.
func (c *Coordinator) CreateTask(ctx context.Context, roomID, actorID, content string) (domain.Task, error) {
	var task domain.Task
	_, err := c.run(ctx, "create_task", roomID, func(ctx context.Context) (domain.Room, error) {
		room, err := c.loadRoom(ctx, roomID)
		if err != nil {
			return domain.Room{}, err
		}
		actorID = strings.TrimSpace(actorID)
		if actorID == "" {
			return domain.Room{}, domain.ErrEmptyActorID
		}
		if err := domain.CanManageTasks(room, actorID); err != nil {
			return domain.Room{}, err
		}
		now := c.clock()
		taskID, err := c.newTaskID(now)
		if err != nil {
			return domain.Room{}, fmt.Errorf("generate task id: %w", err)
		}
		task, err = domain.NewTask(taskID, room.ID, actorID, content, now)
		if err != nil {
			return domain.Room{}, err
		}
		if err := c.store.CreateTask(ctx, task); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// The room vanished or was tombstoned after the read.
				return domain.Room{}, c.closedRoomError(ctx, room.ID)
			}
			return domain.Room{}, fmt.Errorf("create task: %w", err)
		}
		return room, nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ListTasks returns the room's tasks in creation order.
func (c *Coordinator) ListTasks(ctx context.Context, roomID string) ([]domain.Task, error) {
	room, err := c.loadRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	tasks, err := c.store.ListTasks(ctx, room.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask removes one task from the room.
func (c *Coordinator) DeleteTask(ctx context.Context, roomID, actorID, taskID string) error {
	_, err := c.run(ctx, "delete_task", roomID, func(ctx context.Context) (domain.Room, error) {
		room, err := c.loadRoom(ctx, roomID)
		if err != nil {
			return domain.Room{}, err
		}
		taskID = strings.TrimSpace(taskID)
		if taskID == "" {
			return domain.Room{}, domain.ErrEmptyTaskID
		}
		actorID = strings.TrimSpace(actorID)
		if actorID == "" {
			return domain.Room{}, domain.ErrEmptyActorID
		}
		if err := domain.CanManageTasks(room, actorID); err != nil {
			return domain.Room{}, err
		}
		deleted, err := c.store.DeleteTask(ctx, room.ID, taskID)
		if err != nil {
			return domain.Room{}, fmt.Errorf("delete task: %w", err)
		}
		if !deleted {
			return domain.Room{}, domain.TaskNotFound(room.ID, taskID)
		}
		return room, nil
	})
	return err
}

func (c *Coordinator) loadRoom(ctx context.Context, roomID string) (domain.Room, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return domain.Room{}, domain.ErrEmptyRoomID
	}
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, roomReadError(roomID, err)
	}
	return room, nil
}

func (c *Coordinator) closedRoomError(ctx context.Context, roomID string) error {
	room, err := c.store.GetRoom(ctx, roomID)
	if err == nil && room.PendingDeletion {
		return domain.RoomDeleting(roomID)
	}
	return domain.RoomNotFound(roomID)
}
