package domain

import (
	"strings"
	"time"
)

// Task is an opaque item in a room's task list. Its content is never
// interpreted here; it only has to share the room's lifetime.
type Task struct {
	ID        string
	RoomID    string
	Content   string
	CreatedBy string
	CreatedAt time.Time
}

// NewTask validates and normalizes a task before it is stored.
func NewTask(id, roomID, createdBy, content string, now time.Time) (Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Task{}, ErrEmptyTaskID
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return Task{}, ErrEmptyRoomID
	}
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		return Task{}, ErrEmptyActorID
	}
	if strings.TrimSpace(content) == "" {
		return Task{}, ErrEmptyTaskContent
	}
	return Task{
		ID:        id,
		RoomID:    roomID,
		Content:   content,
		CreatedBy: createdBy,
		CreatedAt: now.UTC(),
	}, nil
}
