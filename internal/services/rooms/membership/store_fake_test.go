package membership

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
)

// memoryStore is an in-memory storage.Store with the same version discipline
// as the SQL stores.
type memoryStore struct {
	mu        sync.Mutex
	rooms     map[string]domain.Room
	users     map[string]domain.User
	tasks     map[string][]domain.Task
	graveyard map[string]bool

	// roomConflicts fails that many room compare-and-updates with ErrConflict.
	roomConflicts int
	roomWrites    int
	// deleteRoomErr fails the next DeleteRoom once.
	deleteRoomErr error
	// taskIDLists counts ListTaskIDs calls.
	taskIDLists int
}

var _ storage.Store = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rooms:     make(map[string]domain.Room),
		users:     make(map[string]domain.User),
		tasks:     make(map[string][]domain.Task),
		graveyard: make(map[string]bool),
	}
}

func (s *memoryStore) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return domain.Room{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Room{}, storage.ErrNotFound
	}
	return room.Clone(), nil
}

func (s *memoryStore) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok || s.graveyard[room.ID] {
		return domain.Room{}, storage.ErrAlreadyExists
	}
	owner, ok := s.users[room.Creator]
	if !ok {
		return domain.Room{}, storage.ErrNotFound
	}
	room = room.Clone()
	room.Version = 1
	s.rooms[room.ID] = room
	owner = owner.Clone()
	owner.OwnedRooms.Add(room.ID)
	owner.Version++
	s.users[owner.ID] = owner
	return room.Clone(), nil
}

func (s *memoryStore) CompareAndUpdateRoom(ctx context.Context, roomID string, expectedVersion int64, mutate storage.RoomMutation) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomConflicts > 0 {
		s.roomConflicts--
		return domain.Room{}, storage.ErrConflict
	}
	current, ok := s.rooms[roomID]
	if !ok {
		return domain.Room{}, storage.ErrNotFound
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
	if err := next.Validate(); err != nil {
		return domain.Room{}, err
	}
	s.rooms[roomID] = next.Clone()
	s.roomWrites++
	return next, nil
}

func (s *memoryStore) DeleteRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteRoomErr != nil {
		err := s.deleteRoomErr
		s.deleteRoomErr = nil
		return err
	}
	if _, ok := s.rooms[roomID]; !ok {
		return storage.ErrNotFound
	}
	if len(s.tasks[roomID]) > 0 {
		return errors.New("room still has tasks")
	}
	delete(s.rooms, roomID)
	s.graveyard[roomID] = true
	return nil
}

func (s *memoryStore) ListDeletingRooms(ctx context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, room := range s.rooms {
		if room.PendingDeletion {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *memoryStore) GetUser(ctx context.Context, userID string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, storage.ErrNotFound
	}
	return user.Clone(), nil
}

func (s *memoryStore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.ID]; ok {
		return existing.Clone(), nil
	}
	user = user.Clone()
	user.Version = 1
	s.users[user.ID] = user
	return user.Clone(), nil
}

func (s *memoryStore) CompareAndUpdateUser(ctx context.Context, userID string, expectedVersion int64, mutate storage.UserMutation) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[userID]
	if !ok {
		return domain.User{}, storage.ErrNotFound
	}
	if current.Version != expectedVersion {
		return domain.User{}, storage.ErrConflict
	}
	next, err := mutate(current.Clone())
	if err != nil {
		return domain.User{}, err
	}
	next.ID = current.ID
	next.Version = current.Version + 1
	s.users[userID] = next.Clone()
	return next, nil
}

func (s *memoryStore) CreateTask(ctx context.Context, task domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[task.RoomID]
	if !ok || room.PendingDeletion {
		return storage.ErrNotFound
	}
	s.tasks[task.RoomID] = append(s.tasks[task.RoomID], task)
	return nil
}

func (s *memoryStore) ListTasks(ctx context.Context, roomID string) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Task(nil), s.tasks[roomID]...), nil
}

func (s *memoryStore) ListTaskIDs(ctx context.Context, roomID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskIDLists++
	ids := make([]string, 0, len(s.tasks[roomID]))
	for _, task := range s.tasks[roomID] {
		ids = append(ids, task.ID)
	}
	return ids, nil
}

func (s *memoryStore) DeleteTask(ctx context.Context, roomID, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.tasks[roomID]
	deleted := false
	for i, task := range tasks {
		if task.ID == taskID {
			s.tasks[roomID] = append(tasks[:i:i], tasks[i+1:]...)
			deleted = true
			break
		}
	}
	if len(s.tasks[roomID]) == 0 {
		delete(s.tasks, roomID)
	}
	return deleted, nil
}

func (s *memoryStore) Close() error { return nil }

// memoryCache records cache traffic.
type memoryCache struct {
	mu      sync.Mutex
	rooms   map[string]domain.Room
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{rooms: make(map[string]domain.Room)}
}

func (c *memoryCache) GetRoom(ctx context.Context, roomID string) (domain.Room, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, ok := c.rooms[roomID]
	return room, ok, nil
}

func (c *memoryCache) PutRoom(ctx context.Context, room domain.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.rooms[room.ID]; ok && existing.Version > room.Version {
		return nil
	}
	c.rooms[room.ID] = room.Clone()
	return nil
}

func (c *memoryCache) DeleteRoom(ctx context.Context, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
	c.deleted = append(c.deleted, roomID)
	return nil
}

// recordingEnqueuer collects enqueued cascades.
type recordingEnqueuer struct {
	mu    sync.Mutex
	rooms []string
}

func (e *recordingEnqueuer) EnqueueCascade(ctx context.Context, roomID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rooms = append(e.rooms, roomID)
	return nil
}

var testNow = time.Date(2026, time.February, 22, 10, 0, 0, 0, time.UTC)
