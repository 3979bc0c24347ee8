package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/hyamero/trackAsOne/internal/platform/errors"
	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
)

func newTestCoordinator(t *testing.T, store storage.Store, opts ...Option) *Coordinator {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithConfig(Config{
			MaxAttempts:        10,
			InitialBackoff:     time.Millisecond,
			MaxBackoff:         5 * time.Millisecond,
			CascadeConcurrency: 4,
		}),
	}
	return New(store, append(base, opts...)...)
}

func registerUsers(t *testing.T, c *Coordinator, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if _, err := c.RegisterUser(context.Background(), id); err != nil {
			t.Fatalf("register user %s: %v", id, err)
		}
	}
}

func newRoomWithUsers(t *testing.T, c *Coordinator, creator string, others ...string) domain.Room {
	t.Helper()
	registerUsers(t, c, append([]string{creator}, others...)...)
	room, err := c.CreateRoom(context.Background(), creator)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if got := apperrors.GetCode(err); got != want {
		t.Fatalf("error code = %s, want %s (err = %v)", got, want, err)
	}
}

func TestMembershipLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	c := newTestCoordinator(t, store)
	room := newRoomWithUsers(t, c, "u1", "u2")

	owner, err := c.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	if !owner.OwnedRooms.Has(room.ID) {
		t.Fatalf("owned rooms = %v, want %s", owner.OwnedRooms.Sorted(), room.ID)
	}

	got, err := c.RequestJoin(ctx, room.ID, "u2")
	if err != nil {
		t.Fatalf("request join: %v", err)
	}
	if !got.PendingRequests.Equal(domain.NewSet("u2")) {
		t.Fatalf("pending requests = %v, want [u2]", got.PendingRequests.Sorted())
	}

	got, err = c.AcceptRequest(ctx, room.ID, "u1", "u2")
	if err != nil {
		t.Fatalf("accept request: %v", err)
	}
	if !got.Members.Equal(domain.NewSet("u2")) || got.PendingRequests.Len() != 0 {
		t.Fatalf("members = %v, pending = %v", got.Members.Sorted(), got.PendingRequests.Sorted())
	}

	if _, err := c.CreateTask(ctx, room.ID, "u2", "buy milk"); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err = c.LeaveRoom(ctx, room.ID, "u2")
	if err != nil {
		t.Fatalf("leave room: %v", err)
	}
	if got.Members.Len() != 0 {
		t.Fatalf("members = %v, want empty", got.Members.Sorted())
	}

	if err := c.DeleteRoom(ctx, room.ID, "u1"); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	_, err = c.GetRoom(ctx, room.ID)
	assertCode(t, err, apperrors.CodeRoomNotFound)

	ids, err := store.ListTaskIDs(ctx, room.ID)
	if err != nil {
		t.Fatalf("list task ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("task ids = %v, want none", ids)
	}
	owner, err = c.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	if owner.OwnedRooms.Has(room.ID) {
		t.Fatalf("owned rooms still contain %s", room.ID)
	}
}

func TestRequestJoinThenInviteAdmitsUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCoordinator(t, newMemoryStore())
	room := newRoomWithUsers(t, c, "owner", "alice")

	if _, err := c.RequestJoin(ctx, room.ID, "alice"); err != nil {
		t.Fatalf("request join: %v", err)
	}
	got, err := c.InviteUser(ctx, room.ID, "owner", "alice")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if !got.Members.Has("alice") || got.PendingRequests.Has("alice") || got.PendingInvites.Has("alice") {
		t.Fatalf("room = %+v, want alice admitted", got)
	}
	user, err := c.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Invites.Has(room.ID) {
		t.Fatalf("invites = %v, want no entry for %s", user.Invites.Sorted(), room.ID)
	}
}

func TestConcurrentRequestJoinsAllSucceed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCoordinator(t, newMemoryStore())
	users := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
	room := newRoomWithUsers(t, c, "owner", users...)

	var wg sync.WaitGroup
	errs := make(chan error, len(users))
	for _, userID := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.RequestJoin(ctx, room.ID, userID); err != nil {
				errs <- fmt.Errorf("%s: %w", userID, err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("request join: %v", err)
	}

	got, err := c.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if !got.PendingRequests.Equal(domain.NewSet(users...)) {
		t.Fatalf("pending requests = %v, want %v", got.PendingRequests.Sorted(), users)
	}
}

func TestAcceptRequestTwiceIsBenign(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	c := newTestCoordinator(t, store)
	room := newRoomWithUsers(t, c, "owner", "bob")

	if _, err := c.RequestJoin(ctx, room.ID, "bob"); err != nil {
		t.Fatalf("request join: %v", err)
	}
	if _, err := c.AcceptRequest(ctx, room.ID, "owner", "bob"); err != nil {
		t.Fatalf("accept request: %v", err)
	}
	writes := store.roomWrites

	for i := 0; i < 2; i++ {
		got, err := c.AcceptRequest(ctx, room.ID, "owner", "bob")
		assertCode(t, err, apperrors.CodeRoomRequestNotFound)
		if !got.Members.Equal(domain.NewSet("bob")) {
			t.Fatalf("members = %v, want [bob]", got.Members.Sorted())
		}
	}
	if store.roomWrites != writes {
		t.Fatalf("room writes = %d, want %d", store.roomWrites, writes)
	}
}

func TestLeaveThenRequestJoinAgain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCoordinator(t, newMemoryStore())
	room := newRoomWithUsers(t, c, "owner", "bob")

	if _, err := c.InviteUser(ctx, room.ID, "owner", "bob"); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := c.AcceptInvite(ctx, room.ID, "bob"); err != nil {
		t.Fatalf("accept invite: %v", err)
	}
	if _, err := c.LeaveRoom(ctx, room.ID, "bob"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	got, err := c.RequestJoin(ctx, room.ID, "bob")
	if err != nil {
		t.Fatalf("request join: %v", err)
	}
	if !got.PendingRequests.Has("bob") || got.Members.Has("bob") {
		t.Fatalf("room = %+v, want bob pending", got)
	}
}

func TestInviteMaintainsUserIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCoordinator(t, newMemoryStore())
	room := newRoomWithUsers(t, c, "owner", "carol")

	if _, err := c.InviteUser(ctx, room.ID, "owner", "carol"); err != nil {
		t.Fatalf("invite: %v", err)
	}
	user, err := c.GetUser(ctx, "carol")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !user.Invites.Has(room.ID) {
		t.Fatalf("invites = %v, want %s", user.Invites.Sorted(), room.ID)
	}

	if _, err := c.DeclineInvite(ctx, room.ID, "carol"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	user, err = c.GetUser(ctx, "carol")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Invites.Len() != 0 {
		t.Fatalf("invites = %v, want empty", user.Invites.Sorted())
	}

	got, err := c.DeclineInvite(ctx, room.ID, "carol")
	assertCode(t, err, apperrors.CodeRoomInviteNotFound)
	if got.ID != room.ID {
		t.Fatalf("room id = %q, want %q", got.ID, room.ID)
	}
}

// interleavingStore runs a hook once, right after the first room write that
// adds a pending invite, before the coordinator touches the user index.
type interleavingStore struct {
	*memoryStore
	fired       atomic.Bool
	afterInvite func(roomID string)
}

func (s *interleavingStore) CompareAndUpdateRoom(ctx context.Context, roomID string, expectedVersion int64, mutate storage.RoomMutation) (domain.Room, error) {
	updated, err := s.memoryStore.CompareAndUpdateRoom(ctx, roomID, expectedVersion, mutate)
	// The hook's own writes run nested in this call, so it fires only once.
	if err == nil && updated.PendingInvites.Len() > 0 && s.fired.CompareAndSwap(false, true) {
		s.afterInvite(roomID)
	}
	return updated, err
}

func TestInviteResolvedBeforeIndexWriteLeavesNoOrphan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		interfere func(c *Coordinator, roomID string) error
		wantRoom  bool
	}{
		{
			name: "declined",
			interfere: func(c *Coordinator, roomID string) error {
				_, err := c.DeclineInvite(context.Background(), roomID, "x")
				return err
			},
			wantRoom: true,
		},
		{
			name: "room deleted",
			interfere: func(c *Coordinator, roomID string) error {
				return c.DeleteRoom(context.Background(), roomID, "owner")
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := &interleavingStore{memoryStore: newMemoryStore()}
			c := newTestCoordinator(t, store)
			registerUsers(t, c, "owner", "x")
			room, err := c.CreateRoom(ctx, "owner")
			if err != nil {
				t.Fatalf("create room: %v", err)
			}
			var hookErr error
			store.afterInvite = func(roomID string) { hookErr = tc.interfere(c, roomID) }

			if _, err := c.InviteUser(ctx, room.ID, "owner", "x"); err != nil {
				t.Fatalf("invite: %v", err)
			}
			if hookErr != nil {
				t.Fatalf("interleaved command: %v", hookErr)
			}

			user, err := c.GetUser(ctx, "x")
			if err != nil {
				t.Fatalf("get user: %v", err)
			}
			if user.Invites.Has(room.ID) {
				t.Fatalf("invites = %v, want %s scrubbed", user.Invites.Sorted(), room.ID)
			}
			_, err = store.GetRoom(ctx, room.ID)
			if tc.wantRoom && err != nil {
				t.Fatalf("get room: %v", err)
			}
			if !tc.wantRoom {
				if !errors.Is(err, storage.ErrNotFound) {
					t.Fatalf("expected room gone, got %v", err)
				}
				return
			}

			// A later delete finds nothing left pointing at the room.
			if err := c.DeleteRoom(ctx, room.ID, "owner"); err != nil {
				t.Fatalf("delete room: %v", err)
			}
			user, err = c.GetUser(ctx, "x")
			if err != nil {
				t.Fatalf("get user: %v", err)
			}
			if user.Invites.Len() != 0 {
				t.Fatalf("invites = %v after delete, want empty", user.Invites.Sorted())
			}
		})
	}
}

func TestCommandRejections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCoordinator(t, newMemoryStore())
	room := newRoomWithUsers(t, c, "owner", "dave")

	_, err := c.RequestJoin(ctx, room.ID, "ghost")
	assertCode(t, err, apperrors.CodeUserNotFound)

	_, err = c.RequestJoin(ctx, "missing", "dave")
	assertCode(t, err, apperrors.CodeRoomNotFound)

	_, err = c.RequestJoin(ctx, room.ID, "owner")
	assertCode(t, err, apperrors.CodeRoomSelfRequestDenied)

	_, err = c.InviteUser(ctx, room.ID, "dave", "owner")
	assertCode(t, err, apperrors.CodeRoomNotAuthorized)

	_, err = c.LeaveRoom(ctx, room.ID, "owner")
	assertCode(t, err, apperrors.CodeRoomCreatorCannotLeave)

	_, err = c.Promote(ctx, room.ID, "owner", "dave")
	assertCode(t, err, apperrors.CodeRoomNotAMember)

	_, err = c.CreateRoom(ctx, "ghost")
	assertCode(t, err, apperrors.CodeUserNotFound)
}

func TestPromotedAdminCanInvite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCoordinator(t, newMemoryStore())
	room := newRoomWithUsers(t, c, "owner", "erin", "frank")

	if _, err := c.InviteUser(ctx, room.ID, "owner", "erin"); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := c.AcceptInvite(ctx, room.ID, "erin"); err != nil {
		t.Fatalf("accept invite: %v", err)
	}
	if _, err := c.Promote(ctx, room.ID, "owner", "erin"); err != nil {
		t.Fatalf("promote: %v", err)
	}
	got, err := c.InviteUser(ctx, room.ID, "erin", "frank")
	if err != nil {
		t.Fatalf("admin invite: %v", err)
	}
	if !got.PendingInvites.Has("frank") {
		t.Fatalf("pending invites = %v, want frank", got.PendingInvites.Sorted())
	}

	got, err = c.Demote(ctx, room.ID, "owner", "erin")
	if err != nil {
		t.Fatalf("demote: %v", err)
	}
	if got.Admins.Has("erin") {
		t.Fatalf("admins = %v, want none", got.Admins.Sorted())
	}
	_, err = c.Promote(ctx, room.ID, "erin", "erin")
	assertCode(t, err, apperrors.CodeRoomNotAuthorized)
}

func TestConflictsAreRetried(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	c := newTestCoordinator(t, store)
	room := newRoomWithUsers(t, c, "owner", "gina")

	store.mu.Lock()
	store.roomConflicts = 3
	store.mu.Unlock()

	got, err := c.RequestJoin(ctx, room.ID, "gina")
	if err != nil {
		t.Fatalf("request join: %v", err)
	}
	if !got.PendingRequests.Has("gina") {
		t.Fatalf("pending requests = %v, want gina", got.PendingRequests.Sorted())
	}
}

func TestConflictExhaustion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	c := newTestCoordinator(t, store, WithConfig(Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}))
	room := newRoomWithUsers(t, c, "owner", "hank")

	store.mu.Lock()
	store.roomConflicts = 100
	store.mu.Unlock()

	_, err := c.RequestJoin(ctx, room.ID, "hank")
	assertCode(t, err, apperrors.CodeRoomTooManyConflicts)

	store.mu.Lock()
	remaining := store.roomConflicts
	store.mu.Unlock()
	if remaining != 97 {
		t.Fatalf("remaining conflicts = %d, want 97", remaining)
	}
}

func TestCanceledContextStopsRetries(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	c := newTestCoordinator(t, store)
	room := newRoomWithUsers(t, c, "owner", "iris")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.RequestJoin(ctx, room.ID, "iris"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDeleteRoomCascadesToTasksAndIndexes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	cache := newMemoryCache()
	c := newTestCoordinator(t, store, WithCache(cache))
	room := newRoomWithUsers(t, c, "owner", "jay")

	for i := 0; i < 5; i++ {
		if _, err := c.CreateTask(ctx, room.ID, "owner", fmt.Sprintf("task %d", i)); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	if _, err := c.InviteUser(ctx, room.ID, "owner", "jay"); err != nil {
		t.Fatalf("invite: %v", err)
	}

	assertCode(t, c.DeleteRoom(ctx, room.ID, "jay"), apperrors.CodeRoomNotAuthorized)

	if err := c.DeleteRoom(ctx, room.ID, "owner"); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	_, err := c.GetRoom(ctx, room.ID)
	assertCode(t, err, apperrors.CodeRoomNotFound)

	tasks, err := store.ListTasks(ctx, room.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("tasks = %d, want 0", len(tasks))
	}
	invitee, err := c.GetUser(ctx, "jay")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if invitee.Invites.Has(room.ID) {
		t.Fatalf("invites still contain %s", room.ID)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != room.ID {
		t.Fatalf("cache deletes = %v, want [%s]", cache.deleted, room.ID)
	}

	// The id is never handed out again.
	if _, err := store.CreateRoom(ctx, room); err == nil {
		t.Fatal("expected recreate of deleted room id to fail")
	}
}

func TestInterruptedCascadeIsResumedBySweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	c := newTestCoordinator(t, store)
	room := newRoomWithUsers(t, c, "owner", "kim")

	if _, err := c.CreateTask(ctx, room.ID, "owner", "pack bags"); err != nil {
		t.Fatalf("create task: %v", err)
	}
	store.mu.Lock()
	store.deleteRoomErr = errors.New("disk full")
	store.mu.Unlock()

	assertCode(t, c.DeleteRoom(ctx, room.ID, "owner"), apperrors.CodeRoomCascadeIncomplete)

	tombstoned, err := c.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if !tombstoned.PendingDeletion {
		t.Fatal("expected room to stay tombstoned")
	}
	_, err = c.RequestJoin(ctx, room.ID, "kim")
	assertCode(t, err, apperrors.CodeRoomDeleting)
	_, err = c.CreateTask(ctx, room.ID, "owner", "late")
	assertCode(t, err, apperrors.CodeRoomDeleting)

	n, err := NewSweeper(c, nil).SweepOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept = %d, want 1", n)
	}
	_, err = c.GetRoom(ctx, room.ID)
	assertCode(t, err, apperrors.CodeRoomNotFound)
}

func TestRepeatedDeleteResumesCascade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	c := newTestCoordinator(t, store)
	room := newRoomWithUsers(t, c, "owner")

	store.mu.Lock()
	store.deleteRoomErr = errors.New("disk full")
	store.mu.Unlock()

	assertCode(t, c.DeleteRoom(ctx, room.ID, "owner"), apperrors.CodeRoomCascadeIncomplete)
	if err := c.DeleteRoom(ctx, room.ID, "owner"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	_, err := c.GetRoom(ctx, room.ID)
	assertCode(t, err, apperrors.CodeRoomNotFound)

	assertCode(t, c.DeleteRoom(ctx, room.ID, "owner"), apperrors.CodeRoomNotFound)
}

func TestSweepEnqueuesWhenQueueConfigured(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	c := newTestCoordinator(t, store)
	room := newRoomWithUsers(t, c, "owner")

	store.mu.Lock()
	store.deleteRoomErr = errors.New("disk full")
	store.mu.Unlock()
	assertCode(t, c.DeleteRoom(ctx, room.ID, "owner"), apperrors.CodeRoomCascadeIncomplete)

	enqueuer := &recordingEnqueuer{}
	n, err := NewSweeper(c, enqueuer).SweepOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 || len(enqueuer.rooms) != 1 || enqueuer.rooms[0] != room.ID {
		t.Fatalf("enqueued = %v (n = %d), want [%s]", enqueuer.rooms, n, room.ID)
	}
	if _, err := c.GetRoom(ctx, room.ID); err != nil {
		t.Fatalf("room should remain until the worker runs: %v", err)
	}
	if err := c.ResumeCascade(ctx, room.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := c.ResumeCascade(ctx, room.ID); err != nil {
		t.Fatalf("resume on missing room: %v", err)
	}
}

func TestGetRoomServesCachedSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := newMemoryCache()
	c := newTestCoordinator(t, newMemoryStore(), WithCache(cache))
	room := newRoomWithUsers(t, c, "owner", "lee")

	if _, err := c.RequestJoin(ctx, room.ID, "lee"); err != nil {
		t.Fatalf("request join: %v", err)
	}
	cached, ok, _ := cache.GetRoom(ctx, room.ID)
	if !ok {
		t.Fatal("expected room in cache")
	}
	if cached.Version != 2 {
		t.Fatalf("cached version = %d, want 2", cached.Version)
	}
	got, err := c.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if !got.PendingRequests.Has("lee") {
		t.Fatalf("pending requests = %v, want lee", got.PendingRequests.Sorted())
	}
}

func TestTaskPermissions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	c := newTestCoordinator(t, store)
	room := newRoomWithUsers(t, c, "owner", "mia")

	_, err := c.CreateTask(ctx, room.ID, "mia", "not yet")
	assertCode(t, err, apperrors.CodeRoomNotAuthorized)

	_, err = c.CreateTask(ctx, room.ID, "owner", "  ")
	assertCode(t, err, apperrors.CodeTaskContentEmpty)

	task, err := c.CreateTask(ctx, room.ID, "owner", "plan trip")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.CreatedBy != "owner" || !task.CreatedAt.Equal(testNow) {
		t.Fatalf("task = %+v", task)
	}

	assertCode(t, c.DeleteTask(ctx, room.ID, "owner", "nope"), apperrors.CodeTaskNotFound)
	assertCode(t, c.DeleteTask(ctx, room.ID, "mia", task.ID), apperrors.CodeRoomNotAuthorized)
	if err := c.DeleteTask(ctx, room.ID, "owner", task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	assertCode(t, c.DeleteTask(ctx, room.ID, "owner", task.ID), apperrors.CodeTaskNotFound)
	// Existence comes from the delete itself, not from listing the room's tasks.
	if store.taskIDLists != 0 {
		t.Fatalf("task id lists = %d, want 0", store.taskIDLists)
	}
	tasks, err := c.ListTasks(ctx, room.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("tasks = %d, want 0", len(tasks))
	}
}
