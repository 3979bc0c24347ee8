package domain

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	apperrors "github.com/hyamero/trackAsOne/internal/platform/errors"
)

var testNow = time.Date(2026, time.February, 22, 10, 0, 0, 0, time.UTC)

func newTestRoom(t *testing.T) Room {
	t.Helper()
	room, err := NewRoom("room-1", "alice", testNow)
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	return room
}

// mustFor returns a helper that fails the test unless a transition succeeded
// and left the room valid.
func mustFor(t *testing.T) func(Outcome, error) Room {
	return func(out Outcome, err error) Room {
		t.Helper()
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if verr := out.Room.Validate(); verr != nil {
			t.Fatalf("validate: %v", verr)
		}
		return out.Room
	}
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if got := apperrors.GetCode(err); got != want {
		t.Fatalf("code = %v, want %v (err=%v)", got, want, err)
	}
}

func TestRequestJoinAddsPendingRequest(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := newTestRoom(t)
	out, err := RequestJoin(room, " bob ")
	next := must(out, err)
	if !out.Changed || out.Resolved != ActionRequestJoin {
		t.Fatalf("outcome = %+v, want changed request_join", out)
	}
	if !next.PendingRequests.Has("bob") {
		t.Fatal("expected bob in pending requests")
	}
	if room.PendingRequests.Has("bob") {
		t.Fatal("input room was mutated")
	}

	again, err := RequestJoin(next, "bob")
	must(again, err)
	if again.Changed {
		t.Fatal("expected repeated request to be a no-op")
	}
}

func TestRequestJoinWithPendingInviteJoins(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := newTestRoom(t)
	room = must(Invite(room, "alice", "bob"))
	out, err := RequestJoin(room, "bob")
	next := must(out, err)
	if out.Resolved != ActionAcceptInvite {
		t.Fatalf("resolved = %s, want %s", out.Resolved, ActionAcceptInvite)
	}
	if !next.Members.Has("bob") || next.PendingInvites.Has("bob") || next.PendingRequests.Has("bob") {
		t.Fatalf("unexpected sets: members=%v invites=%v requests=%v", next.Members.Sorted(), next.PendingInvites.Sorted(), next.PendingRequests.Sorted())
	}
	if out.InviteCleared != "bob" {
		t.Fatalf("invite cleared = %q, want bob", out.InviteCleared)
	}
}

func TestRequestJoinRejections(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	base := newTestRoom(t)
	member := must(Invite(base, "alice", "bob"))
	member = must(AcceptInvite(member, "bob"))
	deleting := must(MarkDeleting(base, "alice"))

	tests := []struct {
		name string
		room Room
		user string
		want apperrors.Code
	}{
		{name: "creator", room: base, user: "alice", want: apperrors.CodeRoomSelfRequestDenied},
		{name: "member", room: member, user: "bob", want: apperrors.CodeRoomAlreadyMember},
		{name: "empty user", room: base, user: "  ", want: apperrors.CodeUserIDRequired},
		{name: "deleting", room: deleting, user: "carol", want: apperrors.CodeRoomDeleting},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RequestJoin(tc.room, tc.user)
			assertCode(t, err, tc.want)
		})
	}
}

func TestInviteRecordsPendingInvite(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	out, err := Invite(newTestRoom(t), "alice", "bob")
	next := must(out, err)
	if !next.PendingInvites.Has("bob") {
		t.Fatal("expected bob in pending invites")
	}
	if out.InviteAdded != "bob" {
		t.Fatalf("invite added = %q, want bob", out.InviteAdded)
	}

	again, err := Invite(next, "alice", "bob")
	must(again, err)
	if again.Changed {
		t.Fatal("expected repeated invite to leave the room unchanged")
	}
	if again.InviteAdded != "bob" {
		t.Fatal("expected repeated invite to still repair the user index")
	}
}

func TestInviteWithPendingRequestAccepts(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := must(RequestJoin(newTestRoom(t), "bob"))
	out, err := Invite(room, "alice", "bob")
	next := must(out, err)
	if out.Resolved != ActionAcceptRequest {
		t.Fatalf("resolved = %s, want %s", out.Resolved, ActionAcceptRequest)
	}
	if !next.Members.Has("bob") || next.PendingRequests.Has("bob") || next.PendingInvites.Has("bob") {
		t.Fatal("expected bob to be a plain member")
	}
	if out.InviteAdded != "" {
		t.Fatalf("invite added = %q, want empty", out.InviteAdded)
	}
}

func TestInviteRejections(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := must(Invite(newTestRoom(t), "alice", "bob"))
	room = must(AcceptInvite(room, "bob"))

	tests := []struct {
		name   string
		actor  string
		target string
		want   apperrors.Code
	}{
		{name: "plain member actor", actor: "bob", target: "carol", want: apperrors.CodeRoomNotAuthorized},
		{name: "stranger actor", actor: "mallory", target: "carol", want: apperrors.CodeRoomNotAuthorized},
		{name: "member target", actor: "alice", target: "bob", want: apperrors.CodeRoomAlreadyMember},
		{name: "creator target", actor: "alice", target: "alice", want: apperrors.CodeRoomAlreadyMember},
		{name: "empty actor", actor: "", target: "carol", want: apperrors.CodeActorIDRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Invite(room, tc.actor, tc.target)
			assertCode(t, err, tc.want)
		})
	}
}

func TestAdminCanInvite(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := must(Invite(newTestRoom(t), "alice", "bob"))
	room = must(AcceptInvite(room, "bob"))
	room = must(Promote(room, "alice", "bob"))
	next := must(Invite(room, "bob", "carol"))
	if !next.PendingInvites.Has("carol") {
		t.Fatal("expected admin invite to be recorded")
	}
}

func TestResolveRequestMissingIsBenign(t *testing.T) {
	t.Parallel()

	room := newTestRoom(t)
	for _, fn := range []func(Room, string, string) (Outcome, error){AcceptRequest, RejectRequest} {
		out, err := fn(room, "alice", "bob")
		if !errors.Is(err, ErrRequestNotFound) {
			t.Fatalf("err = %v, want request not found", err)
		}
		if !apperrors.GetCode(err).Benign() {
			t.Fatal("expected benign code")
		}
		if out.Changed || out.Room.ID != room.ID {
			t.Fatalf("outcome = %+v, want current room unchanged", out)
		}
	}
}

func TestRejectRequestRemovesRequester(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := must(RequestJoin(newTestRoom(t), "bob"))
	next := must(RejectRequest(room, "alice", "bob"))
	if next.PendingRequests.Has("bob") || next.Members.Has("bob") {
		t.Fatal("expected bob removed without joining")
	}
}

func TestDeclineInviteMissingStillClearsIndex(t *testing.T) {
	t.Parallel()

	out, err := DeclineInvite(newTestRoom(t), "bob")
	assertCode(t, err, apperrors.CodeRoomInviteNotFound)
	if out.InviteCleared != "bob" {
		t.Fatalf("invite cleared = %q, want bob", out.InviteCleared)
	}
	if out.Room.ID != "room-1" {
		t.Fatal("expected current room with benign error")
	}
}

func TestPromoteDemote(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := must(RequestJoin(newTestRoom(t), "bob"))
	room = must(AcceptRequest(room, "alice", "bob"))

	promoted := must(Promote(room, "alice", "bob"))
	if !promoted.Admins.Has("bob") {
		t.Fatal("expected bob to be admin")
	}
	again, err := Promote(promoted, "alice", "bob")
	must(again, err)
	if again.Changed {
		t.Fatal("expected second promote to be a no-op")
	}

	_, err = Promote(promoted, "bob", "bob")
	assertCode(t, err, apperrors.CodeRoomNotAuthorized)
	_, err = Promote(promoted, "alice", "alice")
	assertCode(t, err, apperrors.CodeRoomCreatorRoleFixed)
	_, err = Promote(promoted, "alice", "carol")
	assertCode(t, err, apperrors.CodeRoomNotAMember)

	demoted := must(Demote(promoted, "alice", "bob"))
	if demoted.Admins.Has("bob") || !demoted.Members.Has("bob") {
		t.Fatal("expected bob to remain a plain member")
	}
}

func TestLeave(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := must(RequestJoin(newTestRoom(t), "bob"))
	room = must(AcceptRequest(room, "alice", "bob"))
	room = must(Promote(room, "alice", "bob"))

	left := must(Leave(room, "bob"))
	if left.Members.Has("bob") || left.Admins.Has("bob") {
		t.Fatal("expected bob removed from members and admins")
	}

	_, err := Leave(room, "alice")
	assertCode(t, err, apperrors.CodeRoomCreatorCannotLeave)
	_, err = Leave(left, "bob")
	assertCode(t, err, apperrors.CodeRoomNotAMember)
}

func TestMarkDeleting(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := newTestRoom(t)
	_, err := MarkDeleting(room, "bob")
	assertCode(t, err, apperrors.CodeRoomNotAuthorized)

	out, err := MarkDeleting(room, "alice")
	next := must(out, err)
	if !out.Changed || !next.PendingDeletion {
		t.Fatal("expected room to be tombstoned")
	}

	resumed, err := MarkDeleting(next, "alice")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Changed {
		t.Fatal("expected resume to be a no-op")
	}

	_, err = Promote(next, "alice", "bob")
	assertCode(t, err, apperrors.CodeRoomDeleting)
}

func TestCanManageTasks(t *testing.T) {
	t.Parallel()
	must := mustFor(t)

	room := must(RequestJoin(newTestRoom(t), "bob"))
	if err := CanManageTasks(room, "alice"); err != nil {
		t.Fatalf("creator: %v", err)
	}
	assertCode(t, CanManageTasks(room, "bob"), apperrors.CodeRoomNotAuthorized)
	room = must(AcceptRequest(room, "alice", "bob"))
	if err := CanManageTasks(room, "bob"); err != nil {
		t.Fatalf("member: %v", err)
	}
}

// Interleavings of independent commands must keep every invariant.
func TestTransitionSequencesPreserveInvariants(t *testing.T) {
	t.Parallel()

	type step func(Room) (Outcome, error)
	steps := []step{
		func(r Room) (Outcome, error) { return RequestJoin(r, "bob") },
		func(r Room) (Outcome, error) { return Invite(r, "alice", "bob") },
		func(r Room) (Outcome, error) { return Invite(r, "alice", "carol") },
		func(r Room) (Outcome, error) { return RequestJoin(r, "carol") },
		func(r Room) (Outcome, error) { return Promote(r, "alice", "bob") },
		func(r Room) (Outcome, error) { return Invite(r, "bob", "dave") },
		func(r Room) (Outcome, error) { return DeclineInvite(r, "dave") },
		func(r Room) (Outcome, error) { return RequestJoin(r, "dave") },
		func(r Room) (Outcome, error) { return RejectRequest(r, "bob", "dave") },
		func(r Room) (Outcome, error) { return Leave(r, "bob") },
		func(r Room) (Outcome, error) { return AcceptInvite(r, "bob") },
	}
	room := newTestRoom(t)
	for i, s := range steps {
		out, err := s(room)
		if err != nil {
			if apperrors.GetCode(err).Benign() {
				continue
			}
			t.Fatalf("step %d: %v", i, err)
		}
		if verr := out.Room.Validate(); verr != nil {
			t.Fatalf("step %d validate: %v", i, verr)
		}
		room = out.Room
	}
	if !room.Members.Equal(NewSet("carol")) {
		t.Fatalf("members = %v, want [carol]", room.Members.Sorted())
	}
	if room.Admins.Len() != 0 || room.PendingRequests.Len() != 0 || room.PendingInvites.Len() != 0 {
		t.Fatalf("unexpected leftovers: admins=%v requests=%v invites=%v", room.Admins.Sorted(), room.PendingRequests.Sorted(), room.PendingInvites.Sorted())
	}
}

// Random command streams over a small user pool must never produce an
// invalid room, and a rejected command must leave its input untouched.
func TestRandomTransitionSequencesPreserveInvariants(t *testing.T) {
	t.Parallel()

	users := []string{"alice", "bob", "carol", "dave", "erin"}
	type command struct {
		name string
		run  func(r Room, actor, target string) (Outcome, error)
	}
	commands := []command{
		{"request_join", func(r Room, _, target string) (Outcome, error) { return RequestJoin(r, target) }},
		{"invite", func(r Room, actor, target string) (Outcome, error) { return Invite(r, actor, target) }},
		{"accept_request", func(r Room, actor, target string) (Outcome, error) { return AcceptRequest(r, actor, target) }},
		{"reject_request", func(r Room, actor, target string) (Outcome, error) { return RejectRequest(r, actor, target) }},
		{"accept_invite", func(r Room, _, target string) (Outcome, error) { return AcceptInvite(r, target) }},
		{"decline_invite", func(r Room, _, target string) (Outcome, error) { return DeclineInvite(r, target) }},
		{"promote", func(r Room, actor, target string) (Outcome, error) { return Promote(r, actor, target) }},
		{"demote", func(r Room, actor, target string) (Outcome, error) { return Demote(r, actor, target) }},
		{"leave", func(r Room, _, target string) (Outcome, error) { return Leave(r, target) }},
	}

	for _, seed := range []int64{1, 7, 42, 1337, 20260222} {
		rng := rand.New(rand.NewSource(seed))
		room := newTestRoom(t)
		applied := 0
		for i := 0; i < 3000; i++ {
			cmd := commands[rng.Intn(len(commands))]
			actor := users[rng.Intn(len(users))]
			target := users[rng.Intn(len(users))]
			before := room.Clone()

			out, err := cmd.run(room, actor, target)
			if err != nil {
				if apperrors.IsCode(err, apperrors.CodeRoomInvariantViolated) {
					t.Fatalf("seed %d step %d %s(%s, %s): %v", seed, i, cmd.name, actor, target, err)
				}
				if !sameRoom(room, before) {
					t.Fatalf("seed %d step %d %s(%s, %s) mutated its input on rejection", seed, i, cmd.name, actor, target)
				}
				if !apperrors.GetCode(err).Benign() {
					continue
				}
			}
			if verr := out.Room.Validate(); verr != nil {
				t.Fatalf("seed %d step %d %s(%s, %s): %v", seed, i, cmd.name, actor, target, verr)
			}
			if out.Room.Creator != "alice" {
				t.Fatalf("seed %d step %d: creator changed to %q", seed, i, out.Room.Creator)
			}
			if out.Changed {
				applied++
			}
			room = out.Room
		}
		if applied == 0 {
			t.Fatalf("seed %d: no command changed the room", seed)
		}
	}
}

func sameRoom(a, b Room) bool {
	return a.ID == b.ID &&
		a.Creator == b.Creator &&
		a.PendingDeletion == b.PendingDeletion &&
		a.Admins.Equal(b.Admins) &&
		a.Members.Equal(b.Members) &&
		a.PendingRequests.Equal(b.PendingRequests) &&
		a.PendingInvites.Equal(b.PendingInvites)
}
