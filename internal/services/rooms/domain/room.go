package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/hyamero/trackAsOne/internal/platform/errors"
)

// Room is the authoritative membership state of one room.
//
// The creator is implicitly a member and is never stored in Members or
// Admins. Version increases by one on every persisted write.
type Room struct {
	ID              string
	Creator         string
	Admins          Set
	Members         Set
	PendingRequests Set
	PendingInvites  Set
	PendingDeletion bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// NewRoom returns an empty room owned by creator.
func NewRoom(id, creator string, now time.Time) (Room, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Room{}, ErrEmptyRoomID
	}
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return Room{}, ErrEmptyUserID
	}
	now = now.UTC()
	return Room{
		ID:              id,
		Creator:         creator,
		Admins:          NewSet(),
		Members:         NewSet(),
		PendingRequests: NewSet(),
		PendingInvites:  NewSet(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Clone returns a deep copy so transitions never alias stored sets.
func (r Room) Clone() Room {
	out := r
	out.Admins = r.Admins.Clone()
	out.Members = r.Members.Clone()
	out.PendingRequests = r.PendingRequests.Clone()
	out.PendingInvites = r.PendingInvites.Clone()
	return out
}

// IsPrivileged reports whether userID may manage requests and invites.
func (r Room) IsPrivileged(userID string) bool {
	return userID != "" && (userID == r.Creator || r.Admins.Has(userID))
}

// IsMember reports whether userID belongs to the room, creator included.
func (r Room) IsMember(userID string) bool {
	return userID != "" && (userID == r.Creator || r.Members.Has(userID))
}

// Participants returns every user id the room references, creator first.
func (r Room) Participants() []string {
	all := NewSet()
	for _, s := range []Set{r.Members, r.PendingRequests, r.PendingInvites} {
		for id := range s {
			all.Add(id)
		}
	}
	all.Remove(r.Creator)
	return append([]string{r.Creator}, all.Sorted()...)
}

// Validate checks the membership invariants that must hold after every
// transition.
func (r Room) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyRoomID
	}
	if strings.TrimSpace(r.Creator) == "" {
		return invariantError(r.ID, "creator is empty")
	}
	switch {
	case r.PendingRequests.Has(r.Creator):
		return invariantError(r.ID, "creator has a pending request")
	case r.PendingInvites.Has(r.Creator):
		return invariantError(r.ID, "creator has a pending invite")
	case r.Members.Has(r.Creator):
		return invariantError(r.ID, "creator is stored as a member")
	case r.Admins.Has(r.Creator):
		return invariantError(r.ID, "creator is stored as an admin")
	case r.Members.Intersects(r.PendingRequests):
		return invariantError(r.ID, "member has a pending request")
	case r.Members.Intersects(r.PendingInvites):
		return invariantError(r.ID, "member has a pending invite")
	case r.PendingRequests.Intersects(r.PendingInvites):
		return invariantError(r.ID, "user is both requested and invited")
	}
	for id := range r.Admins {
		if !r.Members.Has(id) {
			return invariantError(r.ID, fmt.Sprintf("admin %s is not a member", id))
		}
	}
	return nil
}

func invariantError(roomID, detail string) error {
	return apperrors.Wrap(ErrInvariantViolated.Code, ErrInvariantViolated.Message, fmt.Errorf("room %s: %s", roomID, detail))
}
