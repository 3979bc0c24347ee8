package domain

import (
	"strings"
	"time"
)

// User is the local registry entry for an identity. It indexes the rooms the
// user owns and the rooms that have a pending invite for them.
type User struct {
	ID         string
	Invites    Set
	OwnedRooms Set
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
}

// NewUser returns an empty user record.
func NewUser(id string, now time.Time) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrEmptyUserID
	}
	now = now.UTC()
	return User{
		ID:         id,
		Invites:    NewSet(),
		OwnedRooms: NewSet(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Clone returns a deep copy.
func (u User) Clone() User {
	out := u
	out.Invites = u.Invites.Clone()
	out.OwnedRooms = u.OwnedRooms.Clone()
	return out
}
