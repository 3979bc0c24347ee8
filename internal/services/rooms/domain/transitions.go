package domain

import "strings"

// Action names the transition that was actually applied to a room.
type Action string

const (
	ActionRequestJoin   Action = "request_join"
	ActionInvite        Action = "invite"
	ActionAcceptRequest Action = "accept_request"
	ActionRejectRequest Action = "reject_request"
	ActionAcceptInvite  Action = "accept_invite"
	ActionDeclineInvite Action = "decline_invite"
	ActionPromote       Action = "promote"
	ActionDemote        Action = "demote"
	ActionLeave         Action = "leave"
	ActionDelete        Action = "delete"
)

// Outcome is the result of a transition.
//
// Room is the next state; Changed is false when the command was already
// satisfied. InviteAdded and InviteCleared name the user whose invite index
// must gain or lose the room id once the room write has committed.
type Outcome struct {
	Room          Room
	Changed       bool
	Resolved      Action
	InviteAdded   string
	InviteCleared string
}

func unchanged(room Room, action Action) Outcome {
	return Outcome{Room: room, Resolved: action}
}

func ensureOpen(room Room) error {
	if strings.TrimSpace(room.ID) == "" {
		return ErrEmptyRoomID
	}
	if room.PendingDeletion {
		return RoomDeleting(room.ID)
	}
	return nil
}

func requireID(id string, missing error) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", missing
	}
	return id, nil
}

// RequestJoin adds userID to the pending requests. A user that already holds
// an invite joins immediately.
func RequestJoin(room Room, userID string) (Outcome, error) {
	if err := ensureOpen(room); err != nil {
		return Outcome{}, err
	}
	userID, err := requireID(userID, ErrEmptyUserID)
	if err != nil {
		return Outcome{}, err
	}
	if userID == room.Creator {
		return Outcome{}, userError(ErrSelfRequestDenied, room.ID, userID)
	}
	if room.Members.Has(userID) {
		return Outcome{}, userError(ErrAlreadyMember, room.ID, userID)
	}
	if room.PendingInvites.Has(userID) {
		return AcceptInvite(room, userID)
	}
	next := room.Clone()
	if !next.PendingRequests.Add(userID) {
		return unchanged(room, ActionRequestJoin), nil
	}
	return Outcome{Room: next, Changed: true, Resolved: ActionRequestJoin}, nil
}

// Invite records a pending invite for targetID issued by a privileged actor.
// A target that already asked to join is accepted instead.
func Invite(room Room, actorID, targetID string) (Outcome, error) {
	if err := ensureOpen(room); err != nil {
		return Outcome{}, err
	}
	actorID, err := requireID(actorID, ErrEmptyActorID)
	if err != nil {
		return Outcome{}, err
	}
	targetID, err = requireID(targetID, ErrEmptyUserID)
	if err != nil {
		return Outcome{}, err
	}
	if !room.IsPrivileged(actorID) {
		return Outcome{}, userError(ErrNotAuthorized, room.ID, actorID)
	}
	if room.IsMember(targetID) {
		return Outcome{}, userError(ErrAlreadyMember, room.ID, targetID)
	}
	if room.PendingRequests.Has(targetID) {
		return AcceptRequest(room, actorID, targetID)
	}
	next := room.Clone()
	changed := next.PendingInvites.Add(targetID)
	out := Outcome{Room: next, Changed: changed, Resolved: ActionInvite, InviteAdded: targetID}
	if !changed {
		out.Room = room
	}
	return out, nil
}

// AcceptRequest moves a pending requester into the members.
func AcceptRequest(room Room, actorID, requesterID string) (Outcome, error) {
	return resolveRequest(room, actorID, requesterID, ActionAcceptRequest)
}

// RejectRequest drops a pending request.
func RejectRequest(room Room, actorID, requesterID string) (Outcome, error) {
	return resolveRequest(room, actorID, requesterID, ActionRejectRequest)
}

func resolveRequest(room Room, actorID, requesterID string, action Action) (Outcome, error) {
	if err := ensureOpen(room); err != nil {
		return Outcome{}, err
	}
	actorID, err := requireID(actorID, ErrEmptyActorID)
	if err != nil {
		return Outcome{}, err
	}
	requesterID, err = requireID(requesterID, ErrEmptyUserID)
	if err != nil {
		return Outcome{}, err
	}
	if !room.IsPrivileged(actorID) {
		return Outcome{}, userError(ErrNotAuthorized, room.ID, actorID)
	}
	if !room.PendingRequests.Has(requesterID) {
		return unchanged(room, action), userError(ErrRequestNotFound, room.ID, requesterID)
	}
	next := room.Clone()
	next.PendingRequests.Remove(requesterID)
	if action == ActionAcceptRequest {
		next.Members.Add(requesterID)
	}
	return Outcome{Room: next, Changed: true, Resolved: action}, nil
}

// AcceptInvite moves an invited user into the members.
func AcceptInvite(room Room, userID string) (Outcome, error) {
	return resolveInvite(room, userID, ActionAcceptInvite)
}

// DeclineInvite drops a pending invite.
func DeclineInvite(room Room, userID string) (Outcome, error) {
	return resolveInvite(room, userID, ActionDeclineInvite)
}

// resolveInvite always names the user in InviteCleared so a stale index entry
// is scrubbed even when the invite is already gone.
func resolveInvite(room Room, userID string, action Action) (Outcome, error) {
	if err := ensureOpen(room); err != nil {
		return Outcome{}, err
	}
	userID, err := requireID(userID, ErrEmptyUserID)
	if err != nil {
		return Outcome{}, err
	}
	if !room.PendingInvites.Has(userID) {
		out := unchanged(room, action)
		out.InviteCleared = userID
		return out, userError(ErrInviteNotFound, room.ID, userID)
	}
	next := room.Clone()
	next.PendingInvites.Remove(userID)
	if action == ActionAcceptInvite {
		next.Members.Add(userID)
	}
	return Outcome{Room: next, Changed: true, Resolved: action, InviteCleared: userID}, nil
}

// Promote grants admin rights to a member. Only the creator may promote.
func Promote(room Room, actorID, targetID string) (Outcome, error) {
	return changeRole(room, actorID, targetID, ActionPromote)
}

// Demote revokes admin rights. Only the creator may demote.
func Demote(room Room, actorID, targetID string) (Outcome, error) {
	return changeRole(room, actorID, targetID, ActionDemote)
}

func changeRole(room Room, actorID, targetID string, action Action) (Outcome, error) {
	if err := ensureOpen(room); err != nil {
		return Outcome{}, err
	}
	actorID, err := requireID(actorID, ErrEmptyActorID)
	if err != nil {
		return Outcome{}, err
	}
	targetID, err = requireID(targetID, ErrEmptyUserID)
	if err != nil {
		return Outcome{}, err
	}
	if actorID != room.Creator {
		return Outcome{}, userError(ErrNotAuthorized, room.ID, actorID)
	}
	if targetID == room.Creator {
		return Outcome{}, userError(ErrCreatorRoleFixed, room.ID, targetID)
	}
	if !room.Members.Has(targetID) {
		return Outcome{}, userError(ErrNotAMember, room.ID, targetID)
	}
	next := room.Clone()
	var changed bool
	if action == ActionPromote {
		changed = next.Admins.Add(targetID)
	} else {
		changed = next.Admins.Remove(targetID)
	}
	if !changed {
		return unchanged(room, action), nil
	}
	return Outcome{Room: next, Changed: true, Resolved: action}, nil
}

// Leave removes a member and any admin rights they held.
func Leave(room Room, userID string) (Outcome, error) {
	if err := ensureOpen(room); err != nil {
		return Outcome{}, err
	}
	userID, err := requireID(userID, ErrEmptyUserID)
	if err != nil {
		return Outcome{}, err
	}
	if userID == room.Creator {
		return Outcome{}, userError(ErrCreatorCannotLeave, room.ID, userID)
	}
	if !room.Members.Has(userID) {
		return Outcome{}, userError(ErrNotAMember, room.ID, userID)
	}
	next := room.Clone()
	next.Members.Remove(userID)
	next.Admins.Remove(userID)
	return Outcome{Room: next, Changed: true, Resolved: ActionLeave}, nil
}

// MarkDeleting tombstones the room. Marking an already tombstoned room is a
// no-op so an interrupted cascade can resume.
func MarkDeleting(room Room, actorID string) (Outcome, error) {
	if strings.TrimSpace(room.ID) == "" {
		return Outcome{}, ErrEmptyRoomID
	}
	actorID, err := requireID(actorID, ErrEmptyActorID)
	if err != nil {
		return Outcome{}, err
	}
	if actorID != room.Creator {
		return Outcome{}, userError(ErrNotAuthorized, room.ID, actorID)
	}
	if room.PendingDeletion {
		return unchanged(room, ActionDelete), nil
	}
	next := room.Clone()
	next.PendingDeletion = true
	return Outcome{Room: next, Changed: true, Resolved: ActionDelete}, nil
}

// CanManageTasks reports whether userID may add or remove tasks in the room.
func CanManageTasks(room Room, userID string) error {
	if err := ensureOpen(room); err != nil {
		return err
	}
	if !room.IsMember(strings.TrimSpace(userID)) {
		return userError(ErrNotAuthorized, room.ID, userID)
	}
	return nil
}
