package domain

import apperrors "github.com/hyamero/trackAsOne/internal/platform/errors"

var (
	// ErrEmptyRoomID indicates a missing room id.
	ErrEmptyRoomID = apperrors.New(apperrors.CodeRoomIDRequired, "room id is required")
	// ErrEmptyUserID indicates a missing user id.
	ErrEmptyUserID = apperrors.New(apperrors.CodeUserIDRequired, "user id is required")
	// ErrEmptyActorID indicates a missing acting user id.
	ErrEmptyActorID = apperrors.New(apperrors.CodeActorIDRequired, "actor id is required")
	// ErrEmptyTaskID indicates a missing task id.
	ErrEmptyTaskID = apperrors.New(apperrors.CodeTaskIDRequired, "task id is required")
	// ErrEmptyTaskContent indicates a task without content.
	ErrEmptyTaskContent = apperrors.New(apperrors.CodeTaskContentEmpty, "task content is required")

	// ErrRoomNotFound indicates the room does not exist.
	ErrRoomNotFound = apperrors.New(apperrors.CodeRoomNotFound, "room not found")
	// ErrRoomDeleting indicates the room is tombstoned and rejects mutations.
	ErrRoomDeleting = apperrors.New(apperrors.CodeRoomDeleting, "room is being deleted")
	// ErrNotAuthorized indicates the actor lacks the privilege for the command.
	ErrNotAuthorized = apperrors.New(apperrors.CodeRoomNotAuthorized, "actor is not authorized")
	// ErrAlreadyMember indicates the user already belongs to the room.
	ErrAlreadyMember = apperrors.New(apperrors.CodeRoomAlreadyMember, "user is already a member")
	// ErrSelfRequestDenied indicates the creator asked to join their own room.
	ErrSelfRequestDenied = apperrors.New(apperrors.CodeRoomSelfRequestDenied, "creator cannot request to join")
	// ErrNotAMember indicates the user is not a member of the room.
	ErrNotAMember = apperrors.New(apperrors.CodeRoomNotAMember, "user is not a member")
	// ErrCreatorCannotLeave indicates the creator tried to leave.
	ErrCreatorCannotLeave = apperrors.New(apperrors.CodeRoomCreatorCannotLeave, "creator cannot leave the room")
	// ErrCreatorRoleFixed indicates an attempt to promote or demote the creator.
	ErrCreatorRoleFixed = apperrors.New(apperrors.CodeRoomCreatorRoleFixed, "creator role cannot change")
	// ErrRequestNotFound indicates there is no pending request to resolve.
	ErrRequestNotFound = apperrors.New(apperrors.CodeRoomRequestNotFound, "join request not found")
	// ErrInviteNotFound indicates there is no pending invite to resolve.
	ErrInviteNotFound = apperrors.New(apperrors.CodeRoomInviteNotFound, "invite not found")
	// ErrInvariantViolated indicates a room state that breaks membership invariants.
	ErrInvariantViolated = apperrors.New(apperrors.CodeRoomInvariantViolated, "room invariant violated")

	// ErrUserNotFound indicates a referenced user does not resolve.
	ErrUserNotFound = apperrors.New(apperrors.CodeUserNotFound, "user not found")
	// ErrTaskNotFound indicates the task does not exist in the room.
	ErrTaskNotFound = apperrors.New(apperrors.CodeTaskNotFound, "task not found")
)

func roomError(base *apperrors.Error, roomID string) *apperrors.Error {
	return apperrors.WithMetadata(base.Code, base.Message, map[string]string{"RoomID": roomID})
}

func userError(base *apperrors.Error, roomID, userID string) *apperrors.Error {
	return apperrors.WithMetadata(base.Code, base.Message, map[string]string{"RoomID": roomID, "UserID": userID})
}

// RoomNotFound returns ErrRoomNotFound annotated with the room id.
func RoomNotFound(roomID string) error {
	return roomError(ErrRoomNotFound, roomID)
}

// RoomDeleting returns ErrRoomDeleting annotated with the room id.
func RoomDeleting(roomID string) error {
	return roomError(ErrRoomDeleting, roomID)
}

// UserNotFound returns ErrUserNotFound annotated with the user id.
func UserNotFound(userID string) error {
	return apperrors.WithMetadata(ErrUserNotFound.Code, ErrUserNotFound.Message, map[string]string{"UserID": userID})
}

// TaskNotFound returns ErrTaskNotFound annotated with the task id.
func TaskNotFound(roomID, taskID string) error {
	return apperrors.WithMetadata(ErrTaskNotFound.Code, ErrTaskNotFound.Message, map[string]string{"RoomID": roomID, "TaskID": taskID})
}
