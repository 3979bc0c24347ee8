// Package errors provides structured error handling with i18n support.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"
	// CodeInternal represents an unexpected storage or runtime failure.
	CodeInternal Code = "INTERNAL"

	// Input errors
	CodeRoomIDRequired  Code = "ROOM_ID_REQUIRED"
	CodeUserIDRequired  Code = "USER_ID_REQUIRED"
	CodeActorIDRequired Code = "ACTOR_ID_REQUIRED"
	CodeTaskIDRequired  Code = "TASK_ID_REQUIRED"
	CodeInvalidRequest  Code = "INVALID_REQUEST"

	// Room errors
	CodeRoomNotFound           Code = "ROOM_NOT_FOUND"
	CodeRoomDeleting           Code = "ROOM_DELETING"
	CodeRoomNotAuthorized      Code = "ROOM_NOT_AUTHORIZED"
	CodeRoomAlreadyMember      Code = "ROOM_ALREADY_MEMBER"
	CodeRoomSelfRequestDenied  Code = "ROOM_SELF_REQUEST_DENIED"
	CodeRoomNotAMember         Code = "ROOM_NOT_A_MEMBER"
	CodeRoomCreatorCannotLeave Code = "ROOM_CREATOR_CANNOT_LEAVE"
	CodeRoomCreatorRoleFixed   Code = "ROOM_CREATOR_ROLE_FIXED"
	CodeRoomRequestNotFound    Code = "ROOM_REQUEST_NOT_FOUND"
	CodeRoomInviteNotFound     Code = "ROOM_INVITE_NOT_FOUND"
	CodeRoomTooManyConflicts   Code = "ROOM_TOO_MANY_CONFLICTS"
	CodeRoomCascadeIncomplete  Code = "ROOM_CASCADE_INCOMPLETE"
	CodeRoomInvariantViolated  Code = "ROOM_INVARIANT_VIOLATED"

	// User errors
	CodeUserNotFound Code = "USER_NOT_FOUND"

	// Task errors
	CodeTaskNotFound     Code = "TASK_NOT_FOUND"
	CodeTaskContentEmpty Code = "TASK_CONTENT_EMPTY"
)

// Benign reports whether the code describes a race that was already resolved
// by a concurrent writer. Callers receive the current state alongside it.
func (c Code) Benign() bool {
	switch c {
	case CodeRoomRequestNotFound, CodeRoomInviteNotFound:
		return true
	default:
		return false
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidRequest,
		CodeRoomIDRequired,
		CodeUserIDRequired,
		CodeActorIDRequired,
		CodeTaskIDRequired,
		CodeTaskContentEmpty:
		return codes.InvalidArgument

	// NotFound
	case CodeRoomNotFound,
		CodeUserNotFound,
		CodeTaskNotFound,
		CodeRoomRequestNotFound,
		CodeRoomInviteNotFound:
		return codes.NotFound

	// PermissionDenied
	case CodeRoomNotAuthorized:
		return codes.PermissionDenied

	// FailedPrecondition - state doesn't allow operation
	case CodeRoomDeleting,
		CodeRoomAlreadyMember,
		CodeRoomSelfRequestDenied,
		CodeRoomNotAMember,
		CodeRoomCreatorCannotLeave,
		CodeRoomCreatorRoleFixed:
		return codes.FailedPrecondition

	// Aborted - concurrency exhaustion, caller may retry the whole command
	case CodeRoomTooManyConflicts,
		CodeRoomCascadeIncomplete:
		return codes.Aborted

	case CodeRoomInvariantViolated, CodeInternal:
		return codes.Internal

	default:
		return codes.Unknown
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
