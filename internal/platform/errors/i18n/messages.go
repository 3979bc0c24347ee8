package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeInternal               = "INTERNAL"
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeRoomIDRequired         = "ROOM_ID_REQUIRED"
	CodeUserIDRequired         = "USER_ID_REQUIRED"
	CodeActorIDRequired        = "ACTOR_ID_REQUIRED"
	CodeTaskIDRequired         = "TASK_ID_REQUIRED"
	CodeRoomNotFound           = "ROOM_NOT_FOUND"
	CodeRoomDeleting           = "ROOM_DELETING"
	CodeRoomNotAuthorized      = "ROOM_NOT_AUTHORIZED"
	CodeRoomAlreadyMember      = "ROOM_ALREADY_MEMBER"
	CodeRoomSelfRequestDenied  = "ROOM_SELF_REQUEST_DENIED"
	CodeRoomNotAMember         = "ROOM_NOT_A_MEMBER"
	CodeRoomCreatorCannotLeave = "ROOM_CREATOR_CANNOT_LEAVE"
	CodeRoomCreatorRoleFixed   = "ROOM_CREATOR_ROLE_FIXED"
	CodeRoomRequestNotFound    = "ROOM_REQUEST_NOT_FOUND"
	CodeRoomInviteNotFound     = "ROOM_INVITE_NOT_FOUND"
	CodeRoomTooManyConflicts   = "ROOM_TOO_MANY_CONFLICTS"
	CodeRoomCascadeIncomplete  = "ROOM_CASCADE_INCOMPLETE"
	CodeRoomInvariantViolated  = "ROOM_INVARIANT_VIOLATED"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeTaskNotFound           = "TASK_NOT_FOUND"
	CodeTaskContentEmpty       = "TASK_CONTENT_EMPTY"
)

var enUSMessages = map[Code]string{
	CodeInternal:               "An unexpected error occurred",
	CodeInvalidRequest:         "The request body could not be read",
	CodeRoomIDRequired:         "Room ID is required",
	CodeUserIDRequired:         "User ID is required",
	CodeActorIDRequired:        "Acting user ID is required",
	CodeTaskIDRequired:         "Task ID is required",
	CodeRoomNotFound:           "Room {{.RoomID}} does not exist",
	CodeRoomDeleting:           "Room {{.RoomID}} is being deleted",
	CodeRoomNotAuthorized:      "You are not allowed to do that in this room",
	CodeRoomAlreadyMember:      "{{.UserID}} is already a member of this room",
	CodeRoomSelfRequestDenied:  "You are the owner of this room",
	CodeRoomNotAMember:         "{{.UserID}} is not a member of this room",
	CodeRoomCreatorCannotLeave: "The room creator cannot leave; delete the room instead",
	CodeRoomCreatorRoleFixed:   "The room creator's role cannot be changed",
	CodeRoomRequestNotFound:    "There is no pending request from {{.UserID}}",
	CodeRoomInviteNotFound:     "There is no pending invite for {{.UserID}}",
	CodeRoomTooManyConflicts:   "The room is busy, please try again",
	CodeRoomCascadeIncomplete:  "Room deletion is still in progress",
	CodeRoomInvariantViolated:  "The room is in an inconsistent state",
	CodeUserNotFound:           "User {{.UserID}} does not exist",
	CodeTaskNotFound:           "Task {{.TaskID}} does not exist",
	CodeTaskContentEmpty:       "Task content cannot be empty",
}

var ptBRMessages = map[Code]string{
	CodeInternal:               "Ocorreu um erro inesperado",
	CodeInvalidRequest:         "Não foi possível ler o corpo da requisição",
	CodeRoomIDRequired:         "O ID da sala é obrigatório",
	CodeUserIDRequired:         "O ID do usuário é obrigatório",
	CodeActorIDRequired:        "O ID do usuário responsável é obrigatório",
	CodeTaskIDRequired:         "O ID da tarefa é obrigatório",
	CodeRoomNotFound:           "A sala {{.RoomID}} não existe",
	CodeRoomDeleting:           "A sala {{.RoomID}} está sendo excluída",
	CodeRoomNotAuthorized:      "Você não tem permissão para isso nesta sala",
	CodeRoomAlreadyMember:      "{{.UserID}} já é membro desta sala",
	CodeRoomSelfRequestDenied:  "Você é o dono desta sala",
	CodeRoomNotAMember:         "{{.UserID}} não é membro desta sala",
	CodeRoomCreatorCannotLeave: "O criador da sala não pode sair; exclua a sala",
	CodeRoomCreatorRoleFixed:   "O papel do criador da sala não pode ser alterado",
	CodeRoomRequestNotFound:    "Não há pedido pendente de {{.UserID}}",
	CodeRoomInviteNotFound:     "Não há convite pendente para {{.UserID}}",
	CodeRoomTooManyConflicts:   "A sala está ocupada, tente novamente",
	CodeRoomCascadeIncomplete:  "A exclusão da sala ainda está em andamento",
	CodeRoomInvariantViolated:  "A sala está em um estado inconsistente",
	CodeUserNotFound:           "O usuário {{.UserID}} não existe",
	CodeTaskNotFound:           "A tarefa {{.TaskID}} não existe",
	CodeTaskContentEmpty:       "O conteúdo da tarefa não pode ser vazio",
}
