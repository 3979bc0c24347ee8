package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hyamero/trackAsOne/internal/platform/requestctx"
	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/rs/zerolog"
)

// Handler holds the dependencies shared by all routes.
type Handler struct {
	svc    Service
	logger zerolog.Logger
}

type userRequest struct {
	UserID string `json:"userId"`
}

type actorRequest struct {
	ActorID string `json:"actorId"`
}

type createRoomRequest struct {
	CreatorID string `json:"creatorId"`
}

type inviteRequest struct {
	ActorID  string `json:"actorId"`
	TargetID string `json:"targetId"`
}

type createTaskRequest struct {
	ActorID string `json:"actorId"`
	Content string `json:"content"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterUser handles POST /v1/users.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	user, err := h.svc.RegisterUser(r.Context(), req.UserID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, map[string]userView{"user": newUserView(user)})
}

// GetUser handles GET /v1/users/{userID}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]userView{"user": newUserView(user)})
}

// CreateRoom handles POST /v1/rooms.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	ctx := requestctx.WithActorID(r.Context(), req.CreatorID)
	room, err := h.svc.CreateRoom(ctx, req.CreatorID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, roomResponse{Room: newRoomView(room)})
}

// GetRoom handles GET /v1/rooms/{roomID}.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.svc.GetRoom(r.Context(), chi.URLParam(r, "roomID"))
	h.Room(w, r, room, err)
}

// DeleteRoom handles DELETE /v1/rooms/{roomID}.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	ctx := requestctx.WithActorID(r.Context(), req.ActorID)
	if err := h.svc.DeleteRoom(ctx, chi.URLParam(r, "roomID"), req.ActorID); err != nil {
		h.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestJoin handles POST /v1/rooms/{roomID}/requests.
func (h *Handler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	ctx := requestctx.WithActorID(r.Context(), req.UserID)
	room, err := h.svc.RequestJoin(ctx, chi.URLParam(r, "roomID"), req.UserID)
	h.Room(w, r, room, err)
}

// AcceptRequest handles POST /v1/rooms/{roomID}/requests/{userID}/accept.
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.actorCommand(w, r, h.svc.AcceptRequest)
}

// RejectRequest handles POST /v1/rooms/{roomID}/requests/{userID}/reject.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.actorCommand(w, r, h.svc.RejectRequest)
}

// InviteUser handles POST /v1/rooms/{roomID}/invites.
func (h *Handler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	ctx := requestctx.WithActorID(r.Context(), req.ActorID)
	room, err := h.svc.InviteUser(ctx, chi.URLParam(r, "roomID"), req.ActorID, req.TargetID)
	h.Room(w, r, room, err)
}

// AcceptInvite handles POST /v1/rooms/{roomID}/invites/{userID}/accept.
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	h.userCommand(w, r, h.svc.AcceptInvite)
}

// DeclineInvite handles POST /v1/rooms/{roomID}/invites/{userID}/decline.
func (h *Handler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	h.userCommand(w, r, h.svc.DeclineInvite)
}

// Promote handles POST /v1/rooms/{roomID}/admins/{userID}/promote.
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	h.actorCommand(w, r, h.svc.Promote)
}

// Demote handles POST /v1/rooms/{roomID}/admins/{userID}/demote.
func (h *Handler) Demote(w http.ResponseWriter, r *http.Request) {
	h.actorCommand(w, r, h.svc.Demote)
}

// LeaveRoom handles POST /v1/rooms/{roomID}/leave.
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	ctx := requestctx.WithActorID(r.Context(), req.UserID)
	room, err := h.svc.LeaveRoom(ctx, chi.URLParam(r, "roomID"), req.UserID)
	h.Room(w, r, room, err)
}

// ListTasks handles GET /v1/rooms/{roomID}/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListTasks(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, newTaskView(task))
	}
	h.JSON(w, http.StatusOK, map[string][]taskView{"tasks": views})
}

// CreateTask handles POST /v1/rooms/{roomID}/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	ctx := requestctx.WithActorID(r.Context(), req.ActorID)
	task, err := h.svc.CreateTask(ctx, chi.URLParam(r, "roomID"), req.ActorID, req.Content)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, map[string]taskView{"task": newTaskView(task)})
}

// DeleteTask handles DELETE /v1/rooms/{roomID}/tasks/{taskID}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	ctx := requestctx.WithActorID(r.Context(), req.ActorID)
	if err := h.svc.DeleteTask(ctx, chi.URLParam(r, "roomID"), req.ActorID, chi.URLParam(r, "taskID")); err != nil {
		h.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type actorFunc func(ctx context.Context, roomID, actorID, targetID string) (domain.Room, error)

type userFunc func(ctx context.Context, roomID, userID string) (domain.Room, error)

// actorCommand runs a command where the acting user comes from the body and
// the target user from the path.
func (h *Handler) actorCommand(w http.ResponseWriter, r *http.Request, fn actorFunc) {
	var req actorRequest
	if err := decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	ctx := requestctx.WithActorID(r.Context(), req.ActorID)
	room, err := fn(ctx, chi.URLParam(r, "roomID"), req.ActorID, chi.URLParam(r, "userID"))
	h.Room(w, r, room, err)
}

// userCommand runs a command the path user performs on their own behalf.
func (h *Handler) userCommand(w http.ResponseWriter, r *http.Request, fn userFunc) {
	userID := chi.URLParam(r, "userID")
	ctx := requestctx.WithActorID(r.Context(), userID)
	room, err := fn(ctx, chi.URLParam(r, "roomID"), userID)
	h.Room(w, r, room, err)
}
