package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	apperrors "github.com/hyamero/trackAsOne/internal/platform/errors"
	"github.com/hyamero/trackAsOne/internal/platform/errors/i18n"
	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
)

type roomView struct {
	ID              string    `json:"id"`
	Creator         string    `json:"creator"`
	Admins          []string  `json:"admins"`
	Members         []string  `json:"members"`
	PendingRequests []string  `json:"pendingRequests"`
	PendingInvites  []string  `json:"pendingInvites"`
	PendingDeletion bool      `json:"pendingDeletion"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func newRoomView(room domain.Room) roomView {
	return roomView{
		ID:              room.ID,
		Creator:         room.Creator,
		Admins:          room.Admins.Sorted(),
		Members:         room.Members.Sorted(),
		PendingRequests: room.PendingRequests.Sorted(),
		PendingInvites:  room.PendingInvites.Sorted(),
		PendingDeletion: room.PendingDeletion,
		Version:         room.Version,
		CreatedAt:       room.CreatedAt,
		UpdatedAt:       room.UpdatedAt,
	}
}

type userView struct {
	ID         string   `json:"id"`
	Invites    []string `json:"invites"`
	OwnedRooms []string `json:"ownedRooms"`
}

func newUserView(user domain.User) userView {
	return userView{
		ID:         user.ID,
		Invites:    user.Invites.Sorted(),
		OwnedRooms: user.OwnedRooms.Sorted(),
	}
}

type taskView struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func newTaskView(task domain.Task) taskView {
	return taskView{
		ID:        task.ID,
		RoomID:    task.RoomID,
		Content:   task.Content,
		CreatedBy: task.CreatedBy,
		CreatedAt: task.CreatedAt,
	}
}

type roomResponse struct {
	Room   roomView `json:"room"`
	Notice string   `json:"notice,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

var errInvalidBody = apperrors.New(apperrors.CodeInvalidRequest, "invalid request body")

// decode reads an optional JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Wrap(errInvalidBody.Code, errInvalidBody.Message, err)
	}
	return nil
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn().Err(err).Msg("write response")
	}
}

// Error renders err with a message from the catalog matching Accept-Language.
func (h *Handler) Error(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		code = apperrors.CodeInternal
	}

	metadata := map[string]string{
		"RoomID": chi.URLParam(r, "roomID"),
		"UserID": chi.URLParam(r, "userID"),
		"TaskID": chi.URLParam(r, "taskID"),
	}
	for key, value := range apperrors.GetMetadata(err) {
		metadata[key] = value
	}
	catalog := i18n.GetCatalog(i18n.ResolveLocale(r.Header.Get("Accept-Language")))
	h.JSON(w, code.HTTPStatus(), errorResponse{Error: errorDetail{
		Code:    string(code),
		Message: catalog.Format(string(code), metadata),
	}})
}

// Room renders a room command result. Benign errors still return the room.
func (h *Handler) Room(w http.ResponseWriter, r *http.Request, room domain.Room, err error) {
	if err != nil {
		code := apperrors.GetCode(err)
		if !code.Benign() {
			h.Error(w, r, err)
			return
		}
		h.JSON(w, http.StatusOK, roomResponse{Room: newRoomView(room), Notice: string(code)})
		return
	}
	h.JSON(w, http.StatusOK, roomResponse{Room: newRoomView(room)})
}
