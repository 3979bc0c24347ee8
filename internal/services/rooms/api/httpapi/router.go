// Package httpapi serves the room membership commands as a JSON API.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Service is the membership surface exposed over HTTP.
type Service interface {
	RegisterUser(ctx context.Context, userID string) (domain.User, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
	CreateRoom(ctx context.Context, creatorID string) (domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	RequestJoin(ctx context.Context, roomID, userID string) (domain.Room, error)
	InviteUser(ctx context.Context, roomID, actorID, targetID string) (domain.Room, error)
	AcceptRequest(ctx context.Context, roomID, actorID, requesterID string) (domain.Room, error)
	RejectRequest(ctx context.Context, roomID, actorID, requesterID string) (domain.Room, error)
	AcceptInvite(ctx context.Context, roomID, userID string) (domain.Room, error)
	DeclineInvite(ctx context.Context, roomID, userID string) (domain.Room, error)
	Promote(ctx context.Context, roomID, actorID, targetID string) (domain.Room, error)
	Demote(ctx context.Context, roomID, actorID, targetID string) (domain.Room, error)
	LeaveRoom(ctx context.Context, roomID, userID string) (domain.Room, error)
	DeleteRoom(ctx context.Context, roomID, actorID string) error
	CreateTask(ctx context.Context, roomID, actorID, content string) (domain.Task, error)
	ListTasks(ctx context.Context, roomID string) ([]domain.Task, error)
	DeleteTask(ctx context.Context, roomID, actorID, taskID string) error
}

// Options configures the router.
type Options struct {
	// AllowedOrigins lists CORS origins; empty allows any origin.
	AllowedOrigins []string
}

// NewRouter builds the HTTP handler for svc.
func NewRouter(svc Service, logger zerolog.Logger, opts Options) http.Handler {
	h := &Handler{svc: svc, logger: logger}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/users", h.RegisterUser)
		r.Get("/users/{userID}", h.GetUser)

		r.Post("/rooms", h.CreateRoom)
		r.Route("/rooms/{roomID}", func(r chi.Router) {
			r.Get("/", h.GetRoom)
			r.Delete("/", h.DeleteRoom)

			r.Post("/requests", h.RequestJoin)
			r.Post("/requests/{userID}/accept", h.AcceptRequest)
			r.Post("/requests/{userID}/reject", h.RejectRequest)

			r.Post("/invites", h.InviteUser)
			r.Post("/invites/{userID}/accept", h.AcceptInvite)
			r.Post("/invites/{userID}/decline", h.DeclineInvite)

			r.Post("/admins/{userID}/promote", h.Promote)
			r.Post("/admins/{userID}/demote", h.Demote)

			r.Post("/leave", h.LeaveRoom)

			r.Get("/tasks", h.ListTasks)
			r.Post("/tasks", h.CreateTask)
			r.Delete("/tasks/{taskID}", h.DeleteTask)
		})
	})
	return r
}
