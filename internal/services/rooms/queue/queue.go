// Package queue re-drives interrupted room cascades through an asynq queue
// backed by Redis.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hyamero/trackAsOne/internal/platform/timeouts"
	"github.com/rs/zerolog"
)

const (
	// TypeCascadeDelete resumes the cascade of one tombstoned room.
	TypeCascadeDelete = "rooms:cascade_delete"
	// Name is the queue cascade tasks are enqueued on.
	Name = "rooms"

	uniqueTTL = 10 * time.Minute
	maxRetry  = 10
)

type cascadePayload struct {
	RoomID string `json:"roomId"`
}

// NewCascadeTask builds the task for roomID.
func NewCascadeTask(roomID string) (*asynq.Task, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return nil, errors.New("queue: room id is required")
	}
	payload, err := json.Marshal(cascadePayload{RoomID: roomID})
	if err != nil {
		return nil, fmt.Errorf("queue: encode payload: %w", err)
	}
	return asynq.NewTask(TypeCascadeDelete, payload), nil
}

// ParseCascadeTask returns the room id carried by a cascade task.
func ParseCascadeTask(task *asynq.Task) (string, error) {
	var payload cascadePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return "", fmt.Errorf("queue: decode payload: %w", err)
	}
	if strings.TrimSpace(payload.RoomID) == "" {
		return "", errors.New("queue: payload has no room id")
	}
	return payload.RoomID, nil
}

// Client enqueues cascade tasks.
type Client struct {
	client *asynq.Client
}

// NewClient connects to the Redis instance at redisURL.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// EnqueueCascade schedules a cascade for roomID. A cascade already queued for
// the same room is not duplicated.
func (c *Client) EnqueueCascade(ctx context.Context, roomID string) error {
	task, err := NewCascadeTask(roomID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(Name),
		asynq.Unique(uniqueTTL),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeouts.CascadeTask),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("queue: enqueue cascade: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Resumer finishes the deletion of a tombstoned room.
type Resumer interface {
	ResumeCascade(ctx context.Context, roomID string) error
}

// HandleCascade returns the handler that resumes cascades. Malformed payloads
// are not retried.
func HandleCascade(resumer Resumer, logger zerolog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		roomID, err := ParseCascadeTask(task)
		if err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		ctx, cancel := context.WithTimeout(ctx, timeouts.CascadeTask)
		defer cancel()
		if err := resumer.ResumeCascade(ctx, roomID); err != nil {
			return err
		}
		logger.Debug().Str("room_id", roomID).Msg("queued cascade finished")
		return nil
	}
}

// Worker consumes cascade tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker builds a worker that resumes cascades through resumer.
func NewWorker(redisURL string, concurrency int, resumer Resumer, logger zerolog.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{Name: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warn().Err(err).Str("task_type", task.Type()).Msg("cascade task failed")
		}),
	})
	mux := asynq.NewServeMux()
	mux.Handle(TypeCascadeDelete, HandleCascade(resumer, logger))
	return &Worker{server: server, mux: mux}, nil
}

// Run processes tasks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("queue: start worker: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
