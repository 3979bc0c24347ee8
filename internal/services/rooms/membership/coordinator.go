package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	apperrors "github.com/hyamero/trackAsOne/internal/platform/errors"
	"github.com/hyamero/trackAsOne/internal/platform/id"
	"github.com/hyamero/trackAsOne/internal/platform/requestctx"
	"github.com/hyamero/trackAsOne/internal/platform/telemetry/metrics"
	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/hyamero/trackAsOne/internal/services/rooms/membership"

// RoomCache holds read snapshots of rooms. Cache failures never fail a command.
type RoomCache interface {
	GetRoom(ctx context.Context, roomID string) (domain.Room, bool, error)
	PutRoom(ctx context.Context, room domain.Room) error
	DeleteRoom(ctx context.Context, roomID string) error
}

// Coordinator applies membership commands against the stores.
type Coordinator struct {
	store     storage.Store
	cache     RoomCache
	cfg       Config
	logger    zerolog.Logger
	tracer    trace.Tracer
	clock     func() time.Time
	newRoomID func() (string, error)
	newTaskID func(time.Time) (string, error)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithCache enables read-through room snapshots.
func WithCache(cache RoomCache) Option {
	return func(c *Coordinator) {
		c.cache = cache
	}
}

// WithConfig overrides retry and cascade tuning.
func WithConfig(cfg Config) Option {
	return func(c *Coordinator) {
		c.cfg = cfg
	}
}

// WithLogger sets the command logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New builds a Coordinator over store.
func New(store storage.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		cfg:       DefaultConfig(),
		logger:    zerolog.Nop(),
		tracer:    otel.Tracer(tracerName),
		clock:     time.Now,
		newRoomID: id.NewID,
		newTaskID: id.NewSortableID,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cfg = c.cfg.normalized()
	return c
}

// transition is a pure room state change from the domain package.
type transition func(domain.Room) (domain.Outcome, error)

// RequestJoin asks to join a room, or joins directly when already invited.
func (c *Coordinator) RequestJoin(ctx context.Context, roomID, userID string) (domain.Room, error) {
	return c.run(ctx, "request_join", roomID, func(ctx context.Context) (domain.Room, error) {
		userID = strings.TrimSpace(userID)
		if err := c.resolveUser(ctx, userID); err != nil {
			return domain.Room{}, err
		}
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.RequestJoin(r, userID)
		})
	})
}

// InviteUser invites targetID, or accepts their pending request.
func (c *Coordinator) InviteUser(ctx context.Context, roomID, actorID, targetID string) (domain.Room, error) {
	return c.run(ctx, "invite_user", roomID, func(ctx context.Context) (domain.Room, error) {
		targetID = strings.TrimSpace(targetID)
		if err := c.resolveUser(ctx, targetID); err != nil {
			return domain.Room{}, err
		}
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.Invite(r, actorID, targetID)
		})
	})
}

// AcceptRequest admits a pending requester.
func (c *Coordinator) AcceptRequest(ctx context.Context, roomID, actorID, requesterID string) (domain.Room, error) {
	return c.run(ctx, "accept_request", roomID, func(ctx context.Context) (domain.Room, error) {
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.AcceptRequest(r, actorID, requesterID)
		})
	})
}

// RejectRequest drops a pending request.
func (c *Coordinator) RejectRequest(ctx context.Context, roomID, actorID, requesterID string) (domain.Room, error) {
	return c.run(ctx, "reject_request", roomID, func(ctx context.Context) (domain.Room, error) {
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.RejectRequest(r, actorID, requesterID)
		})
	})
}

// AcceptInvite joins a room the user was invited to.
func (c *Coordinator) AcceptInvite(ctx context.Context, roomID, userID string) (domain.Room, error) {
	return c.run(ctx, "accept_invite", roomID, func(ctx context.Context) (domain.Room, error) {
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.AcceptInvite(r, userID)
		})
	})
}

// DeclineInvite drops a pending invite.
func (c *Coordinator) DeclineInvite(ctx context.Context, roomID, userID string) (domain.Room, error) {
	return c.run(ctx, "decline_invite", roomID, func(ctx context.Context) (domain.Room, error) {
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.DeclineInvite(r, userID)
		})
	})
}

// Promote makes a member an admin.
func (c *Coordinator) Promote(ctx context.Context, roomID, actorID, targetID string) (domain.Room, error) {
	return c.run(ctx, "promote", roomID, func(ctx context.Context) (domain.Room, error) {
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.Promote(r, actorID, targetID)
		})
	})
}

// Demote removes admin rights from a member.
func (c *Coordinator) Demote(ctx context.Context, roomID, actorID, targetID string) (domain.Room, error) {
	return c.run(ctx, "demote", roomID, func(ctx context.Context) (domain.Room, error) {
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.Demote(r, actorID, targetID)
		})
	})
}

// LeaveRoom removes a member from the room.
func (c *Coordinator) LeaveRoom(ctx context.Context, roomID, userID string) (domain.Room, error) {
	return c.run(ctx, "leave_room", roomID, func(ctx context.Context) (domain.Room, error) {
		return c.command(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.Leave(r, userID)
		})
	})
}

// CreateRoom creates a room owned by creatorID.
func (c *Coordinator) CreateRoom(ctx context.Context, creatorID string) (domain.Room, error) {
	return c.run(ctx, "create_room", "", func(ctx context.Context) (domain.Room, error) {
		creatorID = strings.TrimSpace(creatorID)
		if creatorID == "" {
			return domain.Room{}, domain.ErrEmptyUserID
		}
		room, err := retry(ctx, c, "user", func() (domain.Room, error) {
			roomID, err := c.newRoomID()
			if err != nil {
				return domain.Room{}, fmt.Errorf("generate room id: %w", err)
			}
			room, err := domain.NewRoom(roomID, creatorID, c.clock())
			if err != nil {
				return domain.Room{}, err
			}
			created, err := c.store.CreateRoom(ctx, room)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				return domain.Room{}, domain.UserNotFound(creatorID)
			case errors.Is(err, storage.ErrAlreadyExists):
				// Fresh id on the next attempt.
				return domain.Room{}, storage.ErrConflict
			case err != nil:
				return domain.Room{}, err
			}
			return created, nil
		})
		if err != nil {
			return domain.Room{}, err
		}
		c.putCache(ctx, room)
		return room, nil
	})
}

// RegisterUser creates the local user record if it does not exist yet.
func (c *Coordinator) RegisterUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := domain.NewUser(userID, c.clock())
	if err != nil {
		return domain.User{}, err
	}
	stored, err := c.store.CreateUser(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("register user: %w", err)
	}
	return stored, nil
}

// GetUser returns a user record.
func (c *Coordinator) GetUser(ctx context.Context, userID string) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, domain.ErrEmptyUserID
	}
	user, err := c.store.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, userReadError(userID, err)
	}
	return user, nil
}

// GetRoom returns the room, served from the cache when a snapshot exists.
func (c *Coordinator) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return domain.Room{}, domain.ErrEmptyRoomID
	}
	if c.cache != nil {
		room, ok, err := c.cache.GetRoom(ctx, roomID)
		if err != nil {
			c.logger.Warn().Err(err).Str("room_id", roomID).Msg("room cache read failed")
		} else if ok {
			return room, nil
		}
	}
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, roomReadError(roomID, err)
	}
	c.putCache(ctx, room)
	return room, nil
}

// command applies one transition and then the user index changes it implies.
// A benign error is returned together with the current room.
func (c *Coordinator) command(ctx context.Context, roomID string, fn transition) (domain.Room, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return domain.Room{}, domain.ErrEmptyRoomID
	}
	out, err := c.apply(ctx, roomID, fn)
	if err != nil && !apperrors.GetCode(err).Benign() {
		return domain.Room{}, err
	}
	if out.InviteAdded != "" {
		if _, ierr := c.updateUser(ctx, out.InviteAdded, func(u *domain.User) bool {
			return u.Invites.Add(roomID)
		}); ierr != nil {
			return domain.Room{}, ierr
		}
		if ierr := c.reconcileInvite(ctx, roomID, out.InviteAdded); ierr != nil {
			return domain.Room{}, ierr
		}
	}
	if out.InviteCleared != "" {
		if ierr := c.scrubUser(ctx, out.InviteCleared, func(u *domain.User) bool {
			return u.Invites.Remove(roomID)
		}); ierr != nil {
			return domain.Room{}, ierr
		}
	}
	if out.Changed {
		c.putCache(ctx, out.Room)
	}
	return out.Room, err
}

// apply runs fn against the current room and persists the result with a
// version check, retrying on conflict.
func (c *Coordinator) apply(ctx context.Context, roomID string, fn transition) (domain.Outcome, error) {
	return retry(ctx, c, "room", func() (domain.Outcome, error) {
		room, err := c.store.GetRoom(ctx, roomID)
		if err != nil {
			return domain.Outcome{}, roomReadError(roomID, err)
		}
		out, err := fn(room)
		if err != nil || !out.Changed {
			return out, err
		}
		now := c.clock().UTC()
		updated, err := c.store.CompareAndUpdateRoom(ctx, roomID, room.Version, func(stored domain.Room) (domain.Room, error) {
			next, err := fn(stored)
			if err != nil {
				return domain.Room{}, err
			}
			next.Room.UpdatedAt = now
			return next.Room, nil
		})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return domain.Outcome{}, domain.RoomNotFound(roomID)
			}
			return domain.Outcome{}, err
		}
		out.Room = updated
		return out, nil
	})
}

// updateUser applies change to the user with a version check. It reports
// USER_NOT_FOUND when the user does not resolve.
func (c *Coordinator) updateUser(ctx context.Context, userID string, change func(*domain.User) bool) (domain.User, error) {
	return retry(ctx, c, "user", func() (domain.User, error) {
		user, err := c.store.GetUser(ctx, userID)
		if err != nil {
			return domain.User{}, userReadError(userID, err)
		}
		next := user.Clone()
		if !change(&next) {
			return user, nil
		}
		now := c.clock().UTC()
		updated, err := c.store.CompareAndUpdateUser(ctx, userID, user.Version, func(stored domain.User) (domain.User, error) {
			change(&stored)
			stored.UpdatedAt = now
			return stored, nil
		})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return domain.User{}, domain.UserNotFound(userID)
			}
			return domain.User{}, err
		}
		return updated, nil
	})
}

// scrubUser is updateUser for removals, where a missing user has nothing left
// to scrub.
func (c *Coordinator) scrubUser(ctx context.Context, userID string, change func(*domain.User) bool) error {
	_, err := c.updateUser(ctx, userID, change)
	if apperrors.IsCode(err, apperrors.CodeUserNotFound) {
		return nil
	}
	return err
}

// reconcileInvite runs after an invite index write. When the invite was resolved
// or the room deleted between the two writes, the entry just added is scrubbed.
func (c *Coordinator) reconcileInvite(ctx context.Context, roomID, userID string) error {
	room, err := c.store.GetRoom(ctx, roomID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return fmt.Errorf("get room: %w", err)
	case !room.PendingDeletion && room.PendingInvites.Has(userID):
		return nil
	}
	c.logger.Debug().Str("room_id", roomID).Str("user_id", userID).Msg("invite resolved before index write, scrubbing")
	return c.scrubUser(ctx, userID, func(u *domain.User) bool {
		return u.Invites.Remove(roomID)
	})
}

func (c *Coordinator) resolveUser(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrEmptyUserID
	}
	if _, err := c.store.GetUser(ctx, userID); err != nil {
		return userReadError(userID, err)
	}
	return nil
}

func (c *Coordinator) putCache(ctx context.Context, room domain.Room) {
	if c.cache == nil {
		return
	}
	if err := c.cache.PutRoom(ctx, room); err != nil {
		c.logger.Warn().Err(err).Str("room_id", room.ID).Msg("room cache write failed")
	}
}

func (c *Coordinator) dropCache(ctx context.Context, roomID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.DeleteRoom(ctx, roomID); err != nil {
		c.logger.Warn().Err(err).Str("room_id", roomID).Msg("room cache delete failed")
	}
}

// run wraps a command with a span, a metric and a log line.
func (c *Coordinator) run(ctx context.Context, command, roomID string, fn func(context.Context) (domain.Room, error)) (domain.Room, error) {
	ctx, span := c.tracer.Start(ctx, "rooms."+command, trace.WithAttributes(
		attribute.String("room.id", roomID),
		attribute.String("actor.id", requestctx.ActorIDFromContext(ctx)),
	))
	defer span.End()

	start := time.Now()
	room, err := fn(ctx)
	code := resultCode(err)
	metrics.CommandsTotal.WithLabelValues(command, code).Inc()
	span.SetAttributes(attribute.String("result.code", code))

	event := c.logger.Debug()
	if err != nil && !apperrors.GetCode(err).Benign() {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, code)
		switch apperrors.GetCode(err) {
		case apperrors.CodeUnknown, apperrors.CodeInternal, apperrors.CodeRoomInvariantViolated:
			event = c.logger.Error().Err(err)
		case apperrors.CodeRoomTooManyConflicts, apperrors.CodeRoomCascadeIncomplete:
			event = c.logger.Warn().Err(err)
		}
	}
	if room.ID != "" {
		roomID = room.ID
	}
	event.
		Str("command", command).
		Str("room_id", roomID).
		Str("actor_id", requestctx.ActorIDFromContext(ctx)).
		Str("code", code).
		Dur("latency", time.Since(start)).
		Msg("room command")
	return room, err
}

func resultCode(err error) string {
	if err == nil {
		return "OK"
	}
	if code := apperrors.GetCode(err); code != apperrors.CodeUnknown {
		return string(code)
	}
	return string(apperrors.CodeInternal)
}

// retry runs op until it succeeds, fails with anything but a version
// conflict, or runs out of attempts. The last value op produced is returned
// so benign errors can carry the current state.
func retry[T any](ctx context.Context, c *Coordinator, record string, op func() (T, error)) (T, error) {
	var last T
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		value, err := op()
		last = value
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, storage.ErrConflict) {
			metrics.ConflictsTotal.WithLabelValues(record).Inc()
			c.logger.Debug().Str("record", record).Msg("version conflict, retrying")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}, backoff.WithBackOff(c.backoffPolicy()), backoff.WithMaxTries(uint(c.cfg.MaxAttempts)))
	if errors.Is(err, storage.ErrConflict) {
		return last, apperrors.Wrap(apperrors.CodeRoomTooManyConflicts, "too many conflicting writes", err)
	}
	return last, err
}

// backoffPolicy returns a fresh jittered exponential policy.
func (c *Coordinator) backoffPolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = c.cfg.MaxBackoff
	policy.RandomizationFactor = 0.5
	policy.Multiplier = 2
	return policy
}

func roomReadError(roomID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.RoomNotFound(roomID)
	}
	return fmt.Errorf("get room: %w", err)
}

func userReadError(userID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.UserNotFound(userID)
	}
	return fmt.Errorf("get user: %w", err)
}
