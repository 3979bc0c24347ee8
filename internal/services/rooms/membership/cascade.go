package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v5"
	apperrors "github.com/hyamero/trackAsOne/internal/platform/errors"
	"github.com/hyamero/trackAsOne/internal/platform/telemetry/metrics"
	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
	"golang.org/x/sync/errgroup"
)

// Cascade steps, used as metric labels.
const (
	stepTombstone = "tombstone"
	stepTasks     = "tasks"
	stepOwner     = "owner_index"
	stepInvitees  = "invite_index"
	stepRoom      = "room"
)

// DeleteRoom tombstones the room and removes it together with everything that
// references it. A repeated delete by the creator resumes an interrupted
// cascade. On failure the room stays tombstoned and ROOM_CASCADE_INCOMPLETE is
// returned; the sweep finishes the job later.
func (c *Coordinator) DeleteRoom(ctx context.Context, roomID, actorID string) error {
	_, err := c.run(ctx, "delete_room", roomID, func(ctx context.Context) (domain.Room, error) {
		roomID = strings.TrimSpace(roomID)
		if roomID == "" {
			return domain.Room{}, domain.ErrEmptyRoomID
		}
		out, err := c.apply(ctx, roomID, func(r domain.Room) (domain.Outcome, error) {
			return domain.MarkDeleting(r, actorID)
		})
		if err != nil {
			metrics.CascadeStepsTotal.WithLabelValues(stepTombstone, "error").Inc()
			return domain.Room{}, err
		}
		metrics.CascadeStepsTotal.WithLabelValues(stepTombstone, "ok").Inc()
		if out.Changed {
			c.putCache(ctx, out.Room)
		}
		return out.Room, c.cascade(ctx, out.Room)
	})
	return err
}

// ResumeCascade finishes the deletion of a tombstoned room. Missing rooms and
// rooms that are not tombstoned are left alone.
func (c *Coordinator) ResumeCascade(ctx context.Context, roomID string) error {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get room: %w", err)
	}
	if !room.PendingDeletion {
		return nil
	}
	c.logger.Info().Str("room_id", roomID).Msg("resuming room cascade")
	return c.cascade(ctx, room)
}

// cascade runs every step after the tombstone. Each step is idempotent so the
// whole sequence can be re-run from the start.
func (c *Coordinator) cascade(ctx context.Context, room domain.Room) error {
	steps := []struct {
		name string
		run  func(context.Context, domain.Room) error
	}{
		{stepTasks, c.deleteTasks},
		{stepOwner, c.releaseOwner},
		{stepInvitees, c.releaseInvitees},
		{stepRoom, c.removeRoom},
	}
	for _, step := range steps {
		if err := step.run(ctx, room); err != nil {
			metrics.CascadeStepsTotal.WithLabelValues(step.name, "error").Inc()
			c.logger.Warn().Err(err).Str("room_id", room.ID).Str("step", step.name).Msg("room cascade interrupted")
			if apperrors.IsCode(err, apperrors.CodeRoomCascadeIncomplete) {
				return err
			}
			return apperrors.Wrap(apperrors.CodeRoomCascadeIncomplete, "room cascade incomplete at "+step.name, err)
		}
		metrics.CascadeStepsTotal.WithLabelValues(step.name, "ok").Inc()
		c.logger.Debug().Str("room_id", room.ID).Str("step", step.name).Msg("room cascade step done")
	}
	c.dropCache(ctx, room.ID)
	return nil
}

func (c *Coordinator) deleteTasks(ctx context.Context, room domain.Room) error {
	ids, err := c.store.ListTaskIDs(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("list task ids: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.CascadeConcurrency)
	for _, taskID := range ids {
		g.Go(func() error {
			_, err := backoff.Retry(gctx, func() (struct{}, error) {
				_, err := c.store.DeleteTask(gctx, room.ID, taskID)
				return struct{}{}, err
			}, backoff.WithBackOff(c.backoffPolicy()), backoff.WithMaxTries(uint(c.cfg.MaxAttempts)))
			if err != nil {
				return fmt.Errorf("delete task %s: %w", taskID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Coordinator) releaseOwner(ctx context.Context, room domain.Room) error {
	return c.scrubUser(ctx, room.Creator, func(u *domain.User) bool {
		return u.OwnedRooms.Remove(room.ID)
	})
}

func (c *Coordinator) releaseInvitees(ctx context.Context, room domain.Room) error {
	for _, userID := range room.PendingInvites.Sorted() {
		if err := c.scrubUser(ctx, userID, func(u *domain.User) bool {
			return u.Invites.Remove(room.ID)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) removeRoom(ctx context.Context, room domain.Room) error {
	if err := c.store.DeleteRoom(ctx, room.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}
