package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyamero/trackAsOne/internal/platform/telemetry/metrics"
	"github.com/rs/zerolog"
)

// DefaultSweepBatch bounds how many tombstoned rooms one pass picks up.
const DefaultSweepBatch = 100

// CascadeEnqueuer hands a tombstoned room to a background worker.
type CascadeEnqueuer interface {
	EnqueueCascade(ctx context.Context, roomID string) error
}

// Sweeper resumes cascades for rooms left tombstoned by an interrupted delete.
type Sweeper struct {
	coordinator *Coordinator
	enqueuer    CascadeEnqueuer
	batch       int
	logger      zerolog.Logger
}

// NewSweeper builds a sweeper. With a nil enqueuer cascades resume inline.
func NewSweeper(coordinator *Coordinator, enqueuer CascadeEnqueuer) *Sweeper {
	return &Sweeper{
		coordinator: coordinator,
		enqueuer:    enqueuer,
		batch:       DefaultSweepBatch,
		logger:      coordinator.logger.With().Str("component", "sweeper").Logger(),
	}
}

// SweepOnce runs one pass and reports how many rooms it handled.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	ids, err := s.coordinator.store.ListDeletingRooms(ctx, s.batch)
	if err != nil {
		return 0, fmt.Errorf("list deleting rooms: %w", err)
	}
	handled := 0
	var firstErr error
	for _, roomID := range ids {
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		mode := "inline"
		if s.enqueuer != nil {
			mode = "queued"
			err = s.enqueuer.EnqueueCascade(ctx, roomID)
		} else {
			err = s.coordinator.ResumeCascade(ctx, roomID)
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("room_id", roomID).Str("mode", mode).Msg("sweep could not resume cascade")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.SweptRoomsTotal.WithLabelValues(mode).Inc()
		handled++
	}
	return handled, firstErr
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if n, err := s.SweepOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn().Err(err).Msg("sweep pass failed")
		} else if n > 0 {
			s.logger.Info().Int("rooms", n).Msg("sweep pass finished")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
