package maintenance

import (
	"context"

	"github.com/hyamero/trackAsOne/internal/services/rooms/membership"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
)

// closableEnqueuer hands tombstoned rooms to the cascade queue and releases
// its Redis connection on Close.
type closableEnqueuer interface {
	membership.CascadeEnqueuer
	Close() error
}

// sweepDeps are the resources a sweep or report run operates on.
type sweepDeps struct {
	store    storage.Store
	enqueuer closableEnqueuer
}

func (d sweepDeps) close(errOut func(format string, args ...any)) {
	if d.enqueuer != nil {
		if err := d.enqueuer.Close(); err != nil {
			errOut("Error: close queue client: %v\n", err)
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errOut("Error: close rooms store: %v\n", err)
		}
	}
}

type openStoreFunc func(ctx context.Context) (storage.Store, error)
