package domain

import (
	"context"
	"fmt"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
)

// CounterUpdater increments integer counters on relational halves.
// Each call is one atomic statement; no lock is held by the caller.
type CounterUpdater struct {
	rel   RelationalStore
	clock entity.Clock
}

// NewCounterUpdater creates a counter updater.
func NewCounterUpdater(rel RelationalStore, clock entity.Clock) *CounterUpdater {
	if clock == nil {
		clock = entity.SystemClock
	}
	return &CounterUpdater{rel: rel, clock: clock}
}

// Increment adds one to column on the row with the given id and stamps its modification time.
// A NULL counter counts as zero.
func (u *CounterUpdater) Increment(ctx context.Context, t Table, id int64, column string) error {
	n, err := u.rel.Increment(ctx, t, id, column, Row{ColUpdatedAt: entity.Stamp(u.clock())})
	if err != nil {
		return apperror.NewStore(apperror.StoreRelational, false, fmt.Errorf("increment %s.%s: %w", t.Name, column, err))
	}
	if n == 0 {
		return apperror.NewNotFound(t.Name, id)
	}
	return nil
}
