package biz

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/watcher"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xcontext"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xtime"
)

// MatrixChannel is the watch channel carrying permission matrix change
// signals between instances.
const MatrixChannel = "nexus:permissions:matrix"

// MatrixChange signals that the persisted permission matrix was rewritten.
// Receivers reload from the settings store rather than trusting the payload.
type MatrixChange struct {
	UpdatedAt time.Time `json:"updatedAt"`
}

type MatrixSyncParams struct {
	fx.In

	Matrix   *permissions.Store
	Notifier watcher.Notifier[MatrixChange]
}

func NewMatrixSync(params MatrixSyncParams) *MatrixSync {
	return &MatrixSync{
		matrix:   params.Matrix,
		notifier: params.Notifier,
	}
}

// MatrixSync applies permission matrix writes and keeps every instance's
// in-memory matrix in step with the persisted document. Writes go through
// here so peers get a reload signal; the watch stream is best-effort, a
// missed signal heals on the next write or restart.
type MatrixSync struct {
	matrix   *permissions.Store
	notifier watcher.Notifier[MatrixChange]
	stop     func()
}

// Start subscribes to matrix change signals and reloads on each one.
func (s *MatrixSync) Start(ctx context.Context) error {
	events, stop := s.notifier.Watch()
	s.stop = stop

	go func() {
		for range events {
			reloadCtx, cancel := xcontext.DetachWithTimeout(context.Background(), 10*time.Second)
			s.matrix.Load(reloadCtx)
			cancel()
		}
	}()

	return nil
}

// Stop unsubscribes from the watch stream.
func (s *MatrixSync) Stop(ctx context.Context) error {
	if s.stop != nil {
		s.stop()
	}

	return nil
}

// UpdatePermission merges a single cell change, persists the matrix and
// broadcasts the change to peer instances.
func (s *MatrixSync) UpdatePermission(ctx context.Context, role permissions.Role, module permissions.Module, action permissions.Action, value bool) error {
	if err := s.matrix.UpdatePermission(ctx, role, module, action, value); err != nil {
		return err
	}

	if err := s.notifier.Notify(ctx, MatrixChange{UpdatedAt: xtime.UTCNow()}); err != nil {
		log.Warn(ctx, "failed to broadcast permission matrix change", log.Cause(err))
	}

	return nil
}
