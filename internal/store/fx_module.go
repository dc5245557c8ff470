package store

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
)

var Module = fx.Module("store",
	fx.Provide(Open),
	fx.Invoke(func(lc fx.Lifecycle, db *bun.DB) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return Migrate(ctx, db)
			},
			OnStop: func(ctx context.Context) error {
				return db.Close()
			},
		})
	}),
)
