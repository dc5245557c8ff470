package biz

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity/local"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/permissions"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/watcher"
)

var Module = fx.Module("biz",
	fx.Provide(NewSettingService),
	fx.Provide(NewSystemService),
	fx.Provide(NewAuthService),
	fx.Provide(NewUserService),
	fx.Provide(NewOrganizationService),
	fx.Provide(NewSessionService),
	fx.Provide(func(db *bun.DB, cfg local.Config, system *SystemService) identity.Backend {
		return local.New(db, cfg, system.SecretKey)
	}),
	fx.Provide(func(settings *SettingService) *permissions.Store {
		return permissions.NewStore(settings)
	}),
	fx.Provide(func(cfg watcher.Config) (watcher.Notifier[MatrixChange], error) {
		return watcher.NewWatcherFromConfig[MatrixChange](cfg, watcher.WatcherFromConfigOptions{
			RedisChannel: MatrixChannel,
		})
	}),
	fx.Provide(NewMatrixSync),
	fx.Invoke(func(lc fx.Lifecycle, matrix *permissions.Store, sync *MatrixSync) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				matrix.Load(ctx)
				return sync.Start(ctx)
			},
			OnStop: func(ctx context.Context) error {
				return sync.Stop(ctx)
			},
		})
	}),
	fx.Invoke(func(lc fx.Lifecycle, sessions *SessionService) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return sessions.Start(ctx)
			},
			OnStop: func(ctx context.Context) error {
				return sessions.Stop(ctx)
			},
		})
	}),
)
