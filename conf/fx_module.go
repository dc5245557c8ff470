package conf

import (
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity/local"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/watcher"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xcache"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/biz"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/tracing"
)

// Module provides the loaded Config and the per-component sections.
var Module = fx.Module("conf",
	fx.Provide(Load),
	fx.Provide(func(c Config) server.Config { return c.APIServer }),
	fx.Provide(func(c Config) store.Config { return c.DB }),
	fx.Provide(func(c Config) log.Config { return c.Log }),
	fx.Provide(func(c Config) xcache.Config { return c.Cache }),
	fx.Provide(func(c Config) watcher.Config { return c.Watch }),
	fx.Provide(func(c Config) local.Config { return c.Identity }),
	fx.Provide(func(c Config) biz.SessionConfig { return c.Session }),
	fx.Provide(func(c Config) tracing.Config { return c.APIServer.Trace }),
)
