package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(NewAuthHandlers),
	fx.Provide(NewOrganizationHandlers),
	fx.Provide(NewSystemHandlers),
	fx.Provide(NewPermissionHandlers),
	fx.Provide(NewScopeHandlers),
)
