package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/api"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/biz"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/middleware"
)

type Handlers struct {
	fx.In

	Auth          *api.AuthHandlers
	Organizations *api.OrganizationHandlers
	System        *api.SystemHandlers
	Permissions   *api.PermissionHandlers
	Scope         *api.ScopeHandlers
}

func SetupRoutes(server *Server, handlers Handlers, auth *biz.AuthService) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithLoggingTracing(server.Config.Trace))

	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	publicGroup := server.Group("")
	{
		publicGroup.GET("/health", handlers.System.Health)
		publicGroup.GET("/system/status", handlers.System.GetSystemStatus)
		publicGroup.POST("/system/initialize", handlers.System.InitializeSystem)

		publicGroup.POST("/auth/signin", handlers.Auth.SignIn)
		publicGroup.POST("/auth/reset-password", handlers.Auth.SendPasswordReset)

		publicGroup.POST("/organizations/signup", handlers.Organizations.SignUp)
		publicGroup.POST("/organizations/join", handlers.Organizations.Join)
	}

	securedGroup := server.Group("", middleware.WithJWTAuth(auth))
	{
		securedGroup.GET("/auth/session", handlers.Auth.GetSession)
		securedGroup.GET("/auth/session/history", handlers.Auth.GetSessionHistory)
		securedGroup.POST("/auth/signout", handlers.Auth.SignOut)
		securedGroup.PUT("/auth/password", handlers.Auth.UpdatePassword)
		securedGroup.PUT("/profile", handlers.Auth.UpdateProfile)

		securedGroup.GET("/organizations/status", handlers.Organizations.RecheckStatus)
		securedGroup.GET("/organizations/pending", handlers.Organizations.ListPending)
		securedGroup.GET("/organizations/:id", handlers.Organizations.Get)
		securedGroup.POST("/organizations/:id/approve", handlers.Organizations.Approve)
		securedGroup.POST("/organizations/:id/suspend", handlers.Organizations.Suspend)
		securedGroup.GET("/team", handlers.Organizations.Team)

		securedGroup.GET("/permissions/modules", handlers.Permissions.ListModules)
		securedGroup.GET("/permissions/matrix", handlers.Permissions.GetMatrix)
		securedGroup.GET("/permissions/check", handlers.Permissions.Check)
		securedGroup.PUT("/permissions", handlers.Permissions.Update)

		securedGroup.POST("/scope/filter", handlers.Scope.Filter)

		securedGroup.GET("/onboarding", handlers.System.GetOnboarding)
		securedGroup.POST("/onboarding/complete", handlers.System.CompleteOnboarding)
	}
}
