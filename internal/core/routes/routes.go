package routes

import (
	"github.com/gin-gonic/gin"

	"toolroom/internal/devserver/handlers"
	"toolroom/internal/middleware"
	"toolroom/pkg/security"
)

const APIPrefix = "/api"

type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Tool         *handlers.ToolHandler
	ToolRequest  *handlers.ToolRequestHandler
	ToolAddition *handlers.ToolAdditionHandler
	Issue        *handlers.IssueHandler
	Notification *handlers.NotificationHandler
	Audit        *handlers.AuditHandler
}

// Register mounts the whole API under APIPrefix. Every route except login
// and password reset requires a session.
func Register(router *gin.Engine, h Handlers, sessions *security.Sessions, health *middleware.Health) *gin.RouterGroup {
	api := router.Group(APIPrefix)
	protected := api.Group("", security.SessionMiddleware(sessions))

	RegisterPublicRoutes(api, protected, h)
	RegisterProtectedRoutes(protected, h)
	RegisterUtilityRoutes(router, api, health)
	return api
}

func RegisterPublicRoutes(api, protected *gin.RouterGroup, h Handlers) {
	h.Auth.RegisterRoutes(api, protected)
}

func RegisterProtectedRoutes(protected *gin.RouterGroup, h Handlers) {
	h.User.RegisterRoutes(protected)
	h.Tool.RegisterRoutes(protected)
	h.ToolRequest.RegisterRoutes(protected)
	h.ToolAddition.RegisterRoutes(protected)
	h.Issue.RegisterRoutes(protected)
	h.Notification.RegisterRoutes(protected)
	h.Audit.RegisterRoutes(protected)
}

func RegisterUtilityRoutes(router *gin.Engine, api *gin.RouterGroup, health *middleware.Health) {
	router.GET("/health", health.HealthCheckMiddleware())
	api.GET("/health", health.HealthCheckMiddleware())
}
