package router

import (
	"github.com/gin-gonic/gin"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/interfaces/http/handler"
	"github.com/miv/backend/internal/interfaces/http/middleware"
)

// Handlers holds every HTTP handler the API serves
type Handlers struct {
	System       *handler.SystemHandler
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Venture      *handler.VentureHandler
	Metric       *handler.MetricHandler
	Document     *handler.DocumentHandler
	Notification *handler.NotificationHandler
	Activity     *handler.ActivityHandler
	Workflow     *handler.WorkflowHandler
	Dashboard    *handler.DashboardHandler
}

var (
	adminOnly    = middleware.RequireRole(string(identity.RoleAdmin))
	staffOnly    = middleware.RequireRole(string(identity.RoleAdmin), string(identity.RoleManager))
	internalOnly = middleware.RequireRole(string(identity.RoleAdmin), string(identity.RoleManager), string(identity.RoleAnalyst))
)

// Mount registers /health and every /api domain group on engine
func Mount(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.System.Health)

	r := NewRouter(engine)
	r.Register(systemRoutes(h)).
		Register(authRoutes(h)).
		Register(userRoutes(h)).
		Register(ventureRoutes(h)).
		Register(metricRoutes(h)).
		Register(irisRoutes(h)).
		Register(documentRoutes(h)).
		Register(notificationRoutes(h)).
		Register(emailRoutes(h)).
		Register(activityRoutes(h)).
		Register(workflowRoutes(h)).
		Register(dashboardRoutes(h))
	r.Setup()
}

func systemRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)
}

func authRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("auth", "/auth").
		POST("/login", h.Auth.Login).
		POST("/refresh", h.Auth.Refresh).
		POST("/logout", h.Auth.Logout).
		GET("/me", h.Auth.Me)
}

func userRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("users", "/users")
	g.PUT("/:id/password", h.User.ChangePassword)

	admin := g.Group("users-admin", "").Use(adminOnly)
	admin.GET("", h.User.List).
		POST("", h.User.Create).
		GET("/count", h.User.Count).
		GET("/:id", h.User.GetByID).
		PUT("/:id", h.User.Update).
		POST("/:id/activate", h.User.Activate).
		POST("/:id/deactivate", h.User.Deactivate).
		DELETE("/:id", h.User.Delete)
	return g
}

func ventureRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("ventures", "/ventures")
	g.GET("", h.Venture.List).
		GET("/:id", h.Venture.GetByID).
		GET("/:id/detail", h.Venture.Detail).
		GET("/:id/metrics", h.Metric.ListForVenture).
		GET("/:id/documents", h.Document.ListForVenture)

	staff := g.Group("ventures-write", "").Use(internalOnly)
	staff.POST("", h.Venture.Create).
		PUT("/:id", h.Venture.Update).
		PUT("/:id/stage", h.Venture.ChangeStage).
		PUT("/:id/status", h.Venture.ChangeStatus).
		PUT("/:id/assign", h.Venture.Assign).
		POST("/:id/metrics", h.Metric.Create).
		POST("/:id/report", h.Venture.GenerateReport)

	g.Group("ventures-delete", "").Use(staffOnly).
		DELETE("/:id", h.Venture.Delete)
	return g
}

func metricRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("metrics", "/metrics")
	g.GET("", h.Metric.List).
		GET("/:id", h.Metric.GetByID).
		PUT("/:id", h.Metric.Update).
		PUT("/:id/progress", h.Metric.RecordProgress).
		DELETE("/:id", h.Metric.Delete)
	g.Group("metrics-verify", "").Use(staffOnly).
		POST("/:id/verify", h.Metric.Verify)
	return g
}

func irisRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("iris", "/iris-metrics").
		GET("", h.Metric.ListIRIS).
		GET("/:code", h.Metric.GetIRIS)
}

func documentRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("documents", "/documents").
		GET("", h.Document.List).
		POST("", h.Document.Create).
		GET("/:id", h.Document.GetByID).
		PUT("/:id", h.Document.Update).
		DELETE("/:id", h.Document.Delete).
		POST("/:id/confirm", h.Document.ConfirmUpload).
		GET("/:id/download", h.Document.GetDownloadURL)
}

func notificationRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("notifications", "/notifications")
	g.GET("", h.Notification.List).
		GET("/unread-count", h.Notification.UnreadCount).
		PUT("/read-all", h.Notification.MarkAllRead).
		PUT("/:id/read", h.Notification.MarkRead).
		DELETE("/:id", h.Notification.Delete)
	g.Group("notifications-send", "").Use(internalOnly).
		POST("", h.Notification.Create)
	return g
}

func emailRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("emails", "/emails").
		Use(internalOnly).
		GET("", h.Notification.ListEmails).
		POST("", h.Notification.SendEmail).
		GET("/:id", h.Notification.GetEmail)
}

func activityRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("activities", "/activities").
		GET("", h.Activity.List).
		POST("", h.Activity.Record).
		GET("/recent", h.Activity.Recent)
}

func workflowRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("workflows", "/workflows").Use(internalOnly)
	g.GET("", h.Workflow.List).
		GET("/runs", h.Workflow.ListRuns).
		GET("/runs/:id", h.Workflow.GetRun).
		POST("/runs/:id/cancel", h.Workflow.CancelRun).
		POST("/run", h.Workflow.Run).
		GET("/:id", h.Workflow.GetByID)

	g.Group("workflows-admin", "").Use(staffOnly).
		POST("", h.Workflow.Create).
		PUT("/:id", h.Workflow.Update).
		POST("/:id/activate", h.Workflow.Activate).
		POST("/:id/deactivate", h.Workflow.Deactivate).
		DELETE("/:id", h.Workflow.Delete)
	return g
}

func dashboardRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("dashboard", "/dashboard").
		GET("/overview", h.Dashboard.Overview).
		GET("/calendar", h.Dashboard.Calendar).
		GET("/capital", h.Dashboard.Capital).
		GET("/social-impact", h.Dashboard.SocialImpact).
		GET("/due-diligence", h.Dashboard.DueDiligence)
}
