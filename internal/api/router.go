package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api/handlers"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/config"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/policy"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterDeps wires the HTTP surface.
type RouterDeps struct {
	Config   *config.Config
	Handlers *handlers.Handlers
	Auth     service.AuthService
	// WebSocket serves GET /api/ws. Nil disables the route.
	WebSocket gin.HandlerFunc
	// Health adds component status to GET /health.
	Health func() gin.H
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		sentry.CurrentHub().Recover(recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "Internal"})
	}))

	// Configure CORS
	r.Use(cors.New(corsConfig(deps.Config.FrontendURL)))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		}
		if deps.Health != nil {
			for k, v := range deps.Health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})

	h := deps.Handlers
	api := r.Group("/api")
	{
		// ============================================
		// Public routes (no auth required)
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", h.Auth.Logout)
		}

		// WebSocket route authenticates its own token
		if deps.WebSocket != nil {
			api.GET("/ws", deps.WebSocket)
		}

		// ============================================
		// Protected routes (require auth middleware)
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Auth))
		{
			protected.GET("/auth/me", h.Auth.Me)

			// User routes
			users := protected.Group("/users")
			{
				users.GET("", middleware.RequireRoles(policy.UserList), h.User.List)
				users.GET("/admins", middleware.RequireRoles(policy.UserListAdmins), h.User.ListAdmins)
				users.PATCH("/:id/toggle-access", middleware.RequireRoles(policy.UserToggleAccess), h.User.ToggleAdminAccess)
				users.DELETE("/:id", middleware.RequireRoles(policy.UserDelete), h.User.Delete)
			}

			// Team routes
			teams := protected.Group("/teams")
			{
				teams.POST("", middleware.RequireRoles(policy.TeamCreate), h.Team.Create)
				teams.GET("", middleware.RequireRoles(policy.TeamList), h.Team.List)
				teams.POST("/transfer", middleware.RequireRoles(policy.TeamTransferMember), h.Team.TransferMember)
				teams.GET("/:id", middleware.RequireRoles(policy.TeamGet), h.Team.Get)
				teams.PUT("/:id", middleware.RequireRoles(policy.TeamUpdate), h.Team.Update)
				teams.DELETE("/:id", middleware.RequireRoles(policy.TeamDelete), h.Team.Delete)

				// Membership
				teams.POST("/:id/members", middleware.RequireRoles(policy.TeamAddMember), h.Team.AddMember)
				teams.DELETE("/:id/members/:userId", middleware.RequireRoles(policy.TeamRemoveMember), h.Team.RemoveMember)
			}

			// Task routes
			tasks := protected.Group("/tasks")
			{
				tasks.POST("", middleware.RequireRoles(policy.TaskCreate), h.Task.Create)
				tasks.GET("", middleware.RequireRoles(policy.TaskFilter), h.Task.List)
				tasks.GET("/team/:teamId", middleware.RequireRoles(policy.TaskListByTeam), h.Task.ListByTeam)
				tasks.GET("/:id", middleware.RequireRoles(policy.TaskGet), h.Task.Get)
				tasks.GET("/:id/history", middleware.RequireRoles(policy.TaskHistory), h.Task.History)

				// Lifecycle
				tasks.PATCH("/:id/start", middleware.RequireRoles(policy.TaskMarkInProgress), h.Task.Start)
				tasks.PATCH("/:id/submit", middleware.RequireRoles(policy.TaskRequestApproval), h.Task.Submit)
				tasks.PATCH("/:id/approve", middleware.RequireRoles(policy.TaskApprove), h.Task.Approve)
				tasks.PATCH("/:id/reject", middleware.RequireRoles(policy.TaskReject), h.Task.Reject)
				tasks.POST("/:id/supersede", middleware.RequireRoles(policy.TaskSupersede), h.Task.Supersede)
			}

			// Time log routes
			timelogs := protected.Group("/timelogs")
			{
				timelogs.POST("/start", middleware.RequireRoles(policy.TimeLogStart), h.TimeLog.Start)
				timelogs.POST("/pause", middleware.RequireRoles(policy.TimeLogPause), h.TimeLog.Pause)
				timelogs.POST("/resume", middleware.RequireRoles(policy.TimeLogResume), h.TimeLog.Resume)
				timelogs.POST("/stop", middleware.RequireRoles(policy.TimeLogStop), h.TimeLog.Stop)
				timelogs.GET("/status", middleware.RequireRoles(policy.TimeLogStatus), h.TimeLog.Status)
				timelogs.GET("/task/:taskId", middleware.RequireRoles(policy.TimeLogTaskTotal), h.TimeLog.TaskTotal)
			}

			// Notification routes
			notifications := protected.Group("/notifications")
			notifications.Use(middleware.RequireRoles(policy.NotificationRead))
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/count", h.Notification.Count)
				notifications.PATCH("/read-all", h.Notification.MarkAllRead)
				notifications.PATCH("/:id/read", h.Notification.MarkRead)
			}

			// Dashboard routes
			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/member", middleware.RequireRoles(policy.DashboardMember), h.Dashboard.Member)
				dashboard.GET("/admin", middleware.RequireRoles(policy.DashboardAdmin), h.Dashboard.Admin)
				dashboard.GET("/system", middleware.RequireRoles(policy.DashboardSystem), h.Dashboard.System)
			}
		}
	}

	return r
}

// corsConfig accepts a comma separated FRONTEND_URL list. "*" echoes any
// origin so credentials still work.
func corsConfig(frontendURL string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	var origins []string
	for _, o := range strings.Split(frontendURL, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	cfg.AllowOrigins = origins
	return cfg
}
