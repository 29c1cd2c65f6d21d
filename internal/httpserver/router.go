package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sprinthub/internal/handler"
	"sprinthub/internal/service"
	"sprinthub/pkg/mq"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Project *handler.ProjectHandler
	Sprint  *handler.SprintHandler
	Task    *handler.TaskHandler
	Audit   *handler.AuditHandler
	Admin   *handler.AdminHandler
}

// NewRouter wires all routes. Everything except login and the probes
// sits behind the auth middleware.
func NewRouter(h Handlers, auth *service.AuthService, pool *pgxpool.Pool, publisher *mq.Publisher, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
			return
		}
		if publisher != nil && !publisher.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "message queue"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/login", h.Auth.Login)

	api := r.Group("/")
	api.Use(AuthMiddleware(auth))
	{
		api.GET("/me", h.Auth.Me)
		api.PATCH("/me", h.Auth.UpdateMe)

		api.GET("/users", h.User.List)
		api.POST("/users", h.User.Create)
		api.GET("/users/:id", h.User.Get)
		api.PATCH("/users/:id", h.User.Update)
		api.DELETE("/users/:id", h.User.Delete)

		api.GET("/projects", h.Project.List)
		api.POST("/projects", h.Project.Create)
		api.GET("/projects/:id", h.Project.Get)
		api.PATCH("/projects/:id", h.Project.Update)
		api.DELETE("/projects/:id", h.Project.Delete)

		api.GET("/sprints", h.Sprint.List)
		api.POST("/sprints", h.Sprint.Create)
		api.GET("/sprints/:id", h.Sprint.Get)
		api.PATCH("/sprints/:id", h.Sprint.Update)
		api.POST("/sprints/:id/complete", h.Sprint.Complete)
		api.DELETE("/sprints/:id", h.Sprint.Delete)

		api.GET("/tasks", h.Task.List)
		api.GET("/tasks/my", h.Task.ListMine)
		api.POST("/tasks", h.Task.Create)
		api.GET("/tasks/:id", h.Task.Get)
		api.PATCH("/tasks/:id", h.Task.Update)
		api.PATCH("/tasks/:id/status", h.Task.TransitionStatus)
		api.DELETE("/tasks/:id", h.Task.Delete)

		api.GET("/audit", h.Audit.List)

		admin := api.Group("/admin")
		{
			admin.DELETE("/users/:id", h.Admin.HardDeleteUser)
			admin.DELETE("/projects/:id", h.Admin.HardDeleteProject)
			admin.DELETE("/sprints/:id", h.Admin.HardDeleteSprint)
			admin.DELETE("/tasks/:id", h.Admin.HardDeleteTask)
			admin.POST("/outbox/:id/replay", h.Admin.ReplayOutboxEvent)
		}
	}

	return r
}
