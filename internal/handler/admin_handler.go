package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprinthub/internal/repository"
	"sprinthub/internal/service"
)

// AdminHandler is the hard-delete and outbox-replay surface. Hard
// deletes follow the same ownership policy as soft deletes (the Owner
// unrestricted, a PM within its own resources) and resolve soft-deleted
// rows too, which is how a record is purged after being hidden from the
// default views.
type AdminHandler struct {
	users    *service.UserService
	projects *service.ProjectService
	sprints  *service.SprintService
	tasks    *service.TaskService
	auth     *service.AuthService
	events   *service.OutboxService
	logger   *zap.Logger
}

func NewAdminHandler(
	users *service.UserService,
	projects *service.ProjectService,
	sprints *service.SprintService,
	tasks *service.TaskService,
	auth *service.AuthService,
	events *service.OutboxService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{users: users, projects: projects, sprints: sprints, tasks: tasks, auth: auth, events: events, logger: logger}
}

func (h *AdminHandler) hardDelete(c *gin.Context, entity string, fn func(ctx *gin.Context, id int, meta repository.RequestMeta) error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + entity + " id"})
		return
	}

	if err := fn(c, id, metaFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) HardDeleteUser(c *gin.Context) {
	h.hardDelete(c, "user", func(ctx *gin.Context, id int, meta repository.RequestMeta) error {
		if err := h.users.HardDelete(ctx.Request.Context(), actorFrom(ctx), id, meta); err != nil {
			return err
		}
		h.auth.InvalidateActor(ctx.Request.Context(), id)
		return nil
	})
}

func (h *AdminHandler) HardDeleteProject(c *gin.Context) {
	h.hardDelete(c, "project", func(ctx *gin.Context, id int, meta repository.RequestMeta) error {
		return h.projects.HardDelete(ctx.Request.Context(), actorFrom(ctx), id, meta)
	})
}

func (h *AdminHandler) HardDeleteSprint(c *gin.Context) {
	h.hardDelete(c, "sprint", func(ctx *gin.Context, id int, meta repository.RequestMeta) error {
		return h.sprints.HardDelete(ctx.Request.Context(), actorFrom(ctx), id, meta)
	})
}

func (h *AdminHandler) HardDeleteTask(c *gin.Context) {
	h.hardDelete(c, "task", func(ctx *gin.Context, id int, meta repository.RequestMeta) error {
		return h.tasks.HardDelete(ctx.Request.Context(), actorFrom(ctx), id, meta)
	})
}

// ReplayOutboxEvent re-queues a failed outbox event for dispatch.
func (h *AdminHandler) ReplayOutboxEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.events.Replay(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "pending"})
}
