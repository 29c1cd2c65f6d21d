package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprinthub/internal/model"
	"sprinthub/internal/repository"
	"sprinthub/internal/service"
)

type SprintHandler struct {
	sprints *service.SprintService
	logger  *zap.Logger
}

func NewSprintHandler(sprints *service.SprintService, logger *zap.Logger) *SprintHandler {
	return &SprintHandler{sprints: sprints, logger: logger}
}

func (h *SprintHandler) List(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true"
	sprints, err := h.sprints.List(c.Request.Context(), actorFrom(c), includeDeleted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sprints": sprints})
}

func (h *SprintHandler) Create(c *gin.Context) {
	var in service.CreateSprintInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sp, err := h.sprints.Create(c.Request.Context(), actorFrom(c), in, metaFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}

func (h *SprintHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sprint id"})
		return
	}

	sp, err := h.sprints.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

type updateSprintRequest struct {
	Name         *string    `json:"name"`
	StartDate    *time.Time `json:"start_date"`
	DurationDays *int       `json:"duration_days"`
	Status       *string    `json:"status"`
}

// sprintResponse carries the auto-created next sprint alongside the
// updated one when a completion cascade fired.
func sprintResponse(c *gin.Context, updated, created *model.Sprint) {
	if created != nil {
		c.JSON(http.StatusOK, gin.H{"sprint": updated, "next_sprint": created})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sprint": updated})
}

func (h *SprintHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sprint id"})
		return
	}

	var req updateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := repository.SprintPatch{
		Name:         req.Name,
		StartDate:    req.StartDate,
		DurationDays: req.DurationDays,
	}
	if req.Status != nil {
		status := model.SprintStatus(*req.Status)
		patch.Status = &status
	}

	updated, created, err := h.sprints.Update(c.Request.Context(), actorFrom(c), id, patch, metaFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sprintResponse(c, updated, created)
}

func (h *SprintHandler) Complete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sprint id"})
		return
	}

	updated, created, err := h.sprints.Complete(c.Request.Context(), actorFrom(c), id, metaFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sprintResponse(c, updated, created)
}

func (h *SprintHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sprint id"})
		return
	}

	if err := h.sprints.SoftDelete(c.Request.Context(), actorFrom(c), id, metaFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
