package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sprinthub/internal/model"
	"sprinthub/internal/repository"
	"sprinthub/internal/service"
)

type AuditHandler struct {
	audit *service.AuditService
}

func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit entries newest first, filterable by action,
// entity type and acting user.
func (h *AuditHandler) List(c *gin.Context) {
	f := repository.AuditFilter{
		Action:     model.AuditAction(c.Query("action")),
		EntityType: c.Query("entity_type"),
	}
	if v := c.Query("user_id"); v != "" {
		actorID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		f.ActorID = actorID
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		f.Limit = limit
	}

	entries, err := h.audit.List(c.Request.Context(), actorFrom(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
