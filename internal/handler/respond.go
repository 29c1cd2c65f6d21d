package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sprinthub/internal/apperr"
	"sprinthub/internal/model"
	"sprinthub/internal/repository"
)

// respondError maps the core error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindPersistence:
		status = http.StatusInternalServerError
	}

	msg := appErr.Message
	if appErr.Kind == apperr.KindPersistence {
		// Storage details stay in the logs.
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// actorFrom returns the actor the auth middleware resolved.
func actorFrom(c *gin.Context) model.Actor {
	v, _ := c.Get("actor")
	actor, _ := v.(model.Actor)
	return actor
}

// metaFrom captures the request context recorded in audit entries.
func metaFrom(c *gin.Context) repository.RequestMeta {
	actor := actorFrom(c)
	return repository.Meta(actor.ID, c.Request.URL.Path, c.Request.Method, c.ClientIP())
}
