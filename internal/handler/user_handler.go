package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprinthub/internal/service"
)

type UserHandler struct {
	users  *service.UserService
	auth   *service.AuthService
	logger *zap.Logger
}

func NewUserHandler(users *service.UserService, auth *service.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, auth: auth, logger: logger}
}

func (h *UserHandler) List(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true"
	users, err := h.users.List(c.Request.Context(), actorFrom(c), includeDeleted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) Create(c *gin.Context) {
	var in service.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	u, err := h.users.Create(c.Request.Context(), actorFrom(c), in, metaFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	u, err := h.users.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateUserRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	u, err := h.users.UpdateName(c.Request.Context(), actorFrom(c), id, req.Name, metaFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	h.auth.InvalidateActor(c.Request.Context(), id)
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.users.SoftDelete(c.Request.Context(), actorFrom(c), id, metaFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	h.auth.InvalidateActor(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}
