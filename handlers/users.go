package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/authz"
	"github.com/socialhub/socialhub/backend/go-services/internal/models"
	"github.com/socialhub/socialhub/backend/go-services/internal/users"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
)

// UserResponse is the public view of an identity
type UserResponse struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	Role                string     `json:"role"`
	IsTemporaryPassword bool       `json:"isTemporaryPassword"`
	IsActive            bool       `json:"isActive"`
	RegisteredAt        time.Time  `json:"registeredAt"`
	LastUpdatedAt       time.Time  `json:"lastUpdatedAt"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Role:                u.Role,
		IsTemporaryPassword: u.IsTemporaryPassword,
		IsActive:            u.IsActive,
		RegisteredAt:        u.RegisteredAt,
		LastUpdatedAt:       u.LastUpdatedAt,
		LastLoginAt:         u.LastLoginAt,
	}
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Username string `json:"username" binding:"required"`
}

// UsersHandler serves identity administration
type UsersHandler struct {
	users *users.Service
}

func NewUsersHandler(u *users.Service) *UsersHandler { return &UsersHandler{users: u} }

// Register routes under /users; all of them need an authenticated caller.
func (h *UsersHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	g := rg.Group("/users", requireAuth)
	g.POST("", authz.RequireRoles(models.RoleAdmin), h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// Create lets an admin add an identity with a temporary password
func (h *UsersHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and email are required")
		return
	}
	u, temp, err := h.users.CreateByAdmin(c.Request.Context(), req.Username, req.Email, req.Role)
	switch {
	case errors.Is(err, users.ErrInvalidInput), errors.Is(err, users.ErrInvalidRole):
		badRequest(c, err.Error())
		return
	case errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	case err != nil:
		internalError(c, "create user", err)
		return
	}
	logger.Infof("identity %s created by %s", u.ID, authz.ClaimsFrom(c).Subject)
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "temporaryPassword": temp})
}

func (h *UsersHandler) Get(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, users.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		internalError(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

// Update changes the profile; only the owner or an admin may do it
func (h *UsersHandler) Update(c *gin.Context) {
	id := c.Param("id")
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username is required")
		return
	}
	if !authz.CheckOwnerOrRole(c, id, models.RoleAdmin) {
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), id, req.Username)
	switch {
	case errors.Is(err, users.ErrInvalidInput):
		badRequest(c, "username is required")
		return
	case errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	case err != nil:
		internalError(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

// Delete deactivates the identity
func (h *UsersHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !authz.CheckOwnerOrRole(c, id, models.RoleAdmin) {
		return
	}
	err := h.users.Deactivate(c.Request.Context(), id)
	if errors.Is(err, users.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		internalError(c, "deactivate user", err)
		return
	}
	c.Status(http.StatusNoContent)
}
