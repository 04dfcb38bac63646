package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/authz"
	"github.com/socialhub/socialhub/backend/go-services/internal/models"
	"github.com/socialhub/socialhub/backend/go-services/internal/tokens"
	"github.com/socialhub/socialhub/backend/go-services/internal/users"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
	"github.com/socialhub/socialhub/backend/go-services/pkg/metrics"
)

// RegisterRequest is the self-registration body
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the password login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenRevoker records revoked token ids.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
}

// KeyRefresher reloads the cached verification key.
type KeyRefresher interface {
	Refresh(ctx context.Context) error
}

// AuthHandler holds dependencies
type AuthHandler struct {
	users     *users.Service
	issuer    *tokens.Issuer
	revoker   TokenRevoker
	keys      KeyRefresher
	clockSkew time.Duration
}

func NewAuthHandler(u *users.Service, iss *tokens.Issuer, rev TokenRevoker, keys KeyRefresher, clockSkew time.Duration) *AuthHandler {
	if clockSkew <= 0 {
		clockSkew = tokens.DefaultClockSkew
	}
	return &AuthHandler{users: u, issuer: iss, revoker: rev, keys: keys, clockSkew: clockSkew}
}

// Register routes under /auth. requireAuth validates bearer tokens; limit may
// be nil and guards the credential endpoints.
func (h *AuthHandler) Register(rg *gin.RouterGroup, requireAuth, limit gin.HandlerFunc) {
	a := rg.Group("/auth")
	open := []gin.HandlerFunc{}
	if limit != nil {
		open = append(open, limit)
	}
	a.POST("/register", append(open, h.RegisterUser)...)
	a.POST("/login", append(open, h.Login)...)
	a.GET("/validate", requireAuth, h.Validate)
	a.POST("/refresh", requireAuth, h.Refresh)
	a.POST("/logout", requireAuth, h.Logout)
	a.POST("/keys/refresh", requireAuth, authz.RequireRoles(models.RoleAdmin), h.RefreshKeys)
}

// RegisterUser creates a self-registered identity
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username, email and password are required")
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidInput):
		badRequest(c, err.Error())
		return
	case errors.Is(err, users.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	case err != nil:
		internalError(c, "register", err)
		return
	}
	logger.Infof("registered identity %s", u.ID)
	c.JSON(http.StatusCreated, gin.H{"id": u.ID})
}

// Login verifies credentials and issues an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		metrics.Logins.WithLabelValues("failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		internalError(c, "login", err)
		return
	}
	tok, err := h.issuer.Issue(ctx, u.ID, u.Username, u.Roles())
	if err != nil {
		internalError(c, "issue token for "+u.ID, err)
		return
	}
	if err := h.users.RecordLogin(ctx, u.ID); err != nil {
		logger.Warnf("record login for %s: %v", u.ID, err)
	}
	metrics.Logins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, tokenResponse(tok, u.Username))
}

// Validate reports the verified identity of the bearer token
func (h *AuthHandler) Validate(c *gin.Context) {
	claims := authz.ClaimsFrom(c)
	roles := []string(claims.Roles)
	if roles == nil {
		roles = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "username": claims.Name, "roles": roles})
}

// Refresh issues a new token for the identity of a still-valid bearer token
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims := authz.ClaimsFrom(c)
	if claims.Subject == "" || claims.Name == "" {
		badRequest(c, "token is missing subject or name")
		return
	}
	tok, err := h.issuer.Issue(c.Request.Context(), claims.Subject, claims.Name, claims.Roles)
	if err != nil {
		internalError(c, "refresh token", err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(tok, claims.Name))
}

// Logout revokes the presented token until it would expire anyway
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := authz.ClaimsFrom(c)
	if h.revoker != nil && claims.ID != "" && claims.ExpiresAt != nil {
		until := claims.ExpiresAt.Time.Add(h.clockSkew)
		if err := h.revoker.Revoke(c.Request.Context(), claims.ID, until); err != nil {
			internalError(c, "logout", err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// RefreshKeys reloads the public key after a rotation
func (h *AuthHandler) RefreshKeys(c *gin.Context) {
	if err := h.keys.Refresh(c.Request.Context()); err != nil {
		internalError(c, "refresh signing key", err)
		return
	}
	logger.Infof("signing key refreshed by %s", authz.ClaimsFrom(c).Subject)
	c.Status(http.StatusNoContent)
}

func tokenResponse(tok tokens.IssuedToken, username string) gin.H {
	return gin.H{"token": tok.Token, "username": username, "expiresIn": int64(tok.ExpiresIn / time.Second)}
}
