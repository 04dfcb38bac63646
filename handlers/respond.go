package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/authz"
	"github.com/socialhub/socialhub/backend/go-services/internal/keyvault"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
)

// internalError logs the failure with the operation and caller and answers
// without leaking the error text.
func internalError(c *gin.Context, op string, err error) {
	sub := ""
	if cl := authz.ClaimsFrom(c); cl != nil {
		sub = cl.Subject
	}
	if errors.Is(err, keyvault.ErrUpstream) {
		logger.Errorf("%s failed (subject=%q): %v", op, sub, err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}
	logger.Errorf("%s failed (subject=%q): %v", op, sub, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
