package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/authz"
	"github.com/socialhub/socialhub/backend/go-services/internal/tokens"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
)

// TokenValidator is the minimal interface the middleware depends on
type TokenValidator interface {
	Validate(ctx context.Context, raw string) (*tokens.Claims, error)
}

// ActiveChecker reports whether the identity behind a subject is still active.
type ActiveChecker func(ctx context.Context, subjectID string) (bool, error)

// AuthOptions tunes RequireAuth. A nil RecheckActive keeps tokens valid for
// their whole lifetime even after the identity is deactivated.
type AuthOptions struct {
	RecheckActive ActiveChecker
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is case-insensitive; a token containing whitespace is rejected.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", false
	}
	return token, true
}

// RequireAuth returns a Gin middleware that validates Bearer tokens and stores
// the verified claims on the request.
func RequireAuth(v TokenValidator, opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, v, opts)
		if !ok {
			authz.Deny(c, authz.DenyUnauthenticated)
			return
		}
		authz.SetClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is presented and lets the
// request through either way.
func OptionalAuth(v TokenValidator, opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, ok := authenticate(c, v, opts); ok {
				authz.SetClaims(c, claims)
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, v TokenValidator, opts AuthOptions) (*tokens.Claims, bool) {
	raw, ok := BearerToken(c.GetHeader("Authorization"))
	if !ok {
		return nil, false
	}
	ctx := c.Request.Context()
	claims, err := v.Validate(ctx, raw)
	if err != nil {
		if !errors.Is(err, tokens.ErrInvalidToken) {
			logger.Errorf("token validation fault on %s %s: %v", c.Request.Method, c.FullPath(), err)
		}
		return nil, false
	}
	if opts.RecheckActive != nil {
		active, err := opts.RecheckActive(ctx, claims.Subject)
		if err != nil {
			logger.Errorf("active recheck for %s: %v", claims.Subject, err)
			return nil, false
		}
		if !active {
			logger.Debugf("rejecting token of inactive identity %s", claims.Subject)
			return nil, false
		}
	}
	return claims, true
}
