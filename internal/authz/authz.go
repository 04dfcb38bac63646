// Package authz decides whether a verified caller may perform an action.
// Authorize is pure; the gin helpers translate its decision into responses.
package authz

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/tokens"
)

// Decision is the outcome of Authorize.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyRole
	DenyNotOwner
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyRole:
		return "role"
	case DenyNotOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Authorize checks roles first, then ownership. An empty requiredRoles means
// any authenticated caller; a nil ownerID skips the ownership check.
// Ownership is judged on the subject alone, whatever roles the caller holds.
func Authorize(claims *tokens.Claims, requiredRoles []string, ownerID *string) Decision {
	if claims == nil {
		return DenyUnauthenticated
	}
	if len(requiredRoles) > 0 && !hasAny(claims.Roles, requiredRoles) {
		return DenyRole
	}
	if ownerID != nil && *ownerID != claims.Subject {
		return DenyNotOwner
	}
	return Allow
}

func hasAny(have tokens.Roles, want []string) bool {
	for _, w := range want {
		if have.Has(w) {
			return true
		}
	}
	return false
}

const claimsKey = "claims"

type ctxKey struct{}

// NewContext returns ctx carrying claims.
func NewContext(ctx context.Context, claims *tokens.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// FromContext returns the claims stored by NewContext, or nil.
func FromContext(ctx context.Context) *tokens.Claims {
	c, _ := ctx.Value(ctxKey{}).(*tokens.Claims)
	return c
}

// SetClaims attaches claims to both the gin and the request context.
func SetClaims(c *gin.Context, claims *tokens.Claims) {
	c.Set(claimsKey, claims)
	c.Request = c.Request.WithContext(NewContext(c.Request.Context(), claims))
}

// ClaimsFrom returns the verified claims of the current request, or nil.
func ClaimsFrom(c *gin.Context) *tokens.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if cl, ok := v.(*tokens.Claims); ok {
			return cl
		}
	}
	return FromContext(c.Request.Context())
}

// Deny writes the response for a non-Allow decision and aborts.
func Deny(c *gin.Context, d Decision) {
	switch d {
	case DenyUnauthenticated:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "reason": d.String()})
	}
}

// RequireRoles is the coarse route-level check. It must run after the
// authentication middleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d := Authorize(ClaimsFrom(c), roles, nil); d != Allow {
			Deny(c, d)
			return
		}
		c.Next()
	}
}

// CheckOwner is the per-resource check run by handlers after loading the
// resource. It writes the denial itself and returns false when denied.
func CheckOwner(c *gin.Context, ownerID string) bool {
	if d := Authorize(ClaimsFrom(c), nil, &ownerID); d != Allow {
		Deny(c, d)
		return false
	}
	return true
}

// CheckOwnerOrRole allows the owner, or any caller holding one of roles.
func CheckOwnerOrRole(c *gin.Context, ownerID string, roles ...string) bool {
	claims := ClaimsFrom(c)
	if Authorize(claims, nil, &ownerID) == Allow {
		return true
	}
	d := Authorize(claims, roles, nil)
	if d == Allow {
		return true
	}
	if d == DenyRole {
		d = DenyNotOwner
	}
	Deny(c, d)
	return false
}
