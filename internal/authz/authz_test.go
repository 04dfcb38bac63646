package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAuthorize(t *testing.T) {
	user := &tokens.Claims{Subject: "u1", Roles: tokens.Roles{"User"}}
	admin := &tokens.Claims{Subject: "a1", Roles: tokens.Roles{"User", "Admin"}}

	cases := []struct {
		name   string
		claims *tokens.Claims
		roles  []string
		owner  *string
		want   Decision
	}{
		{"no claims", nil, nil, nil, DenyUnauthenticated},
		{"any authenticated", user, nil, nil, Allow},
		{"role held", admin, []string{"Admin"}, nil, Allow},
		{"role missing", user, []string{"Admin"}, nil, DenyRole},
		{"one of several roles", user, []string{"Admin", "User"}, nil, Allow},
		{"owner matches", user, nil, strPtr("u1"), Allow},
		{"owner differs", user, nil, strPtr("u2"), DenyNotOwner},
		{"admin is not owner", admin, nil, strPtr("u1"), DenyNotOwner},
		{"role checked before owner", user, []string{"Admin"}, strPtr("u2"), DenyRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.claims, tc.roles, tc.owner))
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	cl := &tokens.Claims{Subject: "u1"}
	ctx := NewContext(context.Background(), cl)
	require.Same(t, cl, FromContext(ctx))
	require.Nil(t, FromContext(context.Background()))
}

func serve(t *testing.T, claims *tokens.Claims, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := []gin.HandlerFunc{func(c *gin.Context) {
		if claims != nil {
			SetClaims(c, claims)
		}
		c.Next()
	}}
	chain = append(chain, handlers...)
	r.GET("/", chain...)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestRequireRoles(t *testing.T) {
	w := serve(t, nil, RequireRoles("Admin"), ok)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "unauthorized", body(t, w)["error"])

	w = serve(t, &tokens.Claims{Subject: "u1", Roles: tokens.Roles{"User"}}, RequireRoles("Admin"), ok)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, map[string]string{"error": "forbidden", "reason": "role"}, body(t, w))

	w = serve(t, &tokens.Claims{Subject: "a1", Roles: tokens.Roles{"Admin"}}, RequireRoles("Admin"), ok)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCheckOwner(t *testing.T) {
	handler := func(c *gin.Context) {
		if !CheckOwner(c, "u1") {
			return
		}
		c.Status(http.StatusOK)
	}
	require.Equal(t, http.StatusOK, serve(t, &tokens.Claims{Subject: "u1"}, handler).Code)

	w := serve(t, &tokens.Claims{Subject: "a1", Roles: tokens.Roles{"Admin"}}, handler)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "owner", body(t, w)["reason"])
}

func TestCheckOwnerOrRole(t *testing.T) {
	handler := func(c *gin.Context) {
		if !CheckOwnerOrRole(c, "u1", "Admin") {
			return
		}
		c.Status(http.StatusOK)
	}
	require.Equal(t, http.StatusOK, serve(t, &tokens.Claims{Subject: "u1", Roles: tokens.Roles{"User"}}, handler).Code)
	require.Equal(t, http.StatusOK, serve(t, &tokens.Claims{Subject: "a1", Roles: tokens.Roles{"Admin"}}, handler).Code)

	w := serve(t, &tokens.Claims{Subject: "u2", Roles: tokens.Roles{"User"}}, handler)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "owner", body(t, w)["reason"])

	require.Equal(t, http.StatusUnauthorized, serve(t, nil, handler).Code)
}
