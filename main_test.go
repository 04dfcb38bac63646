package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/config"
	"github.com/socialhub/socialhub/backend/go-services/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT: config.JWTConfig{
			Issuer:    "socialhub-api",
			Audience:  "socialhub-clients",
			Lifetime:  time.Hour,
			ClockSkew: tokens.DefaultClockSkew,
		},
		RateLimit: config.RateLimitConfig{Enabled: true, RPS: 100, Burst: 100},
	}
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApp_InMemoryWiring(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.close()
	r := a.router(cfg)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	w := serve(r, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"keys":true`)

	w = serve(r, http.MethodPost, "/api/auth/register", `{"username":"alice","email":"a@x.com","password":"P1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = serve(r, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"P1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/graphql", `{"query":"{ viewer { id } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"viewer":null}}`, w.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestApp_WithRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := mr.RunT(t)
	host, port, _ := strings.Cut(s.Addr(), ":")
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Host: host, Port: port}
	cfg.RateLimit.UseRedis = true
	cfg.RateLimit.WindowSeconds = 1

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.close()
	require.NotNil(t, a.redis)
	assert.True(t, a.revoked.Enabled())

	r := a.router(cfg)
	w := serve(r, http.MethodGet, "/ready", "")
	assert.Contains(t, w.Body.String(), `"redis":true`)
}

func TestNewKeyProvider_ProductionRequiresVault(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Environment = "production"
	_, err := newKeyProvider(cfg)
	require.Error(t, err)
}
