package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>socialhub-api - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "socialhub-api", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/api/auth/register": {
      "post": {
        "summary": "Self-register an identity with role User",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["username","email","password"],"properties":{"username":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "201": { "description": "created" }, "400": { "description": "missing field" }, "409": { "description": "email already registered" } }
      }
    },
    "/api/auth/login": {
      "post": {
        "summary": "Exchange email and password for an access token",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["email","password"],"properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "token, username, expiresIn" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } }
      }
    },
    "/api/auth/validate": {
      "get": { "summary": "Report the identity of the bearer token", "security": [{"bearer": []}], "responses": { "200": { "description": "valid, username, roles" }, "401": { "description": "invalid token" } } }
    },
    "/api/auth/refresh": {
      "post": { "summary": "Issue a new token for a still-valid bearer token", "security": [{"bearer": []}], "responses": { "200": { "description": "new token" }, "400": { "description": "token lacks subject or name" }, "401": { "description": "invalid token" } } }
    },
    "/api/auth/logout": {
      "post": { "summary": "Revoke the bearer token", "security": [{"bearer": []}], "responses": { "204": { "description": "revoked" } } }
    },
    "/api/auth/keys/refresh": {
      "post": { "summary": "Reload the verification key (Admin)", "security": [{"bearer": []}], "responses": { "204": { "description": "reloaded" }, "403": { "description": "forbidden" }, "503": { "description": "key vault unavailable" } } }
    },
    "/api/users": {
      "post": { "summary": "Create an identity with a temporary password (Admin)", "security": [{"bearer": []}], "responses": { "201": { "description": "id and temporaryPassword" } } }
    },
    "/api/users/{id}": {
      "get": { "summary": "Get an identity", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update the username (owner or Admin)", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "403": { "description": "forbidden" } } },
      "delete": { "summary": "Deactivate an identity (owner or Admin)", "security": [{"bearer": []}], "responses": { "204": { "description": "deactivated" } } }
    },
    "/api/posts": {
      "get": { "summary": "List posts", "responses": { "200": { "description": "posts" } } },
      "post": { "summary": "Create a post", "security": [{"bearer": []}], "responses": { "201": { "description": "post" } } }
    },
    "/api/posts/{id}": {
      "get": { "summary": "Get a post", "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Edit a post (author only)", "security": [{"bearer": []}], "responses": { "200": { "description": "post" }, "403": { "description": "forbidden" } } },
      "delete": { "summary": "Delete a post (author only)", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/media": {
      "post": { "summary": "Upload an image or video (multipart field file)", "security": [{"bearer": []}], "responses": { "201": { "description": "media" }, "413": { "description": "too large" }, "415": { "description": "unsupported type" } } }
    },
    "/api/media/{id}": {
      "get": { "summary": "Get media metadata and a presigned URL", "security": [{"bearer": []}], "responses": { "200": { "description": "media and url" } } },
      "delete": { "summary": "Delete media (owner only)", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/graphql": { "post": { "summary": "GraphQL viewer, user and posts queries", "responses": { "200": { "description": "result" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
