package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/authz"
	"github.com/socialhub/socialhub/backend/go-services/internal/post/service"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
)

type contentRequest struct {
	Content string `json:"content" binding:"required"`
}

// RegisterPostRoutes mounts /posts on rg. Reads are public; writes need
// requireAuth and changes to an existing post need ownership.
func RegisterPostRoutes(rg *gin.RouterGroup, svc service.Service, requireAuth gin.HandlerFunc) {
	rg.GET("/posts", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			fail(c, "list posts", err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	rg.GET("/posts/:id", func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, "get post", err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	rg.POST("/posts", requireAuth, func(c *gin.Context) {
		var req contentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
		p, err := svc.Create(c.Request.Context(), authz.ClaimsFrom(c).Subject, req.Content)
		if err != nil {
			fail(c, "create post", err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	rg.PATCH("/posts/:id", requireAuth, func(c *gin.Context) {
		var req contentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
		ctx := c.Request.Context()
		p, err := svc.Get(ctx, c.Param("id"))
		if err != nil {
			fail(c, "get post", err)
			return
		}
		if !authz.CheckOwner(c, p.AuthorID) {
			return
		}
		updated, err := svc.Update(ctx, p.ID, req.Content)
		if err != nil {
			fail(c, "update post", err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	rg.DELETE("/posts/:id", requireAuth, func(c *gin.Context) {
		ctx := c.Request.Context()
		p, err := svc.Get(ctx, c.Param("id"))
		if err != nil {
			fail(c, "get post", err)
			return
		}
		if !authz.CheckOwner(c, p.AuthorID) {
			return
		}
		if err := svc.Delete(ctx, p.ID); err != nil {
			fail(c, "delete post", err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
