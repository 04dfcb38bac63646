package media

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socialhub/socialhub/backend/go-services/internal/authz"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
)

// RegisterRoutes mounts /media on rg.
func RegisterRoutes(rg *gin.RouterGroup, svc *Service, requireAuth gin.HandlerFunc) {
	rg.POST("/media", requireAuth, func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<20)
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
			return
		}
		defer f.Close()

		m, err := svc.Upload(c.Request.Context(), authz.ClaimsFrom(c).Subject, fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
		if err != nil {
			fail(c, "upload media", err)
			return
		}
		c.JSON(http.StatusCreated, m)
	})

	rg.GET("/media/:id", func(c *gin.Context) {
		ctx := c.Request.Context()
		m, err := svc.Get(ctx, c.Param("id"))
		if err != nil {
			fail(c, "get media", err)
			return
		}
		u, err := svc.URL(ctx, m)
		if err != nil {
			fail(c, "presign media", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"media": m, "url": u})
	})

	rg.DELETE("/media/:id", requireAuth, func(c *gin.Context) {
		ctx := c.Request.Context()
		m, err := svc.Get(ctx, c.Param("id"))
		if err != nil {
			fail(c, "get media", err)
			return
		}
		if !authz.CheckOwner(c, m.OwnerID) {
			return
		}
		if err := svc.Delete(ctx, m); err != nil {
			fail(c, "delete media", err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
