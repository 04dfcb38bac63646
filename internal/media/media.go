// Package media stores uploaded files in a blob store and keeps their
// metadata in a repository. Only the uploader may delete a file.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
)

var (
	ErrNotFound        = errors.New("media not found")
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("file too large")
	ErrEmptyFile       = errors.New("file is empty")
)

// MaxUploadSize bounds a single upload.
const MaxUploadSize = 10 << 20

// URLExpiry is how long a download URL stays usable.
const URLExpiry = 15 * time.Minute

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
}

// Media is the metadata of one stored file.
type Media struct {
	ID          string    `json:"id" bson:"_id"`
	OwnerID     string    `json:"ownerId" bson:"ownerId"`
	Key         string    `json:"-" bson:"key"`
	FileName    string    `json:"fileName" bson:"fileName"`
	ContentType string    `json:"contentType" bson:"contentType"`
	Size        int64     `json:"size" bson:"size"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// BlobStore is the object storage the service writes to.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Service coordinates blob and metadata writes.
type Service struct {
	blobs BlobStore
	repo  Repository
}

func NewService(blobs BlobStore, repo Repository) *Service {
	return &Service{blobs: blobs, repo: repo}
}

// Upload stores r for ownerID under media/<ownerID>/<id>.
func (s *Service) Upload(ctx context.Context, ownerID, fileName, contentType string, size int64, r io.Reader) (*Media, error) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if size <= 0 {
		return nil, ErrEmptyFile
	}
	if size > MaxUploadSize {
		return nil, ErrTooLarge
	}
	id := uuid.NewString()
	m := &Media{
		ID:          id,
		OwnerID:     ownerID,
		Key:         path.Join("media", ownerID, id),
		FileName:    path.Base(fileName),
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.blobs.Put(ctx, m.Key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}
	if err := s.repo.Create(ctx, m); err != nil {
		// metadata failed; do not leave an orphaned blob behind
		if derr := s.blobs.Delete(ctx, m.Key); derr != nil {
			logger.Warnf("cleanup blob %s: %v", m.Key, derr)
		}
		return nil, fmt.Errorf("store metadata: %w", err)
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Media, error) {
	return s.repo.Get(ctx, id)
}

// URL returns a time-limited download URL for m.
func (s *Service) URL(ctx context.Context, m *Media) (string, error) {
	return s.blobs.PresignedURL(ctx, m.Key, URLExpiry)
}

// Delete removes the blob first, then the metadata.
func (s *Service) Delete(ctx context.Context, m *Media) error {
	if err := s.blobs.Delete(ctx, m.Key); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return s.repo.Delete(ctx, m.ID)
}
