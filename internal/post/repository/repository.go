package repository

import (
	"context"
	"errors"

	"github.com/socialhub/socialhub/backend/go-services/internal/post"
)

var (
	ErrNotFound = errors.New("post not found")
)

// Repository persists posts
type Repository interface {
	Create(ctx context.Context, p *post.Post) (string, error)
	Get(ctx context.Context, id string) (*post.Post, error)
	List(ctx context.Context) ([]*post.Post, error)
	Update(ctx context.Context, id string, content string) (*post.Post, error)
	Delete(ctx context.Context, id string) error
}
