package service

import (
	"context"
	"errors"
	"strings"

	"github.com/socialhub/socialhub/backend/go-services/internal/post"
	"github.com/socialhub/socialhub/backend/go-services/internal/post/repository"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidContent = errors.New("content must be between 1 and 4096 bytes")
)

// MaxContentLength bounds a post body in bytes.
const MaxContentLength = 4096

// Service defines the post operations used by the handler layer. Ownership is
// enforced by the caller after Get.
type Service interface {
	Create(ctx context.Context, authorID, content string) (*post.Post, error)
	Get(ctx context.Context, id string) (*post.Post, error)
	List(ctx context.Context) ([]*post.Post, error)
	Update(ctx context.Context, id, content string) (*post.Post, error)
	Delete(ctx context.Context, id string) error
}

// New returns a Service over repo.
func New(repo repository.Repository) Service {
	return &service{repo: repo}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo())
}

type service struct {
	repo repository.Repository
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > MaxContentLength {
		return "", ErrInvalidContent
	}
	return content, nil
}

func (s *service) Create(ctx context.Context, authorID, content string) (*post.Post, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}
	p := &post.Post{AuthorID: authorID, Content: content}
	if _, err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id string) (*post.Post, error) {
	return mapNotFound(s.repo.Get(ctx, id))
}

func (s *service) List(ctx context.Context) ([]*post.Post, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, id, content string) (*post.Post, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}
	return mapNotFound(s.repo.Update(ctx, id, content))
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func mapNotFound(p *post.Post, err error) (*post.Post, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}
