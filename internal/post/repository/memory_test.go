package repository

import (
	"context"
	"testing"

	"github.com/socialhub/socialhub/backend/go-services/internal/post"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	p := &post.Post{AuthorID: "u1", Content: "hello"}
	id, err := r.Create(ctx, p)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "hello", got.Content)
	require.Equal(t, "u1", got.AuthorID)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	updated, err := r.Update(ctx, id, "new")
	require.NoError(t, err)
	require.Equal(t, "new", updated.Content)
	require.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	require.NoError(t, r.Delete(ctx, id))
	_, err = r.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, id), ErrNotFound)
	_, err = r.Update(ctx, id, "x")
	require.ErrorIs(t, err, ErrNotFound)
}
