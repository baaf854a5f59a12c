package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Comments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedBoard(t, s, "Talk")
	task := seedTask(t, s, f.list.ID, "discussed")

	c := &Comment{Content: "first", UserID: f.user.ID, TaskItemID: task.ID}
	require.NoError(t, s.CreateComment(ctx, c))
	assert.NotZero(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	assert.ErrorIs(t, s.CreateComment(ctx, &Comment{Content: "x", UserID: f.user.ID, TaskItemID: 999}), ErrValidation)
	assert.ErrorIs(t, s.CreateComment(ctx, &Comment{Content: "x", UserID: "ghost", TaskItemID: task.ID}), ErrValidation)

	edit := &Comment{ID: c.ID, Content: "edited", UserID: f.user.ID, TaskItemID: task.ID}
	require.NoError(t, s.UpdateComment(ctx, c.ID, edit))
	assert.True(t, c.CreatedAt.Equal(edit.CreatedAt))
	assert.ErrorIs(t, s.UpdateComment(ctx, c.ID+1, edit), ErrValidation)

	comments, err := s.CommentsByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "edited", comments[0].Content)

	_, err = s.CommentsByTask(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteComment(ctx, c.ID))
	_, err = s.GetComment(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
