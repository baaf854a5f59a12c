package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_BoardRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	desc := "Q3 roadmap"
	b := &Board{Name: "Roadmap", Description: &desc}
	require.NoError(t, s.CreateBoard(ctx, b))
	require.NotZero(t, b.ID)

	got, err := s.GetBoard(ctx, b.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	assert.Nil(t, got.TaskLists)

	got.Name = "Roadmap 2"
	got.Description = nil
	require.NoError(t, s.UpdateBoard(ctx, got.ID, got))

	updated, err := s.GetBoard(ctx, b.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap 2", updated.Name)
	assert.Nil(t, updated.Description)
}

func TestStore_UpdateBoard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := &Board{Name: "Ops"}
	require.NoError(t, s.CreateBoard(ctx, b))

	tests := []struct {
		name    string
		id      int64
		board   *Board
		wantErr error
	}{
		{"id mismatch", b.ID, &Board{ID: b.ID + 1, Name: "x"}, ErrValidation},
		{"missing board", 999, &Board{ID: 999, Name: "x"}, ErrNotFound},
		{"ok", b.ID, &Board{ID: b.ID, Name: "Ops v2"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdateBoard(ctx, tt.id, tt.board)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStore_GetBoardIncludesTaskLists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedBoard(t, s, "Home")
	require.NoError(t, s.CreateTaskList(ctx, &TaskList{Name: "Done", BoardID: f.board.ID}))
	empty := &Board{Name: "Empty"}
	require.NoError(t, s.CreateBoard(ctx, empty))

	got, err := s.GetBoard(ctx, f.board.ID, IncludeTaskLists)
	require.NoError(t, err)
	require.Len(t, got.TaskLists, 2)
	assert.Equal(t, f.list.ID, got.TaskLists[0].ID)

	boards, err := s.ListBoards(ctx, IncludeTaskLists)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Len(t, boards[0].TaskLists, 2)
	assert.NotNil(t, boards[1].TaskLists)
	assert.Empty(t, boards[1].TaskLists)
}

func TestStore_DeleteBoardCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedBoard(t, s, "Cascade")

	first := seedTask(t, s, f.list.ID, "first")
	second := seedTask(t, s, f.list.ID, "second")
	_, err := s.SetDependency(ctx, second.ID, first.ID)
	require.NoError(t, err)

	label := &Label{Name: "bug", BoardID: f.board.ID}
	require.NoError(t, s.CreateLabel(ctx, label))
	require.NoError(t, s.AssignLabelToTask(ctx, label.ID, first.ID))
	require.NoError(t, s.CreateComment(ctx, &Comment{Content: "hi", UserID: f.user.ID, TaskItemID: first.ID}))
	require.NoError(t, s.AssignUserToBoard(ctx, f.board.ID, f.user.ID))

	removed, err := s.DeleteBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID, second.ID}, removed)

	_, err = s.GetBoard(ctx, f.board.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTaskList(ctx, f.list.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTaskItem(ctx, first.ID, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetLabel(ctx, label.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	comments, err := s.ListComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, comments)
	boards, err := s.BoardsByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, boards)

	// the user outlives the board
	_, err = s.GetUser(ctx, f.user.ID)
	assert.NoError(t, err)

	_, err = s.DeleteBoard(ctx, f.board.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_BoardMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedBoard(t, s, "Team")

	require.NoError(t, s.AssignUserToBoard(ctx, f.board.ID, f.user.ID))
	assert.ErrorIs(t, s.AssignUserToBoard(ctx, f.board.ID, f.user.ID), ErrConflict)
	assert.ErrorIs(t, s.AssignUserToBoard(ctx, 999, f.user.ID), ErrNotFound)
	assert.ErrorIs(t, s.AssignUserToBoard(ctx, f.board.ID, "no-such-user"), ErrNotFound)

	boards, err := s.BoardsByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, f.board.ID, boards[0].ID)

	members, err := s.BoardMembers(ctx, f.board.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, f.user.Username, members[0].Username)

	_, err = s.BoardMembers(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UnassignUserFromBoard(ctx, f.board.ID, f.user.ID))
	assert.ErrorIs(t, s.UnassignUserFromBoard(ctx, f.board.ID, f.user.ID), ErrNotFound)

	boards, err = s.BoardsByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, boards)
}
