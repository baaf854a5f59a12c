package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LabelCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedBoard(t, s, "Labels")

	l := &Label{Name: "bug", BoardID: f.board.ID}
	require.NoError(t, s.CreateLabel(ctx, l))
	assert.ErrorIs(t, s.CreateLabel(ctx, &Label{Name: "orphan", BoardID: 999}), ErrValidation)

	l.Name = "defect"
	require.NoError(t, s.UpdateLabel(ctx, l.ID, l))
	got, err := s.GetLabel(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "defect", got.Name)
	assert.ErrorIs(t, s.UpdateLabel(ctx, l.ID+1, l), ErrValidation)

	byBoard, err := s.LabelsByBoard(ctx, f.board.ID)
	require.NoError(t, err)
	assert.Len(t, byBoard, 1)

	empty, err := s.LabelsByBoard(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.DeleteLabel(ctx, l.ID))
	assert.ErrorIs(t, s.DeleteLabel(ctx, l.ID), ErrNotFound)
}

func TestStore_AssignLabelToTaskIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedBoard(t, s, "Tags")
	task := seedTask(t, s, f.list.ID, "tagged")
	l := &Label{Name: "ui", BoardID: f.board.ID}
	require.NoError(t, s.CreateLabel(ctx, l))

	require.NoError(t, s.AssignLabelToTask(ctx, l.ID, task.ID))
	require.NoError(t, s.AssignLabelToTask(ctx, l.ID, task.ID))

	labels, err := s.LabelsByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, l.ID, labels[0].ID)

	assert.ErrorIs(t, s.AssignLabelToTask(ctx, 999, task.ID), ErrNotFound)
	assert.ErrorIs(t, s.AssignLabelToTask(ctx, l.ID, 999), ErrNotFound)

	require.NoError(t, s.UnassignLabelFromTask(ctx, l.ID, task.ID))
	assert.ErrorIs(t, s.UnassignLabelFromTask(ctx, l.ID, task.ID), ErrNotFound)

	labels, err = s.LabelsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestStore_MostUsedLabels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := seedBoard(t, s, "Ranking")

	a := &Label{Name: "a", BoardID: f.board.ID}
	b := &Label{Name: "b", BoardID: f.board.ID}
	c := &Label{Name: "c", BoardID: f.board.ID}
	unused := &Label{Name: "unused", BoardID: f.board.ID}
	for _, l := range []*Label{a, b, c, unused} {
		require.NoError(t, s.CreateLabel(ctx, l))
	}
	t1 := seedTask(t, s, f.list.ID, "t1")
	t2 := seedTask(t, s, f.list.ID, "t2")
	t3 := seedTask(t, s, f.list.ID, "t3")

	// c: 3 tasks, a and b tie at 1
	for _, assign := range []struct{ label, task int64 }{
		{c.ID, t1.ID}, {c.ID, t2.ID}, {c.ID, t3.ID}, {b.ID, t1.ID}, {a.ID, t2.ID},
	} {
		require.NoError(t, s.AssignLabelToTask(ctx, assign.label, assign.task))
	}

	top, err := s.MostUsedLabels(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, c.ID, top[0].LabelID)
	assert.Equal(t, 3, top[0].UsageCount)
	require.NotNil(t, top[0].Label)
	assert.Equal(t, "c", top[0].Label.Name)
	assert.Equal(t, a.ID, top[1].LabelID)
	assert.Equal(t, 1, top[1].UsageCount)

	all, err := s.MostUsedLabels(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.MostUsedLabels(ctx, 0)
	assert.ErrorIs(t, err, ErrValidation)
}
