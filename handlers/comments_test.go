package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

func TestCommentHandler_AuthorDefaultsToCaller(t *testing.T) {
	env := newTestEnv(t)
	_, list := env.seed(t)
	task := env.createTask(t, list.ID, "discussed")

	comment := created[database.Comment](t, env.do(t, http.MethodPost, "/api/comments",
		map[string]any{"content": "looks good", "taskItemId": task.ID}))
	assert.Equal(t, env.user.ID, comment.UserID)
	assert.False(t, comment.CreatedAt.IsZero())

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/comments/task/%d", task.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var comments []database.Comment
	decode(t, rec, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "looks good", comments[0].Content)

	path := fmt.Sprintf("/api/comments/%d", comment.ID)
	rec = env.do(t, http.MethodPut, path, map[string]any{"id": comment.ID, "content": "ship it", "taskItemId": task.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got database.Comment
	decode(t, rec, &got)
	assert.Equal(t, "ship it", got.Content)
	assert.True(t, comment.CreatedAt.Equal(got.CreatedAt))

	rec = env.do(t, http.MethodPost, "/api/comments", map[string]any{"content": "", "taskItemId": task.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/comments", map[string]any{"content": "x", "taskItemId": 999})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentHandler_PublishesEveryChange(t *testing.T) {
	env := newTestEnv(t)
	board, list := env.seed(t)
	task := env.createTask(t, list.ID, "discussed")

	subscriber := services.NewClient(env.hub, nil, board.ID, env.user.ID)
	require.True(t, env.hub.Register(subscriber))
	next := func() services.BoardEvent {
		t.Helper()
		select {
		case msg := <-subscriber.Send:
			var event services.BoardEvent
			require.NoError(t, json.Unmarshal(msg, &event))
			return event
		case <-time.After(time.Second):
			t.Fatal("no board event")
			return services.BoardEvent{}
		}
	}

	comment := created[database.Comment](t, env.do(t, http.MethodPost, "/api/comments",
		map[string]any{"content": "first", "taskItemId": task.ID}))
	path := fmt.Sprintf("/api/comments/%d", comment.ID)
	rec := env.do(t, http.MethodPut, path, map[string]any{"id": comment.ID, "content": "second", "taskItemId": task.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, want := range []string{services.EventCommentCreated, services.EventCommentUpdated, services.EventCommentDeleted} {
		event := next()
		assert.Equal(t, want, event.Type)
		assert.Equal(t, board.ID, event.BoardID)
	}
}
