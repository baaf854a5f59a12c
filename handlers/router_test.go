package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

type recordingIndexer struct {
	mu      sync.Mutex
	changed []int64
	deleted []int64
	results []database.TaskItem
}

func (i *recordingIndexer) TaskChanged(task database.TaskItem) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.changed = append(i.changed, task.ID)
}

func (i *recordingIndexer) TaskDeleted(id int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.deleted = append(i.deleted, id)
}

func (i *recordingIndexer) Search(_ context.Context, _ string) ([]database.TaskItem, error) {
	return i.results, nil
}

type testEnv struct {
	router  *mux.Router
	store   *database.Store
	tokens  *services.TokenService
	hub     *services.Hub
	indexer *recordingIndexer
	user    *database.User
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	store, err := database.InitDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens, err := services.NewTokenService("handler-test-secret", "TaskPlannerAPI", "TaskPlannerAPIUsers", time.Hour)
	require.NoError(t, err)
	auth, err := services.NewAuthService(store, tokens, nil)
	require.NoError(t, err)

	logger, _ := logtest.NewNullLogger()
	hub := services.NewHub(logger)
	go hub.Run(ctx)

	user := &database.User{Username: "owner", PasswordHash: "unused"}
	require.NoError(t, store.CreateUser(ctx, user))
	token, err := tokens.Issue(user.ID, user.Username)
	require.NoError(t, err)

	indexer := &recordingIndexer{}
	router := NewRouter(Dependencies{
		Store:          store,
		Auth:           auth,
		Tokens:         tokens,
		Hub:            hub,
		Indexer:        indexer,
		AllowedOrigins: []string{"*"},
		Logger:         logger,
	})

	return &testEnv{
		router:  router,
		store:   store,
		tokens:  tokens,
		hub:     hub,
		indexer: indexer,
		user:    user,
		token:   token,
	}
}

// do sends body as JSON unless it is already a string
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithToken(t, method, path, body, e.token)
}

func (e *testEnv) doWithToken(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a response body into v
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// created decodes the data field of a success envelope
func created[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var envelope struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	decode(t, rec, &envelope)
	require.Equal(t, "success", envelope.Status)
	return envelope.Data
}

// seed creates a board with one list through the API
func (e *testEnv) seed(t *testing.T) (database.Board, database.TaskList) {
	t.Helper()
	board := created[database.Board](t, e.do(t, http.MethodPost, "/api/boards", map[string]any{"name": "Board"}))
	list := created[database.TaskList](t, e.do(t, http.MethodPost, "/api/tasklists", map[string]any{"name": "Todo", "boardId": board.ID}))
	return board, list
}

func (e *testEnv) createTask(t *testing.T, listID int64, title string) database.TaskItem {
	t.Helper()
	return created[database.TaskItem](t, e.do(t, http.MethodPost, "/api/taskitems", map[string]any{
		"title":      title,
		"taskListId": listID,
	}))
}
