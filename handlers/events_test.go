package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamkcs/TaskPlannerAPI/services"
)

func TestEventsHandler_StreamsBoardEvents(t *testing.T) {
	env := newTestEnv(t)
	board, list := env.seed(t)

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/api/ws?boardId=%d", board.ID)
	header := http.Header{"Authorization": []string{"Bearer " + env.token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	received := make(chan services.BoardEvent, 1)
	go func() {
		var event services.BoardEvent
		if err := conn.ReadJSON(&event); err == nil {
			received <- event
		}
	}()

	// the client registers with the hub after the upgrade returns, so keep publishing until one lands
	var event services.BoardEvent
	require.Eventually(t, func() bool {
		env.createTask(t, list.ID, "live")
		select {
		case event = <-received:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, services.EventTaskCreated, event.Type)
	assert.Equal(t, board.ID, event.BoardID)

	_, _, err = websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
}

func TestEventsHandler_RejectsBadBoardID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/ws?boardId=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
