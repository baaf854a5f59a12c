package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

// EventPublisher receives board change notifications
type EventPublisher interface {
	Publish(event services.BoardEvent)
}

// TaskIndexer keeps the search index in step with task writes
type TaskIndexer interface {
	TaskChanged(task database.TaskItem)
	TaskDeleted(id int64)
	Search(ctx context.Context, query string) ([]database.TaskItem, error)
}

func publish(events EventPublisher, eventType string, boardID int64, data any) {
	if events == nil {
		return
	}
	events.Publish(services.BoardEvent{Type: eventType, BoardID: boardID, Data: data})
}

// EventsHandler upgrades /api/ws connections and subscribes them to board events
type EventsHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
}

func NewEventsHandler(hub *services.Hub, allowedOrigins []string) *EventsHandler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &EventsHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// HandleWebSocket streams events for ?boardId=N, or for every board when absent
func (h *EventsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var boardID int64
	if raw := r.URL.Query().Get("boardId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			writeError(w, http.StatusBadRequest, "boardId must be a positive integer")
			return
		}
		boardID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade to WebSocket")
		return
	}

	client := services.NewClient(h.hub, conn, boardID, identity.UserID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
