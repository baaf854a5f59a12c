package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send pings, so inbound frames stay small
	maxMessageSize = 4 * 1024

	sendBuffer = 64
)

// Board event types
const (
	EventBoardUpdated   = "board.updated"
	EventBoardDeleted   = "board.deleted"
	EventListCreated    = "tasklist.created"
	EventListUpdated    = "tasklist.updated"
	EventListDeleted    = "tasklist.deleted"
	EventTaskCreated    = "task.created"
	EventTaskUpdated    = "task.updated"
	EventTaskDeleted    = "task.deleted"
	EventLabelCreated   = "label.created"
	EventLabelUpdated   = "label.updated"
	EventLabelDeleted   = "label.deleted"
	EventCommentCreated = "comment.created"
	EventCommentUpdated = "comment.updated"
	EventCommentDeleted = "comment.deleted"
)

// BoardEvent announces a change to something on a board
type BoardEvent struct {
	Type    string `json:"type"`
	BoardID int64  `json:"boardId"`
	Data    any    `json:"data,omitempty"`
}

// Client is one WebSocket subscriber. A zero BoardID receives events for every board.
// Only the hub writes to or closes Send; pong replies travel on their own channel.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	BoardID int64
	UserID  string

	pongs chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, boardID int64, userID string) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		BoardID: boardID,
		UserID:  userID,
		pongs:   make(chan []byte, 1),
	}
}

func (c *Client) wants(boardID int64) bool {
	return c.BoardID == 0 || c.BoardID == boardID
}

// ReadPump drains the connection, answering pings, until the peer goes away
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("user", c.UserID).Warn("WebSocket read failed")
			}
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &msg); err != nil || msg.Type != "ping" {
			continue
		}

		pong, err := json.Marshal(BoardEvent{Type: "pong", Data: map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)}})
		if err != nil {
			continue
		}
		select {
		case c.pongs <- pong:
		default:
			// a reply is already waiting
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case pong := <-c.pongs:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, pong); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub fans board events out to subscribed clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan BoardEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan BoardEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Register adds a client to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for delivery. Events are dropped when the queue is full.
func (h *Hub) Publish(event BoardEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.log.WithField("type", event.Type).Warn("Board event queue full, dropping event")
	}
}

// Run delivers events until ctx is cancelled, then disconnects every client
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			close(client.Send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			h.log.WithFields(log.Fields{"user": client.UserID, "board_id": client.BoardID}).Debug("WebSocket client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.WithField("user", client.UserID).Debug("WebSocket client disconnected")
			}
		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				h.log.WithError(err).Error("Failed to encode board event")
				continue
			}
			for client := range h.clients {
				if !client.wants(event.BoardID) {
					continue
				}
				select {
				case client.Send <- message:
				default:
					// slow consumer
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}
