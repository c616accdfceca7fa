package infrastructure

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aviratoDash/internal/modules/reservations/domain"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Command is what a dashboard may send over the socket.
type Command struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

type Client struct {
	id         string
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	subscribed map[string]struct{}
	receiveAll bool
	closeOnce  sync.Once
	mu         sync.Mutex
	closed     bool
}

func NewClient(hub *Hub, conn *websocket.Conn, id string, buf int) *Client {
	if buf <= 0 {
		buf = 16
	}
	return &Client{
		id:         id,
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, buf),
		subscribed: make(map[string]struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// enqueue reports false when the client cannot keep up.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) SendMessage(msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal error", slog.Any("error", err))
		return
	}
	if !c.enqueue(data) {
		go c.hub.detach(c)
	}
}

func (c *Client) WritePump() {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Warn("websocket write error", slog.String("clientId", c.id), slog.Any("error", err))
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Warn("websocket ping error", slog.String("clientId", c.id), slog.Any("error", err))
				return
			}
		}
	}
}

func (c *Client) ReadPump() {
	c.conn.SetReadLimit(1 << 14)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	defer c.hub.detach(c)
	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read error", slog.String("clientId", c.id), slog.Any("error", err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handle(cmd)
	}
}

func (c *Client) handle(cmd Command) {
	topic := strings.TrimSpace(cmd.Topic)
	switch strings.ToLower(strings.TrimSpace(cmd.Action)) {
	case "subscribe":
		if topic != "" {
			c.hub.subscribe(c, topic)
		}
	case "unsubscribe":
		if topic != "" {
			c.hub.unsubscribe(c, topic)
		}
	case "ping":
		c.SendMessage(&domain.Message{
			Topic:     domain.Topic(domain.EntitySystem, "pong"),
			Entity:    domain.EntitySystem,
			Action:    "pong",
			Timestamp: time.Now().UTC(),
		})
	default:
		c.SendMessage(&domain.Message{
			Topic:     domain.Topic(domain.EntitySystem, "error"),
			Entity:    domain.EntitySystem,
			Action:    "error",
			Data:      map[string]string{"message": "unsupported action " + cmd.Action},
			Timestamp: time.Now().UTC(),
		})
	}
}
