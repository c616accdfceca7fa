package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"aviratoDash/internal/modules/reservations/domain"
)

// Hub fans dashboard messages out to connected websocket clients. Clients
// either follow explicit topics or receive everything.
type Hub struct {
	topics  map[string]map[*Client]struct{}
	clients map[string]*Client
	global  map[*Client]struct{}
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		clients: make(map[string]*Client),
		global:  make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Attach registers c for topics, or for every topic when none is given.
func (h *Hub) Attach(c *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.clients[c.id]; ok && existing != c {
		h.detachLocked(existing)
	}
	h.clients[c.id] = c

	subscribed := 0
	for _, topic := range topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			h.subscribeLocked(c, topic)
			subscribed++
		}
	}
	if subscribed == 0 {
		c.receiveAll = true
		h.global[c] = struct{}{}
	}
	h.logger.Info("ws client attached", slog.String("clientId", c.id), slog.Any("topics", topics), slog.Bool("all", c.receiveAll))
}

func (h *Hub) subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeLocked(c, topic)
}

func (h *Hub) subscribeLocked(c *Client, topic string) {
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][c] = struct{}{}
	c.subscribed[topic] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(c.subscribed, topic)
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c)
}

func (h *Hub) detachLocked(c *Client) {
	if c == nil {
		return
	}
	for topic := range c.subscribed {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	delete(h.global, c)
	c.close()
	h.logger.Info("ws client detached", slog.String("clientId", c.id))
}

// Clients reports how many dashboards are connected.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(_ context.Context, msg *domain.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("broadcast marshal error", slog.String("topic", msg.Topic), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	subs := h.topics[msg.Topic]
	targets := make([]*Client, 0, len(subs)+len(h.global))
	for c := range subs {
		targets = append(targets, c)
	}
	for c := range h.global {
		if _, dup := subs[c]; !dup {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			h.logger.Warn("ws send buffer full, dropping client", slog.String("clientId", c.id))
			go h.detach(c)
		}
	}
}

// Emit forwards pipeline events to dashboards following the pipeline feed.
func (h *Hub) Emit(ctx context.Context, ev domain.PipelineEvent) {
	h.Broadcast(ctx, domain.EventMessage(ev))
}
