package domain

import (
	"strings"
	"time"
)

// Message is what the websocket feed pushes to dashboards.
type Message struct {
	Topic      string            `json:"topic"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	ResourceID string            `json:"resourceId,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Data       any               `json:"data,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

const (
	EntityReservations = "reservations"
	EntityPipeline     = "pipeline"
	EntitySystem       = "system"

	ActionSnapshot    = "snapshot"
	ActionInvalidated = "invalidated"
	ActionConnected   = "connected"
)

func Topic(entity, action string) string {
	entity, action = strings.TrimSpace(entity), strings.TrimSpace(action)
	if entity == "" || action == "" {
		return ""
	}
	return entity + "." + action
}

// SplitTopic is the inverse of Topic. A topic without a dot is treated as
// an entity with an unknown action.
func SplitTopic(topic string) (entity, action string) {
	topic = strings.TrimSpace(topic)
	if i := strings.LastIndex(topic, "."); i > 0 && i < len(topic)-1 {
		return topic[:i], topic[i+1:]
	}
	return topic, "unknown"
}

// EventMessage wraps a pipeline event for the websocket feed.
func EventMessage(ev PipelineEvent) *Message {
	return &Message{
		Topic:      Topic(EntityPipeline, string(ev.Stage)),
		Entity:     EntityPipeline,
		Action:     string(ev.Stage),
		ResourceID: ev.RunID,
		Metadata:   map[string]string{"siteCode": ev.SiteCode, "outcome": string(ev.Outcome)},
		Data:       ev,
		Timestamp:  ev.Timestamp,
	}
}
