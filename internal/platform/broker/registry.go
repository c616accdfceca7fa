package broker

import (
	"context"
	"log/slog"
	"sync"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
)

// HandlerRegistry routes consumed messages by the broker topic they came from.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]port.TopicHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string][]port.TopicHandler)}
}

func (r *HandlerRegistry) Register(h port.TopicHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Topic()] = append(r.handlers[h.Topic()], h)
}

func (r *HandlerRegistry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		topics = append(topics, topic)
	}
	return topics
}

// Dispatch runs every handler of topic and returns the first error.
func (r *HandlerRegistry) Dispatch(ctx context.Context, topic string, msg *domain.Message) error {
	r.mu.RLock()
	handlers := r.handlers[topic]
	r.mu.RUnlock()
	var first error
	for _, h := range handlers {
		if err := h.Handle(ctx, msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// StartKafkaConsumers runs one consumer per registered topic until ctx ends.
func StartKafkaConsumers(ctx context.Context, registry *HandlerRegistry, brokers []string, groupID string, logger *slog.Logger) []*KafkaConsumer {
	if len(brokers) == 0 {
		// kafka.NewReader panics on an empty broker list.
		return nil
	}
	consumers := make([]*KafkaConsumer, 0)
	for _, topic := range registry.Topics() {
		topic := topic
		consumer := NewKafkaConsumer(brokers, groupID, topic, logger)
		consumers = append(consumers, consumer)
		go func() {
			_ = consumer.Consume(ctx, func(msg *domain.Message) error {
				return registry.Dispatch(ctx, topic, msg)
			})
		}()
	}
	return consumers
}
