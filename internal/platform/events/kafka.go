package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/shared/logging"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events keyed by run id so one run stays on one
// partition and keeps its order.
type KafkaSink struct {
	writer messageWriter
	logger *slog.Logger
}

func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) *KafkaSink {
	logger = logging.Component(logger, "kafka-sink")
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka delivery failed", slog.Int("messages", len(msgs)), slog.Any("error", err))
			}
		},
	}
	return &KafkaSink{writer: writer, logger: logger}
}

func (s *KafkaSink) Emit(ctx context.Context, ev domain.PipelineEvent) {
	value, err := json.Marshal(domain.EventMessage(ev))
	if err != nil {
		s.logger.Error("kafka encode failed", slog.String("stage", string(ev.Stage)), slog.Any("error", err))
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.RunID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "stage", Value: []byte(ev.Stage)},
			{Key: "outcome", Value: []byte(ev.Outcome)},
		},
		Time: ev.Timestamp,
	}
	if err := s.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Warn("kafka publish failed", slog.String("stage", string(ev.Stage)), slog.Any("error", err))
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
