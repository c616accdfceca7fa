package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/shared/logging"
)

const publishTimeout = 2 * time.Second

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes events as persistent messages to a durable queue on
// the default exchange.
type AMQPSink struct {
	conn    *amqp.Connection
	channel publisher
	queue   string
	logger  *slog.Logger
}

func NewAMQPSink(url, queue string, logger *slog.Logger) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	return &AMQPSink{conn: conn, channel: ch, queue: queue, logger: logging.Component(logger, "amqp-sink")}, nil
}

func (s *AMQPSink) Emit(ctx context.Context, ev domain.PipelineEvent) {
	body, err := json.Marshal(domain.EventMessage(ev))
	if err != nil {
		s.logger.Error("amqp encode failed", slog.String("stage", string(ev.Stage)), slog.Any("error", err))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     ev.ID,
		CorrelationId: ev.RunID,
		Type:          string(ev.Stage),
		Timestamp:     ev.Timestamp,
		Body:          body,
	}
	if err := s.channel.PublishWithContext(ctx, "", s.queue, false, false, pub); err != nil {
		s.logger.Warn("amqp publish failed", slog.String("stage", string(ev.Stage)), slog.Any("error", err))
	}
}

func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
