package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/shared/logging"
)

func sampleEvent() domain.PipelineEvent {
	return domain.PipelineEvent{
		ID:        "ev-1",
		RunID:     "run-1",
		Stage:     domain.StageLookup,
		Outcome:   domain.OutcomeFallback,
		SiteCode:  "H1",
		Attrs:     map[string]any{"lookup": "operators"},
		Timestamp: time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestLogSinkLevelsByOutcome(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logging.New(&buf, logging.Config{Level: "debug", Format: "json"}))

	sink.Emit(context.Background(), sampleEvent())

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "pipeline enrichment.lookup", record["msg"])
	assert.Equal(t, "run-1", record["runId"])
	assert.Equal(t, "operators", record["lookup"])
	assert.Equal(t, "pipeline", record["component"])
}

type countingSink struct{ n int }

func (c *countingSink) Emit(context.Context, domain.PipelineEvent) { c.n++ }

func TestMultiSkipsNil(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMulti(a, nil, b)
	require.Len(t, m, 2)
	m.Emit(context.Background(), sampleEvent())
	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaSinkKeysByRun(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w, logger: logging.Discard()}

	sink.Emit(context.Background(), sampleEvent())

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "run-1", string(msg.Key))
	var decoded domain.Message
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "pipeline.enrichment.lookup", decoded.Topic)
	assert.Equal(t, "stage", msg.Headers[0].Key)
	assert.Equal(t, "enrichment.lookup", string(msg.Headers[0].Value))
}

func TestKafkaSinkSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	sink := &KafkaSink{writer: &fakeWriter{err: errors.New("broker down")}, logger: logging.New(&buf, logging.Config{})}
	sink.Emit(context.Background(), sampleEvent())
	assert.True(t, strings.Contains(buf.String(), "kafka publish failed"))
}

type fakeChannel struct {
	key string
	msg amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if exchange != "" {
		return errors.New("unexpected exchange")
	}
	f.key = key
	f.msg = msg
	return nil
}

func TestAMQPSinkPublishesPersistent(t *testing.T) {
	ch := &fakeChannel{}
	sink := &AMQPSink{channel: ch, queue: "pms.pipeline.events", logger: logging.Discard()}

	sink.Emit(context.Background(), sampleEvent())

	assert.Equal(t, "pms.pipeline.events", ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "run-1", ch.msg.CorrelationId)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Contains(t, string(ch.msg.Body), `"pipeline.enrichment.lookup"`)
	assert.NoError(t, sink.Close())
}
