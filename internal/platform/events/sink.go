// Package events ships pipeline observations to logs, brokers and the
// websocket feed. Sinks never fail the pipeline; delivery problems are logged.
package events

import (
	"context"
	"log/slog"

	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/shared/logging"
)

type Sink interface {
	Emit(ctx context.Context, ev domain.PipelineEvent)
}

// Multi fans every event out to each sink in order.
type Multi []Sink

func NewMulti(sinks ...Sink) Multi {
	out := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m Multi) Emit(ctx context.Context, ev domain.PipelineEvent) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}

// LogSink writes one structured record per event.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logging.Component(logger, "pipeline")}
}

func (s *LogSink) Emit(ctx context.Context, ev domain.PipelineEvent) {
	attrs := []slog.Attr{
		slog.String("runId", ev.RunID),
		slog.String("stage", string(ev.Stage)),
		slog.String("outcome", string(ev.Outcome)),
	}
	if ev.SiteCode != "" {
		attrs = append(attrs, slog.String("siteCode", ev.SiteCode))
	}
	for k, v := range ev.Attrs {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.LogAttrs(ctx, levelFor(ev.Outcome), "pipeline "+string(ev.Stage), attrs...)
}

func levelFor(outcome domain.Outcome) slog.Level {
	switch outcome {
	case domain.OutcomeFailed:
		return slog.LevelError
	case domain.OutcomeWarning, domain.OutcomeFallback:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
