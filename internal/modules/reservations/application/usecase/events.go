package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
)

type runIDKey struct{}

// WithRunID tags ctx with the id of one pipeline run so every event it
// produces can be correlated.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

func ensureRunID(ctx context.Context) (context.Context, string) {
	if id := RunID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRunID(ctx, id), id
}

type emitter struct {
	sink port.EventSink
	now  func() time.Time
}

func newEmitter(sink port.EventSink) emitter {
	return emitter{sink: sink, now: time.Now}
}

func (e emitter) emit(ctx context.Context, stage domain.Stage, outcome domain.Outcome, siteCode string, attrs map[string]any) {
	if e.sink == nil {
		return
	}
	e.sink.Emit(ctx, domain.PipelineEvent{
		ID:        uuid.NewString(),
		RunID:     RunID(ctx),
		Stage:     stage,
		Outcome:   outcome,
		SiteCode:  siteCode,
		Attrs:     attrs,
		Timestamp: e.now().UTC(),
	})
}
