package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aviratoDash/internal/modules/reservations/domain"
)

type recordingInvalidator struct {
	sites []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, siteCode string) {
	r.sites = append(r.sites, siteCode)
}

func TestInvalidationHandler(t *testing.T) {
	rec := &recordingInvalidator{}
	h := NewInvalidationHandler(" pms.reservations ", rec)
	assert.Equal(t, "pms.reservations", h.Topic())

	ctx := context.Background()
	require.NoError(t, h.Handle(ctx, &domain.Message{Entity: "reservations", Action: "updated", Metadata: map[string]string{"web_code": "H1"}}))
	require.NoError(t, h.Handle(ctx, &domain.Message{Entity: "reservations", Action: "deleted"}))
	require.NoError(t, h.Handle(ctx, &domain.Message{Entity: domain.EntityPipeline, Action: "page.fetched"}))
	require.NoError(t, h.Handle(ctx, nil))

	assert.Equal(t, []string{"H1", ""}, rec.sites)
}
