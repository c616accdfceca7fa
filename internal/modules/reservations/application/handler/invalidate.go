package handler

import (
	"context"
	"strings"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
)

type invalidator interface {
	Invalidate(ctx context.Context, siteCode string)
}

// InvalidationHandler drops cached snapshots when the PMS announces a
// reservation change, so the next dashboard read goes upstream.
type InvalidationHandler struct {
	topic string
	uc    invalidator
}

func NewInvalidationHandler(topic string, uc invalidator) *InvalidationHandler {
	return &InvalidationHandler{topic: strings.TrimSpace(topic), uc: uc}
}

func (h *InvalidationHandler) Topic() string { return h.topic }

// Handle invalidates the site named in the message metadata, or every site
// when the message does not say.
func (h *InvalidationHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	if strings.EqualFold(msg.Entity, domain.EntityPipeline) {
		return nil
	}
	var site string
	for _, key := range []string{"siteCode", "site_code", "webCode", "web_code"} {
		if v := strings.TrimSpace(msg.Metadata[key]); v != "" {
			site = v
			break
		}
	}
	h.uc.Invalidate(ctx, site)
	return nil
}

var _ port.TopicHandler = (*InvalidationHandler)(nil)
