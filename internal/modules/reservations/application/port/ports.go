package port

import (
	"context"

	"aviratoDash/internal/modules/reservations/domain"
)

// Page is one slice of the reservation listing as returned by the PMS.
type Page struct {
	Records   []map[string]any
	HasNext   bool
	Cursor    string
	ItemCount int
}

// PageQuery addresses one listing page. An empty cursor asks for the first.
type PageQuery struct {
	SiteCode string
	Window   domain.Window
	Take     int
	Cursor   string
}

type ReservationLister interface {
	ListPage(ctx context.Context, q PageQuery) (*Page, error)
}

// ReferenceFetcher loads the catalogs used to label reservations. A 404 is
// reported as an empty catalog, not an error.
type ReferenceFetcher interface {
	Operators(ctx context.Context, siteCode string) ([]domain.Operator, error)
	Regimes(ctx context.Context, siteCode string) ([]domain.Regime, error)
	SpaceTypes(ctx context.Context, siteCode string) ([]domain.SpaceType, error)
	Extras(ctx context.Context, siteCode string) ([]domain.Extra, error)
}

type BillingFetcher interface {
	Invoices(ctx context.Context, siteCode string, reservationID int64) ([]domain.Invoice, error)
}

// EventSink receives pipeline observations. Emit must not block for long
// and never fails the pipeline.
type EventSink interface {
	Emit(ctx context.Context, ev domain.PipelineEvent)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}

// SessionReader is what the dashboard needs from the session store.
type SessionReader interface {
	IsValid(ctx context.Context) bool
	SiteCodes(ctx context.Context) []string
}

// TopicHandler reacts to messages consumed from one broker topic.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Message) error
}
