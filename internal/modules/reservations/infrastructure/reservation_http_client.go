package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/normalization"
)

const (
	listingPath   = "/reservation/dates"
	siteCodeParam = "site_code"
)

// ReservationHTTPClient reads the cursor-paginated reservation listing.
type ReservationHTTPClient struct {
	api     *upstream.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewReservationHTTPClient(api *upstream.Client, timeout time.Duration, logger *slog.Logger) *ReservationHTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationHTTPClient{api: api, timeout: timeout, logger: logger}
}

func (c *ReservationHTTPClient) ListPage(ctx context.Context, q port.PageQuery) (*port.Page, error) {
	values := url.Values{}
	values.Set(siteCodeParam, q.SiteCode)
	values.Set("start_date", q.Window.Start.String())
	values.Set("end_date", q.Window.End.String())
	values.Set("take", strconv.Itoa(q.Take))
	values.Set("charges", "true")
	if q.Cursor != "" {
		values.Set("cursor", q.Cursor)
	}

	env, err := c.api.Do(ctx, upstream.Request{Path: listingPath, Query: values, Timeout: c.timeout})
	if err != nil {
		return nil, fmt.Errorf("reservation listing: %w", err)
	}

	page := &port.Page{Records: normalization.Flatten(env.Data)}
	if env.Meta != nil {
		if hasNext := normalization.Bool(env.Meta, "hasNextPage", "has_next_page", "hasNext"); hasNext != nil {
			page.HasNext = *hasNext
		}
		page.Cursor = normalization.String(env.Meta, "cursor", "nextCursor", "next_cursor")
		page.ItemCount = normalization.Int(env.Meta, "itemCount", "item_count", "count")
	}
	c.logger.Debug("listing page decoded",
		slog.Int("records", len(page.Records)),
		slog.Bool("hasNext", page.HasNext),
		slog.Int("itemCount", page.ItemCount),
	)
	return page, nil
}

var _ port.ReservationLister = (*ReservationHTTPClient)(nil)
