package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/platform/upstream"
)

const (
	operatorsPath = "/channel-manager/operators"
	regimesPath   = "/regime"
	spacesPath    = "/space"
	extrasPath    = "/extra"
	billingPath   = "/billing"
)

// ReferenceHTTPClient loads the catalogs and invoices used by enrichment.
// A 404 from any of them means "nothing to show", not a failure.
type ReferenceHTTPClient struct {
	api    *upstream.Client
	logger *slog.Logger
}

func NewReferenceHTTPClient(api *upstream.Client, logger *slog.Logger) *ReferenceHTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceHTTPClient{api: api, logger: logger}
}

func (c *ReferenceHTTPClient) Operators(ctx context.Context, siteCode string) ([]domain.Operator, error) {
	items, err := c.list(ctx, operatorsPath, siteQuery(siteCode))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Operator, 0, len(items))
	for _, raw := range items {
		if op, ok := domain.NormalizeOperator(raw); ok {
			out = append(out, op)
		}
	}
	return out, nil
}

func (c *ReferenceHTTPClient) Regimes(ctx context.Context, siteCode string) ([]domain.Regime, error) {
	items, err := c.list(ctx, regimesPath, siteQuery(siteCode))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Regime, 0, len(items))
	for _, raw := range items {
		if r, ok := domain.NormalizeRegime(raw); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *ReferenceHTTPClient) SpaceTypes(ctx context.Context, siteCode string) ([]domain.SpaceType, error) {
	items, err := c.list(ctx, spacesPath, siteQuery(siteCode))
	if err != nil {
		return nil, err
	}
	out := make([]domain.SpaceType, 0, len(items))
	for _, raw := range items {
		if st, ok := domain.NormalizeSpaceType(raw); ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (c *ReferenceHTTPClient) Extras(ctx context.Context, siteCode string) ([]domain.Extra, error) {
	items, err := c.list(ctx, extrasPath, siteQuery(siteCode))
	if err != nil {
		return nil, err
	}
	out := make([]domain.Extra, 0, len(items))
	for _, raw := range items {
		if e, ok := domain.NormalizeExtra(raw); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *ReferenceHTTPClient) Invoices(ctx context.Context, siteCode string, reservationID int64) ([]domain.Invoice, error) {
	q := siteQuery(siteCode)
	q.Set("reservation_id", strconv.FormatInt(reservationID, 10))
	items, err := c.list(ctx, billingPath, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0, len(items))
	for _, raw := range items {
		out = append(out, domain.NormalizeInvoice(raw))
	}
	return out, nil
}

func (c *ReferenceHTTPClient) list(ctx context.Context, path string, q url.Values) ([]map[string]any, error) {
	env, err := c.api.Do(ctx, upstream.Request{Path: path, Query: q})
	if errors.Is(err, upstream.ErrNotFound) {
		c.logger.Debug("reference lookup empty", slog.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", path, err)
	}
	return env.Items(), nil
}

func siteQuery(siteCode string) url.Values {
	q := url.Values{}
	q.Set(siteCodeParam, siteCode)
	return q
}

var (
	_ port.ReferenceFetcher = (*ReferenceHTTPClient)(nil)
	_ port.BillingFetcher   = (*ReferenceHTTPClient)(nil)
)
