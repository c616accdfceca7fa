package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/shared/logging"
)

const (
	DefaultPageSize = 100
	DefaultMaxPages = 50
)

type PaginatorConfig struct {
	PageSize int
	MaxPages int
}

// Rejection is a listing record dropped because it could not be normalized.
type Rejection struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

type PageResult struct {
	Reservations []*domain.Reservation
	Pages        int
	// Truncated is set when the walk stopped while the PMS still reported
	// more pages: the page ceiling was hit or the cursor did not advance.
	Truncated bool
	Rejected  []Rejection
}

// Paginator walks the cursor-paginated listing endpoint sequentially.
type Paginator struct {
	lister   port.ReservationLister
	events   emitter
	logger   *slog.Logger
	pageSize int
	maxPages int
}

func NewPaginator(lister port.ReservationLister, sink port.EventSink, logger *slog.Logger, cfg PaginatorConfig) *Paginator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Paginator{
		lister:   lister,
		events:   newEmitter(sink),
		logger:   logging.Component(logger, "paginator"),
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
	}
}

// ListAll fetches every page of reservations for window, in arrival order.
// Any page failure fails the whole listing; no partial result is returned.
func (p *Paginator) ListAll(ctx context.Context, siteCode string, window domain.Window) (*PageResult, error) {
	result := &PageResult{}
	cursor := ""
	position := 0

	for {
		page, err := p.lister.ListPage(ctx, port.PageQuery{
			SiteCode: siteCode,
			Window:   window,
			Take:     p.pageSize,
			Cursor:   cursor,
		})
		if err != nil {
			p.logger.Error("listing page failed", slog.Int("page", result.Pages+1), slog.String("siteCode", siteCode), slog.Any("error", err))
			return nil, fmt.Errorf("list reservations page %d: %w", result.Pages+1, err)
		}
		result.Pages++

		accepted := 0
		for _, raw := range page.Records {
			position++
			r, err := domain.NormalizeReservation(raw)
			if err != nil {
				result.Rejected = append(result.Rejected, Rejection{Position: position, Reason: err.Error()})
				p.logger.Warn("listing record rejected", slog.Int("position", position), slog.Any("error", err))
				p.events.emit(ctx, domain.StageRecordRejected, domain.OutcomeWarning, siteCode, map[string]any{
					"position": position,
					"reason":   err.Error(),
				})
				continue
			}
			result.Reservations = append(result.Reservations, r)
			accepted++
		}

		p.logger.Debug("listing page fetched",
			slog.Int("page", result.Pages),
			slog.Int("records", len(page.Records)),
			slog.Bool("hasNext", page.HasNext),
		)
		p.events.emit(ctx, domain.StagePageFetched, domain.OutcomeOK, siteCode, map[string]any{
			"page":     result.Pages,
			"records":  len(page.Records),
			"accepted": accepted,
			"hasNext":  page.HasNext,
		})

		if !page.HasNext {
			break
		}
		if page.Cursor == "" || page.Cursor == cursor {
			p.truncate(ctx, result, siteCode, "cursor_stalled")
			break
		}
		if result.Pages >= p.maxPages {
			p.truncate(ctx, result, siteCode, "page_ceiling")
			break
		}
		cursor = page.Cursor
	}

	return result, nil
}

func (p *Paginator) truncate(ctx context.Context, result *PageResult, siteCode, reason string) {
	result.Truncated = true
	p.logger.Warn("listing stopped with pages left, results truncated",
		slog.String("reason", reason),
		slog.Int("pages", result.Pages),
		slog.Int("maxPages", p.maxPages),
		slog.Int("reservations", len(result.Reservations)),
		slog.String("siteCode", siteCode),
	)
	p.events.emit(ctx, domain.StagePaginationTruncated, domain.OutcomeWarning, siteCode, map[string]any{
		"reason":       reason,
		"pages":        result.Pages,
		"maxPages":     p.maxPages,
		"reservations": len(result.Reservations),
	})
}
