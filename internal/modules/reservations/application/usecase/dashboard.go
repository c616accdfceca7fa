package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/logging"
)

var ErrNoSiteCodes = errors.New("session has no site codes")

// Snapshot is one enriched, reconciled listing.
type Snapshot struct {
	RunID        string                `json:"runId"`
	SiteCode     string                `json:"siteCode"`
	Selected     domain.Window         `json:"window"`
	Search       domain.Window         `json:"searchWindow"`
	Reservations []*domain.Reservation `json:"-"`
	Fetched      int                   `json:"fetched"`
	Pages        int                   `json:"pages"`
	Truncated    bool                  `json:"truncated"`
	Rejected     []Rejection           `json:"rejected,omitempty"`
	Enrichment   *EnrichmentReport     `json:"enrichment"`
	Warnings     []string              `json:"warnings,omitempty"`
	FetchedAt    time.Time             `json:"fetchedAt"`
}

type Query struct {
	// Window is the selected range; nil means the default lookback.
	Window *domain.Window
	// Search filters the result by guest name, client id or reservation id.
	Search string
	// Refresh bypasses the session cache.
	Refresh bool
}

type Result struct {
	Snapshot *Snapshot
	Items    []*domain.Reservation
	Stats    domain.Stats
	Cached   bool
}

// DashboardUseCase runs the whole pipeline for the signed-in property:
// reconcile the window, enrich, cache and announce the snapshot.
type DashboardUseCase struct {
	session     port.SessionReader
	reconciler  *WindowReconciler
	enricher    *Enricher
	broadcaster port.Broadcaster
	cache       *snapshotCache
	logger      *slog.Logger
}

func NewDashboardUseCase(session port.SessionReader, reconciler *WindowReconciler, enricher *Enricher, broadcaster port.Broadcaster, cacheTTL time.Duration, logger *slog.Logger) *DashboardUseCase {
	return &DashboardUseCase{
		session:     session,
		reconciler:  reconciler,
		enricher:    enricher,
		broadcaster: broadcaster,
		cache:       newSnapshotCache(cacheTTL),
		logger:      logging.Component(logger, "dashboard"),
	}
}

func (uc *DashboardUseCase) Fetch(ctx context.Context, q Query) (*Result, error) {
	if !uc.session.IsValid(ctx) {
		return nil, upstream.ErrNotAuthenticated
	}
	codes := uc.session.SiteCodes(ctx)
	if len(codes) == 0 {
		return nil, ErrNoSiteCodes
	}
	siteCode := codes[0]

	selected := domain.DefaultWindow(uc.reconciler.Today(), uc.reconciler.lookbackDays)
	if q.Window != nil {
		var err error
		if selected, err = domain.NewWindow(q.Window.Start, q.Window.End); err != nil {
			return nil, err
		}
	}

	if !q.Refresh {
		if snap, ok := uc.cache.get(siteCode, selected); ok {
			uc.logger.Debug("serving cached snapshot", slog.String("siteCode", siteCode), slog.String("window", selected.String()))
			return uc.result(snap, q.Search, true), nil
		}
	}

	snap, err := uc.run(ctx, siteCode, selected)
	if err != nil {
		return nil, err
	}
	uc.cache.set(siteCode, selected, snap)
	uc.announce(ctx, snap)
	return uc.result(snap, q.Search, false), nil
}

func (uc *DashboardUseCase) run(ctx context.Context, siteCode string, selected domain.Window) (*Snapshot, error) {
	ctx, runID := ensureRunID(ctx)
	started := time.Now()

	reconciled, err := uc.reconciler.Reconcile(ctx, siteCode, &selected)
	if err != nil {
		uc.logger.Error("reservation fetch failed", slog.String("runId", runID), slog.String("siteCode", siteCode), slog.Any("error", err))
		return nil, err
	}
	report := uc.enricher.Enrich(ctx, reconciled.Reservations, siteCode)
	if report.SessionExpired {
		// Fallback labels from a dead token are never cached or announced.
		uc.logger.Warn("session expired during enrichment", slog.String("runId", runID), slog.String("siteCode", siteCode))
		return nil, upstream.ErrAuthExpired
	}

	snap := &Snapshot{
		RunID:        runID,
		SiteCode:     siteCode,
		Selected:     reconciled.Selected,
		Search:       reconciled.Search,
		Reservations: reconciled.Reservations,
		Fetched:      reconciled.Fetched,
		Pages:        reconciled.Pages,
		Truncated:    reconciled.Truncated,
		Rejected:     reconciled.Rejected,
		Enrichment:   report,
		Warnings:     report.Warnings(),
		FetchedAt:    time.Now().UTC(),
	}
	if snap.Truncated {
		snap.Warnings = append(snap.Warnings, "results truncated, the PMS reported more pages than were read; narrow the date range")
	}
	if len(snap.Rejected) > 0 {
		snap.Warnings = append(snap.Warnings, "some reservations were skipped because of invalid dates")
	}

	uc.logger.Info("dashboard snapshot ready",
		slog.String("runId", runID),
		slog.String("siteCode", siteCode),
		slog.Int("reservations", len(snap.Reservations)),
		slog.Int("pages", snap.Pages),
		slog.Duration("elapsed", time.Since(started)),
	)
	return snap, nil
}

func (uc *DashboardUseCase) result(snap *Snapshot, search string, cached bool) *Result {
	items := domain.Filter(snap.Reservations, search)
	return &Result{Snapshot: snap, Items: items, Stats: domain.ComputeStats(items), Cached: cached}
}

func (uc *DashboardUseCase) announce(ctx context.Context, snap *Snapshot) {
	if uc.broadcaster == nil {
		return
	}
	uc.broadcaster.Broadcast(ctx, &domain.Message{
		Topic:      domain.Topic(domain.EntityReservations, domain.ActionSnapshot),
		Entity:     domain.EntityReservations,
		Action:     domain.ActionSnapshot,
		ResourceID: snap.RunID,
		Metadata: map[string]string{
			"siteCode": snap.SiteCode,
			"window":   snap.Selected.String(),
		},
		Data: map[string]any{
			"snapshot":     snap,
			"stats":        domain.ComputeStats(snap.Reservations),
			"reservations": domain.Views(snap.Reservations),
		},
		Timestamp: snap.FetchedAt,
	})
}

// Invalidate drops cached snapshots of siteCode, or of every site when
// siteCode is blank, and tells connected dashboards to reload.
func (uc *DashboardUseCase) Invalidate(ctx context.Context, siteCode string) {
	n := uc.cache.invalidate(siteCode)
	uc.logger.Info("snapshot cache invalidated", slog.String("siteCode", siteCode), slog.Int("entries", n))
	if uc.broadcaster == nil {
		return
	}
	uc.broadcaster.Broadcast(ctx, &domain.Message{
		Topic:     domain.Topic(domain.EntityReservations, domain.ActionInvalidated),
		Entity:    domain.EntityReservations,
		Action:    domain.ActionInvalidated,
		Metadata:  map[string]string{"siteCode": siteCode},
		Timestamp: time.Now().UTC(),
	})
}
