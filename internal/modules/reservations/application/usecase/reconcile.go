package usecase

import (
	"context"
	"log/slog"
	"time"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/shared/logging"
)

const DefaultLookbackDays = 30

type ReconcilerConfig struct {
	WidenDays    int
	LookbackDays int
	Location     *time.Location
}

type ReconcileResult struct {
	Selected     domain.Window
	Search       domain.Window
	Reservations []*domain.Reservation
	Fetched      int
	Pages        int
	Truncated    bool
	Rejected     []Rejection
}

// WindowReconciler recovers stays that overlap the selected window but
// begin before it. The listing endpoint filters by check-in only, so the
// fetch runs over a widened window and the overlap filter is applied here.
type WindowReconciler struct {
	pager        *Paginator
	events       emitter
	logger       *slog.Logger
	widenDays    int
	lookbackDays int
	loc          *time.Location
	now          func() time.Time
}

func NewWindowReconciler(pager *Paginator, sink port.EventSink, logger *slog.Logger, cfg ReconcilerConfig) *WindowReconciler {
	if cfg.WidenDays < 0 {
		cfg.WidenDays = domain.DefaultWidenDays
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &WindowReconciler{
		pager:        pager,
		events:       newEmitter(sink),
		logger:       logging.Component(logger, "reconciler"),
		widenDays:    cfg.WidenDays,
		lookbackDays: cfg.LookbackDays,
		loc:          cfg.Location,
		now:          time.Now,
	}
}

// Today is the current calendar day in the configured location.
func (w *WindowReconciler) Today() domain.Date {
	return domain.DateOf(w.now().In(w.loc))
}

// Reconcile returns every reservation whose stay overlaps selection, in
// pagination order. A nil selection means the default lookback window.
func (w *WindowReconciler) Reconcile(ctx context.Context, siteCode string, selection *domain.Window) (*ReconcileResult, error) {
	var selected domain.Window
	if selection == nil {
		selected = domain.DefaultWindow(w.Today(), w.lookbackDays)
	} else {
		var err error
		if selected, err = domain.NewWindow(selection.Start, selection.End); err != nil {
			return nil, err
		}
	}
	search := selected.Widen(w.widenDays)

	page, err := w.pager.ListAll(ctx, siteCode, search)
	if err != nil {
		return nil, err
	}

	kept := make([]*domain.Reservation, 0, len(page.Reservations))
	for _, r := range page.Reservations {
		if selected.Overlaps(r.CheckIn, r.CheckOut) {
			kept = append(kept, r)
		}
	}

	w.logger.Info("window reconciled",
		slog.String("siteCode", siteCode),
		slog.String("selected", selected.String()),
		slog.String("search", search.String()),
		slog.Int("fetched", len(page.Reservations)),
		slog.Int("kept", len(kept)),
		slog.Bool("truncated", page.Truncated),
	)
	w.events.emit(ctx, domain.StageWindowReconciled, domain.OutcomeOK, siteCode, map[string]any{
		"selected":  selected.String(),
		"search":    search.String(),
		"fetched":   len(page.Reservations),
		"kept":      len(kept),
		"pages":     page.Pages,
		"truncated": page.Truncated,
	})

	return &ReconcileResult{
		Selected:     selected,
		Search:       search,
		Reservations: kept,
		Fetched:      len(page.Reservations),
		Pages:        page.Pages,
		Truncated:    page.Truncated,
		Rejected:     page.Rejected,
	}, nil
}
