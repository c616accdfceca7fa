package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/logging"
)

const DefaultEnrichConcurrency = 5

const (
	LookupOperators = "operators"
	LookupRegimes   = "regimes"
	LookupSpaces    = "spaces"
	LookupExtras    = "extras"
)

type EnricherConfig struct {
	// OperatorSeed names operators before the catalog is consulted; catalog
	// names replace seeded ones.
	OperatorSeed map[string]string
	// OperatorOverrides replace catalog names.
	OperatorOverrides map[string]string
	Concurrency       int
}

type LookupOutcome struct {
	Outcome domain.Outcome `json:"outcome"`
	Entries int            `json:"entries"`
	Error   string         `json:"error,omitempty"`
}

// EnrichmentReport summarizes what each best-effort step achieved.
type EnrichmentReport struct {
	Lookups        map[string]LookupOutcome `json:"lookups"`
	BillingOK      int                      `json:"billingOk"`
	BillingFailed  int                      `json:"billingFailed"`
	SessionExpired bool                     `json:"sessionExpired"`
}

// Warnings lists the degraded steps in a form fit for the UI.
func (r *EnrichmentReport) Warnings() []string {
	var out []string
	for _, name := range []string{LookupOperators, LookupRegimes, LookupSpaces, LookupExtras} {
		if o, ok := r.Lookups[name]; ok && o.Outcome != domain.OutcomeOK {
			out = append(out, name+" lookup unavailable, showing fallback labels")
		}
	}
	if r.BillingFailed > 0 {
		out = append(out, "billing unavailable for some reservations")
	}
	if r.SessionExpired {
		out = append(out, "session expired during enrichment")
	}
	return out
}

// Enricher joins reference catalogs and billing onto reservations.
type Enricher struct {
	refs        port.ReferenceFetcher
	billing     port.BillingFetcher
	events      emitter
	logger      *slog.Logger
	seed        map[string]string
	overrides   map[string]string
	concurrency int
}

func NewEnricher(refs port.ReferenceFetcher, billing port.BillingFetcher, sink port.EventSink, logger *slog.Logger, cfg EnricherConfig) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultEnrichConcurrency
	}
	return &Enricher{
		refs:        refs,
		billing:     billing,
		events:      newEmitter(sink),
		logger:      logging.Component(logger, "enricher"),
		seed:        cfg.OperatorSeed,
		overrides:   cfg.OperatorOverrides,
		concurrency: cfg.Concurrency,
	}
}

type catalogs struct {
	operators map[string]string
	regimes   map[string]string
	subtypes  map[string]string
	types     map[string]string
	extras    map[string]domain.Extra
}

// Enrich fills the derived fields of every reservation in place. No step
// can fail the call: missing data degrades to fallback labels.
func (e *Enricher) Enrich(ctx context.Context, items []*domain.Reservation, siteCode string) *EnrichmentReport {
	report := &EnrichmentReport{Lookups: make(map[string]LookupOutcome, 4)}
	if len(items) == 0 {
		return report
	}

	cat := e.loadCatalogs(ctx, siteCode, report)
	for _, r := range items {
		e.label(r, cat)
	}
	e.attachBilling(ctx, items, siteCode, report)

	e.logger.Info("enrichment completed",
		slog.String("siteCode", siteCode),
		slog.Int("reservations", len(items)),
		slog.Int("billingOk", report.BillingOK),
		slog.Int("billingFailed", report.BillingFailed),
	)
	e.events.emit(ctx, domain.StageEnriched, domain.OutcomeOK, siteCode, map[string]any{
		"reservations":  len(items),
		"billingOk":     report.BillingOK,
		"billingFailed": report.BillingFailed,
	})
	return report
}

func (e *Enricher) loadCatalogs(ctx context.Context, siteCode string, report *EnrichmentReport) catalogs {
	cat := catalogs{
		operators: make(map[string]string),
		regimes:   make(map[string]string),
		subtypes:  make(map[string]string),
		types:     make(map[string]string),
		extras:    make(map[string]domain.Extra),
	}
	for id, name := range e.seed {
		cat.operators[id] = name
	}

	var mu sync.Mutex
	record := func(name string, entries int, err error) {
		mu.Lock()
		defer mu.Unlock()
		e.recordLookup(ctx, siteCode, name, entries, err, report)
	}

	// Lookups never return an error to the group so one failure cannot
	// cancel its siblings.
	var g errgroup.Group
	g.Go(func() error {
		ops, err := e.refs.Operators(ctx, siteCode)
		mu.Lock()
		for _, op := range ops {
			cat.operators[op.ID] = op.Name
		}
		mu.Unlock()
		record(LookupOperators, len(ops), err)
		return nil
	})
	g.Go(func() error {
		regimes, err := e.refs.Regimes(ctx, siteCode)
		mu.Lock()
		for _, r := range regimes {
			cat.regimes[r.Code] = r.Name
		}
		mu.Unlock()
		record(LookupRegimes, len(regimes), err)
		return nil
	})
	g.Go(func() error {
		spaceTypes, err := e.refs.SpaceTypes(ctx, siteCode)
		entries := 0
		mu.Lock()
		for _, st := range spaceTypes {
			if st.ID != "" && st.Name != "" {
				cat.types[st.ID] = st.Name
			}
			for _, sub := range st.Subtypes {
				cat.subtypes[sub.ID] = sub.Name
				entries++
			}
		}
		mu.Unlock()
		record(LookupSpaces, entries, err)
		return nil
	})
	g.Go(func() error {
		extras, err := e.refs.Extras(ctx, siteCode)
		mu.Lock()
		for _, ex := range extras {
			cat.extras[ex.ID] = ex
		}
		mu.Unlock()
		record(LookupExtras, len(extras), err)
		return nil
	})
	_ = g.Wait()

	for id, name := range e.overrides {
		cat.operators[id] = name
	}
	return cat
}

func (e *Enricher) recordLookup(ctx context.Context, siteCode, name string, entries int, err error, report *EnrichmentReport) {
	outcome := LookupOutcome{Outcome: domain.OutcomeOK, Entries: entries}
	if err != nil {
		outcome.Outcome = domain.OutcomeFallback
		outcome.Error = err.Error()
		if isSessionLoss(err) {
			report.SessionExpired = true
		}
		e.logger.Warn("reference lookup failed, using fallback labels", slog.String("lookup", name), slog.Any("error", err))
	} else {
		e.logger.Debug("reference lookup loaded", slog.String("lookup", name), slog.Int("entries", entries))
	}
	report.Lookups[name] = outcome
	e.events.emit(ctx, domain.StageLookup, outcome.Outcome, siteCode, map[string]any{
		"lookup":  name,
		"entries": entries,
		"error":   outcome.Error,
	})
}

func (e *Enricher) label(r *domain.Reservation, cat catalogs) {
	if name, ok := cat.operators[r.OperatorID]; ok && r.OperatorID != "" {
		r.OperatorName = name
	} else {
		r.OperatorName = domain.OperatorFallback(r.OperatorID)
	}

	if name, ok := cat.regimes[r.Regime]; ok && r.Regime != "" {
		r.RegimeName = name
	} else {
		r.RegimeName = domain.RegimeFallback(r.Regime)
	}

	switch {
	case r.SpaceSubtypeID != "" && cat.subtypes[r.SpaceSubtypeID] != "":
		r.SpaceTypeName = cat.subtypes[r.SpaceSubtypeID]
	case r.SpaceTypeID != "" && cat.types[r.SpaceTypeID] != "":
		r.SpaceTypeName = cat.types[r.SpaceTypeID]
	case r.SpaceSubtypeID != "":
		r.SpaceTypeName = domain.SpaceFallback(r.SpaceSubtypeID)
	default:
		r.SpaceTypeName = domain.SpaceFallback(r.SpaceTypeID)
	}

	r.ExtrasText = domain.FormatExtras(r.AllCharges(), cat.extras)
}

func (e *Enricher) attachBilling(ctx context.Context, items []*domain.Reservation, siteCode string, report *EnrichmentReport) {
	var ok, failed atomic.Int32
	var expired atomic.Bool

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for _, r := range items {
		r := r
		g.Go(func() error {
			invoices, err := e.billing.Invoices(ctx, siteCode, r.ID)
			if err != nil {
				failed.Add(1)
				if isSessionLoss(err) {
					expired.Store(true)
				}
				r.ApplyBillingFallback()
				e.logger.Warn("billing lookup failed", slog.Int64("reservationId", r.ID), slog.Any("error", err))
				e.events.emit(ctx, domain.StageBilling, domain.OutcomeFallback, siteCode, map[string]any{
					"reservationId": r.ID,
					"error":         err.Error(),
				})
				return nil
			}
			ok.Add(1)
			r.ApplyBilling(invoices)
			return nil
		})
	}
	_ = g.Wait()

	report.BillingOK = int(ok.Load())
	report.BillingFailed = int(failed.Load())
	if expired.Load() {
		report.SessionExpired = true
	}
}

func isSessionLoss(err error) bool {
	return errors.Is(err, upstream.ErrAuthExpired) || errors.Is(err, upstream.ErrNotAuthenticated)
}
