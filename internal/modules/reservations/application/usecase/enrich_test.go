package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/logging"
)

func fullRefs() *fakeRefs {
	return &fakeRefs{
		operators: []domain.Operator{{ID: "3", Name: "Booking.com (API)"}, {ID: "12", Name: "Hotelbeds"}},
		regimes:   []domain.Regime{{Code: "BB", Name: "Alojamiento y desayuno"}},
		spaces: []domain.SpaceType{{
			ID:       "1",
			Name:     "Doble",
			Subtypes: []domain.SpaceSubtype{{ID: "12", Name: "Doble vista mar"}},
		}},
		extras: []domain.Extra{{ID: "7", Name: "Late checkout"}, {ID: "8", Name: "Parking"}},
	}
}

func TestEnrichJoinsEveryCatalog(t *testing.T) {
	t.Parallel()

	items := []*domain.Reservation{
		{ID: 1, OperatorID: "12", Regime: "BB", SpaceSubtypeID: "12", Charges: []domain.Charge{{ExtraID: "8", Quantity: 1}}},
		{ID: 2, OperatorID: "3", Regime: "HB", SpaceTypeID: "1"},
		{ID: 3, OperatorID: "40", SpaceSubtypeID: "77"},
	}
	billing := &fakeBilling{invoices: map[int64][]domain.Invoice{1: {{ReservationID: 1, Total: 50}}}}
	e := NewEnricher(fullRefs(), billing, nil, logging.Discard(), EnricherConfig{
		OperatorSeed:      map[string]string{"3": "Booking.com", "0": "Motor de reservas"},
		OperatorOverrides: map[string]string{"12": "Hotelbeds Group"},
	})

	report := e.Enrich(context.Background(), items, "H1")

	assert.Equal(t, "Hotelbeds Group", items[0].OperatorName, "override beats catalog")
	assert.Equal(t, "Booking.com (API)", items[1].OperatorName, "catalog beats seed")
	assert.Equal(t, "Operador 40", items[2].OperatorName)

	assert.Equal(t, "Alojamiento y desayuno", items[0].RegimeName)
	assert.Equal(t, "HB", items[1].RegimeName)
	assert.Equal(t, domain.NotAvailableLabel, items[2].RegimeName)

	assert.Equal(t, "Doble vista mar", items[0].SpaceTypeName)
	assert.Equal(t, "Doble", items[1].SpaceTypeName)
	assert.Equal(t, "Type 77", items[2].SpaceTypeName)

	assert.Equal(t, "Parking", items[0].ExtrasText)
	assert.Equal(t, domain.NoExtrasLabel, items[1].ExtrasText)

	require.NotNil(t, items[0].BillingTotal)
	assert.Equal(t, 50.0, *items[0].BillingTotal)
	assert.False(t, *items[0].IsFullyPaid)
	require.NotNil(t, items[1].BillingTotal)
	assert.Zero(t, *items[1].BillingTotal)
	assert.True(t, *items[1].IsFullyPaid)

	assert.Equal(t, 3, report.BillingOK)
	assert.Empty(t, report.Warnings())
	for _, name := range []string{LookupOperators, LookupRegimes, LookupSpaces, LookupExtras} {
		assert.Equal(t, domain.OutcomeOK, report.Lookups[name].Outcome, name)
	}
}

func TestEnrichOperatorLookupFailureFallsBack(t *testing.T) {
	t.Parallel()

	refs := fullRefs()
	refs.operators = nil
	refs.operatorsErr = fmt.Errorf("%w: boom", upstream.ErrTransport)
	items := []*domain.Reservation{{ID: 1, OperatorID: "12"}, {ID: 2, OperatorID: "55"}}
	sink := &recordingSink{}

	report := NewEnricher(refs, &fakeBilling{}, sink, logging.Discard(), EnricherConfig{}).Enrich(context.Background(), items, "H1")

	assert.Equal(t, "Operador 12", items[0].OperatorName)
	assert.Equal(t, "Operador 55", items[1].OperatorName)
	assert.Equal(t, domain.OutcomeFallback, report.Lookups[LookupOperators].Outcome)
	assert.Equal(t, domain.OutcomeOK, report.Lookups[LookupRegimes].Outcome, "other lookups keep going")
	assert.NotEmpty(t, report.Warnings())
	assert.Contains(t, sink.stages(), domain.StageLookup)
}

func TestEnrichExtrasQuantities(t *testing.T) {
	t.Parallel()

	items := []*domain.Reservation{{
		ID:                1,
		Charges:           []domain.Charge{{ExtraID: "7", Quantity: 1}},
		PredefinedCharges: []domain.Charge{{ExtraID: "7", Quantity: 2}, {ExtraID: "7", Quantity: 1}},
	}}
	NewEnricher(fullRefs(), &fakeBilling{}, nil, logging.Discard(), EnricherConfig{}).Enrich(context.Background(), items, "H1")
	assert.Equal(t, "Late checkout, Late checkout (x2)", items[0].ExtrasText)
}

func TestEnrichBillingFailureDegrades(t *testing.T) {
	t.Parallel()

	paid := true
	items := []*domain.Reservation{{ID: 1, Paid: &paid}, {ID: 2}}
	billing := &fakeBilling{fail: map[int64]error{1: upstream.ErrTimeout, 2: upstream.ErrAuthExpired}}

	report := NewEnricher(fullRefs(), billing, nil, logging.Discard(), EnricherConfig{}).Enrich(context.Background(), items, "H1")

	assert.Nil(t, items[0].BillingTotal)
	assert.Equal(t, domain.PaidLabel, items[0].PaymentLabel())
	assert.Equal(t, domain.PendingLabel, items[1].PaymentLabel())
	assert.Equal(t, 2, report.BillingFailed)
	assert.True(t, report.SessionExpired)
}

func TestEnrichBillingConcurrencyIsBounded(t *testing.T) {
	t.Parallel()

	items := make([]*domain.Reservation, 0, 20)
	for i := 1; i <= 20; i++ {
		items = append(items, &domain.Reservation{ID: int64(i)})
	}
	billing := &fakeBilling{delay: 10 * time.Millisecond}

	report := NewEnricher(fullRefs(), billing, nil, logging.Discard(), EnricherConfig{Concurrency: 3}).Enrich(context.Background(), items, "H1")

	assert.EqualValues(t, 20, billing.calls.Load())
	assert.LessOrEqual(t, billing.peak.Load(), int32(3))
	assert.Equal(t, 20, report.BillingOK)
}

func TestEnrichEmptyInputSkipsLookups(t *testing.T) {
	t.Parallel()

	refs := &fakeRefs{operatorsErr: errors.New("must not be called")}
	report := NewEnricher(refs, &fakeBilling{}, nil, logging.Discard(), EnricherConfig{}).Enrich(context.Background(), nil, "H1")
	assert.Empty(t, report.Lookups)
}
