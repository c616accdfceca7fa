package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/logging"
)

type staticSession struct{}

func (staticSession) Token(context.Context) (string, error) { return "tok", nil }

func (staticSession) Clear(context.Context) error { return nil }

func newAPI(t *testing.T, mux *http.ServeMux) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return upstream.New(upstream.Options{BaseURL: srv.URL, Timeout: time.Second, Logger: logging.Discard()}).WithSession(staticSession{})
}

func TestListPageFlattensDaysAndReadsMeta(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/reservation/dates", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "H1", q.Get("site_code"))
		assert.Equal(t, "2024-07-03", q.Get("start_date"))
		assert.Equal(t, "2025-01-29", q.Get("end_date"))
		assert.Equal(t, "100", q.Get("take"))
		assert.Equal(t, "abc", q.Get("cursor"))
		_, _ = io.WriteString(w, `{"status":"success",
			"data":[[{"reservation_id":1},{"reservation_id":2}],[{"reservationId":3}]],
			"meta":{"take":100,"itemCount":3,"itemRemaining":40,"hasNextPage":true,"cursor":"def"}}`)
	})
	client := NewReservationHTTPClient(newAPI(t, mux), time.Second, logging.Discard())

	page, err := client.ListPage(context.Background(), port.PageQuery{
		SiteCode: "H1",
		Window:   domain.Window{Start: domain.NewDate(2024, 7, 3), End: domain.NewDate(2025, 1, 29)},
		Take:     100,
		Cursor:   "abc",
	})
	require.NoError(t, err)
	assert.Len(t, page.Records, 3)
	assert.True(t, page.HasNext)
	assert.Equal(t, "def", page.Cursor)
	assert.Equal(t, 3, page.ItemCount)
}

func TestListPageNotFoundIsAnError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/reservation/dates", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("cursor"), "first page carries no cursor")
		http.NotFound(w, r)
	})
	client := NewReservationHTTPClient(newAPI(t, mux), time.Second, logging.Discard())

	_, err := client.ListPage(context.Background(), port.PageQuery{SiteCode: "H1", Take: 10})
	assert.ErrorIs(t, err, upstream.ErrNotFound)
}

func TestReferenceLookups(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/channel-manager/operators", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","data":[{"id":12,"name":"Hotelbeds"},{"id":13}]}`)
	})
	mux.HandleFunc("/regime", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"code":"BB","name":"Desayuno"}]`)
	})
	mux.HandleFunc("/space", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","data":{"items":[{"id":1,"name":"Doble","subtypes":[{"id":12,"name":"Doble vista mar"}]}]}}`)
	})
	mux.HandleFunc("/extra", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/billing", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1001", r.URL.Query().Get("reservation_id"))
		_, _ = io.WriteString(w, `{"status":"success","data":[{"id":"F-1","reservation_id":1001,"total":"80.50"}]}`)
	})
	refs := NewReferenceHTTPClient(newAPI(t, mux), logging.Discard())
	ctx := context.Background()

	ops, err := refs.Operators(ctx, "H1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Operator{{ID: "12", Name: "Hotelbeds"}}, ops)

	regimes, err := refs.Regimes(ctx, "H1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Regime{{Code: "BB", Name: "Desayuno"}}, regimes)

	spaces, err := refs.SpaceTypes(ctx, "H1")
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, "Doble vista mar", spaces[0].Subtypes[0].Name)

	extras, err := refs.Extras(ctx, "H1")
	require.NoError(t, err, "404 on a lookup is an empty catalog")
	assert.Empty(t, extras)

	invoices, err := refs.Invoices(ctx, "H1", 1001)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.InDelta(t, 80.5, invoices[0].Total, 1e-9)
}

func TestReferenceLookupServerErrorPropagates(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/regime", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := NewReferenceHTTPClient(newAPI(t, mux), logging.Discard()).Regimes(context.Background(), "H1")
	assert.ErrorIs(t, err, upstream.ErrTransport)
}
