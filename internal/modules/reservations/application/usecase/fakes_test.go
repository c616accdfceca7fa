package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"aviratoDash/internal/modules/reservations/application/port"
	"aviratoDash/internal/modules/reservations/domain"
)

// fakeLister serves records in pages of q.Take using the record offset as
// cursor, the way the PMS hands out opaque cursors.
type fakeLister struct {
	mu       sync.Mutex
	records  []map[string]any
	queries  []port.PageQuery
	failPage int
	err      error
	// endless keeps reporting hasNextPage, to exercise the page ceiling.
	endless bool
	// stall reports hasNextPage on the first page without a cursor.
	stall bool
}

func (f *fakeLister) ListPage(_ context.Context, q port.PageQuery) (*port.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.failPage > 0 && len(f.queries) == f.failPage {
		return nil, f.err
	}
	offset := 0
	if q.Cursor != "" {
		offset, _ = strconv.Atoi(q.Cursor)
	}
	if f.stall {
		return &port.Page{Records: f.records, HasNext: true}, nil
	}
	if f.endless {
		return &port.Page{
			Records: []map[string]any{stay(int64(offset+1), "2024-10-01", "2024-10-02")},
			HasNext: true,
			Cursor:  strconv.Itoa(offset + 1),
		}, nil
	}
	end := offset + q.Take
	if end > len(f.records) {
		end = len(f.records)
	}
	page := &port.Page{Records: f.records[offset:end], HasNext: end < len(f.records)}
	if page.HasNext {
		page.Cursor = strconv.Itoa(end)
	}
	return page, nil
}

func stay(id int64, checkIn, checkOut string) map[string]any {
	return map[string]any{
		"reservation_id": float64(id),
		"check_in_date":  checkIn + " 14:00:00",
		"check_out_date": checkOut + " 11:00:00",
		"adults":         float64(2),
		"price":          float64(100),
		"status":         "Reserva confirmada",
	}
}

type fakeRefs struct {
	operators    []domain.Operator
	operatorsErr error
	regimes      []domain.Regime
	regimesErr   error
	spaces       []domain.SpaceType
	spacesErr    error
	extras       []domain.Extra
	extrasErr    error
}

func (f *fakeRefs) Operators(context.Context, string) ([]domain.Operator, error) {
	return f.operators, f.operatorsErr
}

func (f *fakeRefs) Regimes(context.Context, string) ([]domain.Regime, error) {
	return f.regimes, f.regimesErr
}

func (f *fakeRefs) SpaceTypes(context.Context, string) ([]domain.SpaceType, error) {
	return f.spaces, f.spacesErr
}

func (f *fakeRefs) Extras(context.Context, string) ([]domain.Extra, error) {
	return f.extras, f.extrasErr
}

type fakeBilling struct {
	invoices map[int64][]domain.Invoice
	fail     map[int64]error
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (f *fakeBilling) Invoices(_ context.Context, _ string, id int64) ([]domain.Invoice, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	return f.invoices[id], nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.PipelineEvent
}

func (s *recordingSink) Emit(_ context.Context, ev domain.PipelineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) stages() []domain.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Stage, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Stage)
	}
	return out
}

type fakeSession struct {
	valid bool
	codes []string
}

func (f *fakeSession) IsValid(context.Context) bool { return f.valid }

func (f *fakeSession) SiteCodes(context.Context) []string { return f.codes }

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, msg *domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
}

func (b *recordingBroadcaster) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.messages))
	for _, m := range b.messages {
		out = append(out, m.Topic)
	}
	return out
}

func ids(items []*domain.Reservation) []int64 {
	out := make([]int64, 0, len(items))
	for _, r := range items {
		out = append(out, r.ID)
	}
	return out
}

func manyStays(n int) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		day := fmt.Sprintf("2024-10-%02d", (i%28)+1)
		out = append(out, stay(int64(i), day, day))
	}
	return out
}
