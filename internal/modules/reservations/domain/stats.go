package domain

type Stats struct {
	Total           int     `json:"total"`
	Confirmed       int     `json:"confirmed"`
	Guests          int     `json:"guests"`
	Revenue         float64 `json:"revenue"`
	PendingPayments int     `json:"pending_payments"`
}

func ComputeStats(items []*Reservation) Stats {
	s := Stats{Total: len(items)}
	for _, r := range items {
		if IsConfirmed(r.Status) {
			s.Confirmed++
		}
		s.Guests += r.Guests()
		s.Revenue += r.Price
		if r.PaymentLabel() != PaidLabel {
			s.PendingPayments++
		}
	}
	return s
}
