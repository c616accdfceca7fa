package domain

// SumInvoices totals the invoices that belong to reservationID. Invoices
// that do not name a reservation are assumed to belong to the one queried.
func SumInvoices(reservationID int64, invoices []Invoice) float64 {
	var total float64
	for _, inv := range invoices {
		if inv.ReservationID != 0 && inv.ReservationID != reservationID {
			continue
		}
		total += inv.Total
	}
	return total
}

// FullyPaid mirrors the PMS dashboard rule: nothing left invoiced means
// paid. A reservation never invoiced therefore reads as paid.
func FullyPaid(total float64) bool {
	return total == 0
}

// ApplyBilling attaches a successful billing lookup to r.
func (r *Reservation) ApplyBilling(invoices []Invoice) {
	total := SumInvoices(r.ID, invoices)
	paid := FullyPaid(total)
	r.BillingTotal = &total
	r.IsFullyPaid = &paid
}

// ApplyBillingFallback leaves the total unknown and falls back to the
// record's own paid flags.
func (r *Reservation) ApplyBillingFallback() {
	r.BillingTotal = nil
	if r.IsFullyPaid != nil {
		return
	}
	if r.Paid != nil {
		paid := *r.Paid
		r.IsFullyPaid = &paid
		return
	}
	paid := false
	r.IsFullyPaid = &paid
}
