package domain

import "strings"

// IsConfirmed matches free-text statuses such as "Reserva confirmada" or
// "CONFIRMED". The PMS has no closed status enum.
func IsConfirmed(status string) bool {
	return strings.Contains(strings.ToLower(status), "confirm")
}

// StatusLabel shortens the PMS wording for display.
func StatusLabel(status string) string {
	s := strings.TrimSpace(status)
	switch {
	case s == "":
		return NotAvailableLabel
	case strings.EqualFold(s, "Reserva confirmada"):
		return "Confirmada"
	default:
		return s
	}
}

const (
	NotAvailableLabel   = "No disponible"
	NoObservationsLabel = "Sin observaciones"
	PaidLabel           = "Pagado"
	PaymentPendingLabel = "Pago Pendiente"
	PendingLabel        = "Pendiente"
)

// PaymentLabel prefers the billing-derived flag and falls back to the
// record's paid flag when billing is unknown.
func (r *Reservation) PaymentLabel() string {
	if r.BillingTotal != nil && r.IsFullyPaid != nil {
		if *r.IsFullyPaid {
			return PaidLabel
		}
		return PaymentPendingLabel
	}
	if (r.IsFullyPaid != nil && *r.IsFullyPaid) || (r.Paid != nil && *r.Paid) {
		return PaidLabel
	}
	return PendingLabel
}
