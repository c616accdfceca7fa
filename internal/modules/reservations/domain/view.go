package domain

import "fmt"

// View is the dashboard projection of an enriched reservation: the
// canonical record plus ready-to-render labels.
type View struct {
	*Reservation
	GuestName    string `json:"guest_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	StatusLabel  string `json:"status_label"`
	PaymentLabel string `json:"payment_label"`
	Confirmed    bool   `json:"confirmed"`
	GuestsLabel  string `json:"guests_label"`
	Nights       int    `json:"nights"`
	Notes        string `json:"notes"`
}

func NewView(r *Reservation) View {
	v := View{
		Reservation:  r,
		GuestName:    r.DisplayName(),
		Phone:        NotAvailableLabel,
		Email:        NotAvailableLabel,
		StatusLabel:  StatusLabel(r.Status),
		PaymentLabel: r.PaymentLabel(),
		Confirmed:    IsConfirmed(r.Status),
		GuestsLabel:  fmt.Sprintf("%d adultos, %d niños", r.Adults, r.Children),
		Nights:       r.Nights(),
		Notes:        NoObservationsLabel,
	}
	if r.Client != nil {
		if r.Client.Phone != "" {
			v.Phone = r.Client.Phone
		}
		if r.Client.Email != "" {
			v.Email = r.Client.Email
		}
	}
	switch {
	case r.Observations != "":
		v.Notes = r.Observations
	case r.Client != nil && r.Client.Observations != "":
		v.Notes = r.Client.Observations
	}
	return v
}

func Views(items []*Reservation) []View {
	out := make([]View, 0, len(items))
	for _, r := range items {
		out = append(out, NewView(r))
	}
	return out
}
