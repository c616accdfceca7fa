package domain

import (
	"strconv"
	"strings"
)

// DisplayName picks the best guest name: "name surname" from the client
// object, then the flat client name, then the client id.
func (r *Reservation) DisplayName() string {
	if r.Client != nil {
		full := strings.TrimSpace(r.Client.Name + " " + r.Client.Surname)
		if full != "" {
			return full
		}
	}
	if r.ClientName != "" {
		return r.ClientName
	}
	if r.ClientID != "" {
		return r.ClientID
	}
	return NotAvailableLabel
}

// Matches reports whether the case-insensitive query appears in the guest
// name, the client id or the reservation id. A blank query matches all.
func (r *Reservation) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	candidates := []string{r.ClientName, r.ClientID, strconv.FormatInt(r.ID, 10)}
	if r.Client != nil {
		candidates = append(candidates, r.Client.Name+" "+r.Client.Surname)
	}
	for _, c := range candidates {
		if c != "" && strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}

// Filter keeps, in order, the reservations matching query.
func Filter(items []*Reservation, query string) []*Reservation {
	if strings.TrimSpace(query) == "" {
		return items
	}
	out := make([]*Reservation, 0, len(items))
	for _, r := range items {
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return out
}
