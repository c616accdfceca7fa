package domain

import (
	"strconv"
	"strings"
)

const NoExtrasLabel = "No tiene extras contratados"

// FormatExtras renders the charges that resolve against catalog as
// "name" or "name (xN)", dropping repeated entries and joining with ", ".
// Charges whose extra id is unknown are skipped.
func FormatExtras(charges []Charge, catalog map[string]Extra) string {
	seen := make(map[string]struct{}, len(charges))
	parts := make([]string, 0, len(charges))
	for _, ch := range charges {
		extra, ok := catalog[ch.ExtraID]
		if !ok || strings.TrimSpace(extra.Name) == "" {
			continue
		}
		entry := extra.Name
		if ch.Quantity > 1 {
			entry += " (x" + strconv.Itoa(ch.Quantity) + ")"
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		parts = append(parts, entry)
	}
	if len(parts) == 0 {
		return NoExtrasLabel
	}
	return strings.Join(parts, ", ")
}
