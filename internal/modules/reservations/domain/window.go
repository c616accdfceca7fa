package domain

import "fmt"

// DefaultWidenDays bounds how far before the selection a check-in can lie
// while the stay still overlaps it. Stays longer than this, or bookings
// outside this lead time, are missed. It is a heuristic, not a guarantee.
const DefaultWidenDays = 90

// Window is a closed range of calendar days.
type Window struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func NewWindow(start, end Date) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, fmt.Errorf("%w: both start and end are required", ErrInvalidWindow)
	}
	if start.After(end) {
		return Window{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, start, end)
	}
	return Window{Start: start, End: end}, nil
}

// ParseWindow builds a window from two "YYYY-MM-DD" strings.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start: %w", ErrInvalidWindow, err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end: %w", ErrInvalidWindow, err)
	}
	return NewWindow(s, e)
}

// DefaultWindow covers the lookbackDays before today, today included.
func DefaultWindow(today Date, lookbackDays int) Window {
	return Window{Start: today.AddDays(-lookbackDays), End: today}
}

func (w Window) Widen(days int) Window {
	return Window{Start: w.Start.AddDays(-days), End: w.End.AddDays(days)}
}

// Overlaps reports whether a stay touches the window. Both ends are
// inclusive: a checkout on the first day or a check-in on the last day count.
func (w Window) Overlaps(checkIn, checkOut Date) bool {
	return !checkIn.After(w.End) && !checkOut.Before(w.Start)
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}
