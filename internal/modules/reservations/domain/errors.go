package domain

import "errors"

var (
	// ErrDataIntegrity marks a record the PMS returned in a shape we cannot
	// trust, e.g. an unparseable stay date.
	ErrDataIntegrity = errors.New("data integrity")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidWindow = errors.New("invalid date window")
)
