package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingCredentials = errors.New("identifier and secret are required")
	// ErrMalformedLogin is a successful login reply missing token or expiry.
	ErrMalformedLogin = errors.New("malformed login reply")
)

// Credentials are only held for the duration of a login call.
type Credentials struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Identifier) == "" || c.Secret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Session is the authenticated state shared by every upstream call.
type Session struct {
	Token     string    `json:"-"`
	SiteCodes []string  `json:"siteCodes"`
	Expiry    time.Time `json:"expiry"`
}

// IsValid reports whether the session carries a token that has not expired.
func (s *Session) IsValid(now time.Time) bool {
	return s != nil && s.Token != "" && now.Before(s.Expiry)
}

// Clone returns a copy that does not share the site code slice.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.SiteCodes = append([]string(nil), s.SiteCodes...)
	return &out
}
