package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed is matched by every *AuthError.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrAuthExpired means the PMS rejected a bearer token; the session has
	// already been cleared when it is returned.
	ErrAuthExpired      = errors.New("token expired, please authenticate again")
	ErrNotAuthenticated = errors.New("no valid session")
	ErrNotFound         = errors.New("upstream resource not found")
	ErrTimeout          = errors.New("upstream request timed out")
	ErrTransport        = errors.New("upstream transport failure")
)

// AuthError carries the status code and server message of a rejected login.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication failed (status %d)", e.Status)
	}
	return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Message)
}

func (e *AuthError) Is(target error) bool { return target == ErrAuthenticationFailed }

// StatusError is an unexpected upstream reply: a non-2xx status or an
// envelope whose status field is not "success".
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected upstream response %d from %s", e.Status, e.Path)
	}
	return fmt.Sprintf("unexpected upstream response %d from %s: %s", e.Status, e.Path, e.Message)
}

func (e *StatusError) Is(target error) bool { return target == ErrTransport }
