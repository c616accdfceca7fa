package port

import (
	"context"
	"time"

	"aviratoDash/internal/modules/session/domain"
)

// KeyValueStore is the durable backing of the session. Missing keys are
// simply absent from the map Get returns.
type KeyValueStore interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	// Set writes every pair; a positive ttl lets the backend expire them.
	Set(ctx context.Context, values map[string]string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
}
