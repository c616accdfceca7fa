package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aviratoDash/internal/modules/session/application/port"
	"aviratoDash/internal/modules/session/domain"
	"aviratoDash/internal/platform/storage"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/logging"
)

type fakeAuth struct {
	session *domain.Session
	err     error
	calls   int
}

func (f *fakeAuth) Login(context.Context, domain.Credentials) (*domain.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.session.Clone(), nil
}

type failingKV struct{ *storage.MemoryStore }

func (failingKV) Delete(context.Context, ...string) error { return errors.New("backend down") }

var (
	now   = time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	creds = domain.Credentials{Identifier: "front@hotel.test", Secret: "pw"}
)

func newStore(kv port.KeyValueStore, auth *fakeAuth) *Store {
	s := NewStore(kv, auth, "test:", logging.Discard())
	s.now = func() time.Time { return now }
	return s
}

func TestAuthenticateStoresAndPersists(t *testing.T) {
	kv := storage.NewMemoryStore()
	auth := &fakeAuth{session: &domain.Session{Token: "tok", SiteCodes: []string{"H1", "H2"}, Expiry: now.Add(time.Hour)}}
	s := newStore(kv, auth)

	assert.False(t, s.IsValid(context.Background()))
	assert.Empty(t, s.SiteCodes(context.Background()))

	sess, err := s.Authenticate(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H2"}, sess.SiteCodes)
	assert.True(t, s.IsValid(context.Background()))

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	stored, err := kv.Get(context.Background(), "test:avirato_token", "test:avirato_web_codes", "test:avirato_token_expiry")
	require.NoError(t, err)
	assert.Equal(t, "tok", stored["test:avirato_token"])
	assert.JSONEq(t, `["H1","H2"]`, stored["test:avirato_web_codes"])
	assert.Equal(t, "2024-10-01T10:00:00Z", stored["test:avirato_token_expiry"])
}

func TestStoreReloadsPersistedSession(t *testing.T) {
	kv := storage.NewMemoryStore()
	auth := &fakeAuth{session: &domain.Session{Token: "tok", SiteCodes: []string{"H1"}, Expiry: now.Add(time.Hour)}}
	_, err := newStore(kv, auth).Authenticate(context.Background(), creds)
	require.NoError(t, err)

	restarted := newStore(kv, &fakeAuth{})
	assert.True(t, restarted.IsValid(context.Background()))
	assert.Equal(t, []string{"H1"}, restarted.SiteCodes(context.Background()))
}

func TestClearInvalidatesAndRunsHooks(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := newStore(kv, &fakeAuth{session: &domain.Session{Token: "tok", SiteCodes: []string{"H1"}, Expiry: now.Add(time.Hour)}})
	cleared := 0
	s.OnClear(func(context.Context) { cleared++ })

	_, err := s.Authenticate(context.Background(), creds)
	require.NoError(t, err)
	require.NoError(t, s.Clear(context.Background()))

	assert.False(t, s.IsValid(context.Background()))
	assert.Empty(t, s.SiteCodes(context.Background()))
	_, err = s.Token(context.Background())
	assert.ErrorIs(t, err, upstream.ErrNotAuthenticated)
	assert.Equal(t, 1, cleared)

	stored, err := kv.Get(context.Background(), "test:avirato_token")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestClearAlwaysDropsMemory(t *testing.T) {
	kv := failingKV{storage.NewMemoryStore()}
	s := newStore(kv, &fakeAuth{session: &domain.Session{Token: "tok", Expiry: now.Add(time.Hour)}})
	_, err := s.Authenticate(context.Background(), creds)
	require.NoError(t, err)

	err = s.Clear(context.Background())
	require.Error(t, err)
	s.mu.Lock()
	assert.Nil(t, s.current)
	s.mu.Unlock()

	// The backend still holds the token; it must stay gone.
	assert.False(t, s.IsValid(context.Background()))
	_, err = s.Token(context.Background())
	assert.ErrorIs(t, err, upstream.ErrNotAuthenticated)
	assert.Nil(t, s.Current(context.Background()))

	_, err = s.Authenticate(context.Background(), creds)
	require.NoError(t, err)
	assert.True(t, s.IsValid(context.Background()), "a new login lifts the cleared state")
}

func TestExpiredSessionIsInvalid(t *testing.T) {
	s := newStore(storage.NewMemoryStore(), &fakeAuth{session: &domain.Session{Token: "tok", SiteCodes: []string{"H1"}, Expiry: now.Add(time.Minute)}})
	_, err := s.Authenticate(context.Background(), creds)
	require.NoError(t, err)

	now := now.Add(2 * time.Minute)
	s.now = func() time.Time { return now }
	assert.False(t, s.IsValid(context.Background()))
	_, err = s.Token(context.Background())
	assert.ErrorIs(t, err, upstream.ErrNotAuthenticated)
	assert.Equal(t, []string{"H1"}, s.SiteCodes(context.Background()), "codes survive until cleared")
}

func TestAuthenticateErrors(t *testing.T) {
	auth := &fakeAuth{err: &upstream.AuthError{Status: 401, Message: "Invalid credentials"}}
	s := newStore(storage.NewMemoryStore(), auth)

	_, err := s.Authenticate(context.Background(), domain.Credentials{})
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	assert.Zero(t, auth.calls)

	_, err = s.Authenticate(context.Background(), creds)
	assert.ErrorIs(t, err, upstream.ErrAuthenticationFailed)
	assert.False(t, s.IsValid(context.Background()))
}
