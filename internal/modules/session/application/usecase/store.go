package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aviratoDash/internal/modules/session/application/port"
	"aviratoDash/internal/modules/session/domain"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/logging"
)

const (
	tokenKey     = "avirato_token"
	siteCodesKey = "avirato_web_codes"
	expiryKey    = "avirato_token_expiry"
)

// Store holds the PMS session. Memory is authoritative once populated; the
// key-value backend only serves to survive restarts.
type Store struct {
	mu      sync.Mutex
	current *domain.Session
	// set by Clear; load skips the backend until the next Authenticate.
	cleared bool
	kv      port.KeyValueStore
	auth    port.Authenticator
	keys    [3]string
	now     func() time.Time
	hooks   []func(context.Context)
	logger  *slog.Logger
}

func NewStore(kv port.KeyValueStore, auth port.Authenticator, keyPrefix string, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		auth:   auth,
		keys:   [3]string{keyPrefix + tokenKey, keyPrefix + siteCodesKey, keyPrefix + expiryKey},
		now:    time.Now,
		logger: logging.Component(logger, "session"),
	}
}

// OnClear registers fn to run after the session is cleared, whether by
// logout or by the upstream rejecting the token.
func (s *Store) OnClear(fn func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Store) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.logger.Warn("login rejected", slog.Any("error", err))
		return nil, err
	}

	s.mu.Lock()
	s.current = sess.Clone()
	s.cleared = false
	s.mu.Unlock()

	if err := s.persist(ctx, sess); err != nil {
		s.logger.Error("session persist failed, keeping it in memory only", slog.Any("error", err))
	}
	s.logger.Info("session established", slog.Any("siteCodes", sess.SiteCodes), slog.Time("expiry", sess.Expiry))
	return sess.Clone(), nil
}

func (s *Store) IsValid(ctx context.Context) bool {
	return s.load(ctx).IsValid(s.now())
}

// Current returns a copy of the session, valid or not, or nil.
func (s *Store) Current(ctx context.Context) *domain.Session {
	return s.load(ctx).Clone()
}

func (s *Store) SiteCodes(ctx context.Context) []string {
	sess := s.load(ctx)
	if sess == nil {
		return []string{}
	}
	return append([]string{}, sess.SiteCodes...)
}

// Token returns the bearer token, re-checking validity on every call.
func (s *Store) Token(ctx context.Context) (string, error) {
	sess := s.load(ctx)
	if !sess.IsValid(s.now()) {
		return "", upstream.ErrNotAuthenticated
	}
	return sess.Token, nil
}

// Clear erases memory and durable state. Memory is always cleared even if
// the backend fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.cleared = true
	hooks := append([]func(context.Context){}, s.hooks...)
	s.mu.Unlock()

	err := s.kv.Delete(ctx, s.keys[:]...)
	for _, fn := range hooks {
		fn(ctx)
	}
	if err != nil {
		return fmt.Errorf("clear session state: %w", err)
	}
	s.logger.Info("session cleared")
	return nil
}

func (s *Store) load(ctx context.Context) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil || s.cleared {
		return s.current
	}

	values, err := s.kv.Get(ctx, s.keys[:]...)
	if err != nil {
		s.logger.Warn("session load failed", slog.Any("error", err))
		return nil
	}
	sess, err := s.decode(values)
	if err != nil {
		s.logger.Warn("stored session unreadable, ignoring it", slog.Any("error", err))
		return nil
	}
	if sess != nil {
		s.current = sess
	}
	return sess
}

func (s *Store) persist(ctx context.Context, sess *domain.Session) error {
	codes, err := json.Marshal(sess.SiteCodes)
	if err != nil {
		return err
	}
	ttl := sess.Expiry.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	return s.kv.Set(ctx, map[string]string{
		s.keys[0]: sess.Token,
		s.keys[1]: string(codes),
		s.keys[2]: sess.Expiry.UTC().Format(time.RFC3339),
	}, ttl)
}

func (s *Store) decode(values map[string]string) (*domain.Session, error) {
	token := values[s.keys[0]]
	if token == "" {
		return nil, nil
	}
	sess := &domain.Session{Token: token, SiteCodes: []string{}}
	if raw := values[s.keys[1]]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sess.SiteCodes); err != nil {
			return nil, fmt.Errorf("site codes: %w", err)
		}
	}
	expiry, err := time.Parse(time.RFC3339, values[s.keys[2]])
	if err != nil {
		return nil, fmt.Errorf("expiry: %w", err)
	}
	sess.Expiry = expiry
	return sess, nil
}

var _ upstream.Session = (*Store)(nil)
