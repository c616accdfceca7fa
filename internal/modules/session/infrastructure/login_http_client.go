package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"aviratoDash/internal/modules/session/application/port"
	"aviratoDash/internal/modules/session/domain"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/auth"
	"aviratoDash/internal/shared/normalization"
)

const loginPath = "/token/login"

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHTTPClient exchanges credentials for a bearer token and the list of
// properties the account may read.
type LoginHTTPClient struct {
	api    *upstream.Client
	logger *slog.Logger
}

func NewLoginHTTPClient(api *upstream.Client, logger *slog.Logger) *LoginHTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginHTTPClient{api: api, logger: logger}
}

func (c *LoginHTTPClient) Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	env, err := c.api.Do(ctx, upstream.Request{
		Method:    http.MethodPost,
		Path:      loginPath,
		Body:      loginBody{Email: creds.Identifier, Password: creds.Secret},
		Anonymous: true,
	})
	if err != nil {
		return nil, asAuthError(err)
	}

	data := normalization.AsMap(env.Data)
	if data == nil {
		return nil, fmt.Errorf("%w: login reply has no data", domain.ErrMalformedLogin)
	}
	token := normalization.String(data, "token", "access_token", "accessToken")
	if token == "" {
		return nil, fmt.Errorf("%w: login reply has no token", domain.ErrMalformedLogin)
	}

	sess := &domain.Session{Token: token, SiteCodes: siteCodes(data)}
	sess.Expiry, err = expiry(data, token)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("login decoded", slog.Int("siteCodes", len(sess.SiteCodes)), slog.Time("expiry", sess.Expiry))
	return sess, nil
}

// asAuthError turns any rejected login into an *AuthError; transport-level
// failures keep their own sentinel.
func asAuthError(err error) error {
	var statusErr *upstream.StatusError
	switch {
	case errors.As(err, &statusErr):
		return &upstream.AuthError{Status: statusErr.Status, Message: statusErr.Message}
	case errors.Is(err, upstream.ErrNotFound):
		return &upstream.AuthError{Status: http.StatusNotFound, Message: "login endpoint not found"}
	default:
		return err
	}
}

func siteCodes(data map[string]any) []string {
	raw, _ := normalization.Lookup(data, "web_codes", "site_codes", "siteCodes", "webCodes")
	out := []string{}
	for _, item := range normalization.AsInterfaceSlice(raw) {
		if code := normalization.AsString(item); code != "" {
			out = append(out, code)
		}
	}
	return out
}

func expiry(data map[string]any, token string) (time.Time, error) {
	if raw := normalization.String(data, "expiry", "expires_at", "expiresAt", "expiration"); raw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
	}
	exp, err := auth.TokenExpiry(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: login reply has no usable expiry: %w", domain.ErrMalformedLogin, err)
	}
	return exp, nil
}

var _ port.Authenticator = (*LoginHTTPClient)(nil)
