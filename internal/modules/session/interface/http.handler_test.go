package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aviratoDash/internal/modules/session/application/usecase"
	"aviratoDash/internal/modules/session/domain"
	"aviratoDash/internal/platform/storage"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/logging"
)

type stubAuth struct {
	err error
}

func (s stubAuth) Login(context.Context, domain.Credentials) (*domain.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Session{Token: "tok", SiteCodes: []string{"H1"}, Expiry: time.Now().Add(time.Hour)}, nil
}

func newServer(auth stubAuth) *echo.Echo {
	store := usecase.NewStore(storage.NewMemoryStore(), auth, "", logging.Discard())
	e := echo.New()
	NewHandler(store, logging.Discard()).Register(e.Group("/api/session"))
	return e
}

func do(e *echo.Echo, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/session", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionLifecycle(t *testing.T) {
	e := newServer(stubAuth{})

	rec := do(e, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false,"siteCodes":[]}`, rec.Body.String())

	rec = do(e, http.MethodPost, `{"identifier":"front@hotel.test","secret":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, []any{"H1"}, body["siteCodes"])
	assert.NotEmpty(t, body["expiry"])

	rec = do(e, http.MethodDelete, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "")
	assert.JSONEq(t, `{"authenticated":false,"siteCodes":[]}`, rec.Body.String())
}

func TestLoginErrors(t *testing.T) {
	cases := []struct {
		name   string
		auth   stubAuth
		body   string
		status int
		msg    string
	}{
		{"missing fields", stubAuth{}, `{"identifier":""}`, http.StatusBadRequest, "identifier and secret are required"},
		{"rejected", stubAuth{err: &upstream.AuthError{Status: 401, Message: "Invalid credentials"}}, `{"identifier":"a","secret":"b"}`, http.StatusUnauthorized, "Invalid credentials"},
		{"timeout", stubAuth{err: upstream.ErrTimeout}, `{"identifier":"a","secret":"b"}`, http.StatusGatewayTimeout, "the PMS did not answer in time"},
		{"transport", stubAuth{err: upstream.ErrTransport}, `{"identifier":"a","secret":"b"}`, http.StatusBadGateway, "could not reach the PMS"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newServer(tc.auth), http.MethodPost, tc.body)
			require.Equal(t, tc.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}
