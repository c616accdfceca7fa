package transport

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"aviratoDash/internal/modules/session/application/usecase"
	"aviratoDash/internal/modules/session/domain"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/httputil"
	"aviratoDash/internal/shared/logging"
)

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	SiteCodes     []string   `json:"siteCodes"`
	Expiry        *time.Time `json:"expiry,omitempty"`
}

// Handler exposes login, status and logout for the dashboard session.
type Handler struct {
	store  *usecase.Store
	errors *httputil.ErrorMapper
	logger *slog.Logger
}

func NewHandler(store *usecase.Store, logger *slog.Logger) *Handler {
	mapper := httputil.NewErrorMapper().
		WithMapping(domain.ErrMissingCredentials, http.StatusBadRequest, "identifier and secret are required").
		WithMapping(domain.ErrMalformedLogin, http.StatusBadGateway, "the PMS returned an unusable login reply").
		WithMapping(upstream.ErrTimeout, http.StatusGatewayTimeout, "the PMS did not answer in time").
		WithDefault(http.StatusBadGateway, "could not reach the PMS")
	return &Handler{store: store, errors: mapper, logger: logging.Component(logger, "session-http")}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Login)
	g.GET("", h.Status)
	g.DELETE("", h.Logout)
}

func (h *Handler) Login(c echo.Context) error {
	var creds domain.Credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	sess, err := h.store.Authenticate(c.Request().Context(), creds)
	if err != nil {
		var authErr *upstream.AuthError
		if errors.As(err, &authErr) {
			msg := authErr.Message
			if msg == "" {
				msg = "authentication failed"
			}
			return c.JSON(http.StatusUnauthorized, map[string]any{"error": msg, "status": authErr.Status})
		}
		info := h.errors.Map(err)
		if info.Status >= http.StatusInternalServerError {
			h.logger.Error("login failed", slog.Any("error", err))
		}
		return c.JSON(info.Status, info)
	}
	return c.JSON(http.StatusOK, sessionResponse{Authenticated: true, SiteCodes: sess.SiteCodes, Expiry: &sess.Expiry})
}

func (h *Handler) Status(c echo.Context) error {
	ctx := c.Request().Context()
	resp := sessionResponse{Authenticated: h.store.IsValid(ctx), SiteCodes: h.store.SiteCodes(ctx)}
	if sess := h.store.Current(ctx); sess != nil && resp.Authenticated {
		resp.Expiry = &sess.Expiry
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout always succeeds from the caller's point of view; the in-memory
// session is gone even when the backend could not be cleaned.
func (h *Handler) Logout(c echo.Context) error {
	if err := h.store.Clear(c.Request().Context()); err != nil {
		h.logger.Warn("session backend not cleared", slog.Any("error", err))
	}
	return c.NoContent(http.StatusNoContent)
}
