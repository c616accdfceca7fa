package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"aviratoDash/internal/modules/reservations/application/usecase"
	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/platform/upstream"
	"aviratoDash/internal/shared/httputil"
	"aviratoDash/internal/shared/logging"
)

type dashboard interface {
	Fetch(ctx context.Context, q usecase.Query) (*usecase.Result, error)
}

type listMeta struct {
	*usecase.Snapshot
	Cached bool `json:"cached"`
	Count  int  `json:"count"`
}

type listResponse struct {
	Reservations []domain.View `json:"reservations"`
	Meta         listMeta      `json:"meta"`
	Stats        domain.Stats  `json:"stats"`
}

// Handler serves the reservation dashboard endpoints.
type Handler struct {
	dashboard dashboard
	errors    *httputil.ErrorMapper
	logger    *slog.Logger
}

func NewHandler(dashboard dashboard, logger *slog.Logger) *Handler {
	mapper := httputil.NewErrorMapper().
		WithMapping(upstream.ErrAuthExpired, http.StatusUnauthorized, "session expired, please re-authenticate").
		WithMapping(upstream.ErrNotAuthenticated, http.StatusUnauthorized, "please re-authenticate").
		WithMapping(upstream.ErrTimeout, http.StatusGatewayTimeout, "the request timed out, try a narrower date range").
		WithMapping(usecase.ErrNoSiteCodes, http.StatusForbidden, "the account has no properties").
		WithDefault(http.StatusBadGateway, "could not load reservations")
	return &Handler{dashboard: dashboard, errors: mapper, logger: logging.Component(logger, "reservations-http")}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
}

func (h *Handler) List(c echo.Context) error {
	res, err := h.fetch(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{
		Reservations: domain.Views(res.Items),
		Meta:         listMeta{Snapshot: res.Snapshot, Cached: res.Cached, Count: len(res.Items)},
		Stats:        res.Stats,
	})
}

func (h *Handler) Stats(c echo.Context) error {
	res, err := h.fetch(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res.Stats)
}

func (h *Handler) fetch(c echo.Context) (*usecase.Result, error) {
	q := usecase.Query{
		Search:  strings.TrimSpace(c.QueryParam("q")),
		Refresh: cast.ToBool(c.QueryParam("refresh")),
	}
	start, end := strings.TrimSpace(c.QueryParam("start")), strings.TrimSpace(c.QueryParam("end"))
	if start != "" || end != "" {
		w, err := domain.ParseWindow(start, end)
		if err != nil {
			return nil, err
		}
		q.Window = &w
	}
	return h.dashboard.Fetch(c.Request().Context(), q)
}

func (h *Handler) fail(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrInvalidWindow) {
		return c.JSON(http.StatusBadRequest, httputil.HTTPErrorInfo{Message: err.Error()})
	}
	info := h.errors.Map(err)
	if info.Status >= http.StatusInternalServerError {
		h.logger.Error("reservations request failed", slog.Int("status", info.Status), slog.Any("error", err))
	}
	return c.JSON(info.Status, info)
}

// Health reports liveness plus the number of connected dashboards.
func Health(clients func() int) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "clients": clients()})
	}
}
