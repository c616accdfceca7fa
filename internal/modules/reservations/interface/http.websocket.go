package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"aviratoDash/internal/modules/reservations/domain"
	"aviratoDash/internal/modules/reservations/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewWebsocketHandler exposes /ws/reservations. Dashboards pick topics with
// ?topics=snapshot,pipeline and may change them later over the socket.
func NewWebsocketHandler(hub *infrastructure.Hub, sendBuffer int) echo.HandlerFunc {
	return func(c echo.Context) error {
		topics := parseTopics(c.QueryParam("topics"))

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("ws upgrade failed", slog.String("ip", c.RealIP()), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, uuid.NewString(), sendBuffer)
		hub.Attach(client, topics)

		go client.WritePump()
		go client.ReadPump()

		client.SendMessage(&domain.Message{
			Topic:      domain.Topic(domain.EntitySystem, domain.ActionConnected),
			Entity:     domain.EntitySystem,
			Action:     domain.ActionConnected,
			ResourceID: client.ID(),
			Data:       map[string]any{"topics": topics},
			Timestamp:  time.Now().UTC(),
		})
		slog.Info("ws dashboard connected", slog.String("clientId", client.ID()), slog.Any("topics", topics))
		return nil
	}
}
