package ws

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"jobdash/internal/feed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
)

// UserResolver returns the signed-in user of a request, or "".
type UserResolver func(c fiber.Ctx) string

type Handler struct {
	hub      *Hub
	backend  feed.Backend
	userOf   UserResolver
	pageSize int
	debounce time.Duration
	logger   *log.Logger
}

func NewHandler(hub *Hub, backend feed.Backend, userOf UserResolver, pageSize int, debounce time.Duration, logger *log.Logger) *Handler {
	return &Handler{
		hub:      hub,
		backend:  backend,
		userOf:   userOf,
		pageSize: pageSize,
		debounce: debounce,
		logger:   logger,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleFeedWS upgrades to a websocket and runs a feed session on it.
// ?saved=true opens the saved-only view.
func (h *Handler) HandleFeedWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil || h.backend == nil {
		return fiber.ErrServiceUnavailable
	}

	userID := ""
	if h.userOf != nil {
		userID = h.userOf(c)
	}
	savedOnly, _ := strconv.ParseBool(c.Query("saved"))

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			if h.logger != nil {
				h.logger.Printf("WS upgrade error | error=%v", err)
			}
			return
		}

		client := NewClient(h.hub, conn, h.logger)
		client.session = NewSession(h.backend, feed.Options{
			UserID:    userID,
			SavedOnly: savedOnly,
			PageSize:  h.pageSize,
			Debounce:  h.debounce,
		}, client.enqueue, h.logger)

		h.hub.Register(client)
		client.session.Start(context.Background())
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}
