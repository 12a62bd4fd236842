package v1

import (
	"jobdash/internal/delivery/http/handler"
	"jobdash/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Jobs        *handler.JobsHandler
	Suggestions *handler.SuggestionsHandler
	Feed        *ws.Handler
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	RegisterJobs(r, h.Jobs, h.Suggestions)

	if h.Feed != nil {
		r.Get("/feed/ws", h.Feed.HandleFeedWS)
	}
}
