package v1

import (
	"jobdash/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

func RegisterJobs(r fiber.Router, jobsHandler *handler.JobsHandler, suggestionsHandler *handler.SuggestionsHandler) {
	if r == nil {
		return
	}

	if jobsHandler != nil {
		jobsHandler.RegisterRoutes(r)
	}
	if suggestionsHandler != nil {
		suggestionsHandler.RegisterRoutes(r)
	}
}
