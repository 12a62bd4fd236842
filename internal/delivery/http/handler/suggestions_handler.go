package handler

import (
	"jobdash/internal/config"
	"jobdash/internal/delivery/http/dto"
	"jobdash/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type SuggestionsHandler struct {
	res dto.SuggestionsResponse
}

func NewSuggestionsHandler(s config.Suggestions) *SuggestionsHandler {
	return &SuggestionsHandler{res: dto.SuggestionsResponse{Status: s.Status, Priority: s.Priority}}
}

func (h *SuggestionsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/suggestions", h.HandleSuggestions)
}

func (h *SuggestionsHandler) HandleSuggestions(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.res)
}
