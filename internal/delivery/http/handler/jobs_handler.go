package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"jobdash/internal/delivery/http/dto"
	"jobdash/internal/delivery/http/middleware"
	"jobdash/internal/domain/job"
	"jobdash/internal/pkg/response"
	"jobdash/internal/usecase"
	"jobdash/internal/view"

	"github.com/gofiber/fiber/v3"
)

type JobsHandler struct {
	uc  usecase.JobFeedUsecase
	now func() time.Time
}

func NewJobsHandler(uc usecase.JobFeedUsecase) *JobsHandler {
	return &JobsHandler{uc: uc, now: time.Now}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/jobs", h.HandleListJobs)
	r.Get("/jobs/:id", h.HandleGetJob)
	r.Patch("/jobs/:id", middleware.RequireUser("Sign in to edit jobs"), h.HandleUpdateJob)
	r.Put("/jobs/:id/save", middleware.RequireUser("Sign in to save jobs"), h.HandleSaveJob)
	r.Delete("/jobs/:id/save", middleware.RequireUser("Sign in to save jobs"), h.HandleUnsaveJob)
}

// HandleListJobs serves one page of the feed. ?view=table returns table rows
// instead of cards.
func (h *JobsHandler) HandleListJobs(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	savedOnly := false
	if raw := c.Query("saved"); raw != "" {
		savedOnly, err = strconv.ParseBool(raw)
		if err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}
	}

	search := c.Query("search")
	page, err := h.uc.ListJobs(c.Context(), job.ListFilter{
		Search:    search,
		Limit:     limit,
		Offset:    offset,
		SavedOnly: savedOnly,
		UserID:    middleware.UserID(c),
	})
	if err != nil {
		return mapJobFeedUsecaseError(err)
	}

	now := h.now()
	next := offset + len(page.Rows)

	if c.Query("view") == "table" {
		rows := make([]view.TableRow, 0, len(page.Rows))
		for _, l := range page.Rows {
			rows = append(rows, view.NewTableRow(l, now))
		}
		res := dto.JobTableResponse{Rows: rows, HasMore: page.HasMore, NextOffset: next}
		if len(rows) == 0 {
			res.Empty = view.TableEmptyMessage(false, false)
		}
		return response.Success(c, fiber.StatusOK, response.MessageOK, res)
	}

	saved := make(map[string]bool, len(page.SavedIDs))
	for _, id := range page.SavedIDs {
		saved[id] = true
	}
	cards := make([]view.Card, 0, len(page.Rows))
	for _, l := range page.Rows {
		cards = append(cards, view.NewCard(l, saved[l.ID], now))
	}

	res := dto.JobListResponse{
		Rows:       cards,
		HasMore:    page.HasMore,
		NextOffset: next,
		EmptyState: view.FeedEmptyState(false, len(cards), "", search),
		Footer:     view.FeedFooter(false, false, page.HasMore, len(cards)),
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func (h *JobsHandler) HandleGetJob(c fiber.Ctx) error {
	d, err := h.uc.GetJob(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return mapJobFeedUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, view.NewDetail(d.Listing, d.Saved, d.Warning, h.now()))
}

// HandleUpdateJob applies a partial update. Only the editable columns are
// read from the body; a body without any of them is a no-op.
func (h *JobsHandler) HandleUpdateJob(c fiber.Ctx) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}
	patch, err := job.ParsePatch(body)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	updated, err := h.uc.UpdateJob(c.Context(), c.Params("id"), patch)
	if err != nil {
		return mapJobFeedUsecaseError(err)
	}
	if updated == nil {
		return response.Success(c, fiber.StatusOK, "no changes", nil)
	}
	return response.Success(c, fiber.StatusOK, "updated", view.NewTableRow(*updated, h.now()))
}

func (h *JobsHandler) HandleSaveJob(c fiber.Ctx) error {
	if err := h.uc.SaveJob(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return mapJobFeedUsecaseError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *JobsHandler) HandleUnsaveJob(c fiber.Ctx) error {
	if err := h.uc.UnsaveJob(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return mapJobFeedUsecaseError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func mapJobFeedUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, job.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Job listing not found", view.NotFound(), err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrUnauthenticated):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Sign in to save jobs", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
