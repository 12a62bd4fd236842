package dto

import "jobdash/internal/view"

type JobListResponse struct {
	Rows       []view.Card      `json:"rows"`
	HasMore    bool             `json:"has_more"`
	NextOffset int              `json:"next_offset"`
	EmptyState *view.EmptyState `json:"empty_state,omitempty"`
	Footer     string           `json:"footer,omitempty"`
}

type JobTableResponse struct {
	Rows       []view.TableRow `json:"rows"`
	HasMore    bool            `json:"has_more"`
	NextOffset int             `json:"next_offset"`
	Empty      string          `json:"empty,omitempty"`
}

type SuggestionsResponse struct {
	Status   []string `json:"status"`
	Priority []string `json:"priority"`
}
