package view

import "strings"

type EmptyState struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var (
	noListingsState = EmptyState{
		Title:       "No job listings available",
		Description: "Add records to the job_listings table to populate this dashboard.",
	}
	noMatchesState = EmptyState{
		Title:       "No matching listings",
		Description: "Try a different search term.",
	}
)

// FeedEmptyState picks the message shown under an empty feed. It returns nil
// while loading, when there are rows, or when an error banner is already
// showing. An empty search yields the "no listings" variant.
func FeedEmptyState(loading bool, rows int, err string, debouncedSearch string) *EmptyState {
	if loading || rows > 0 || err != "" {
		return nil
	}
	if strings.TrimSpace(debouncedSearch) == "" {
		s := noListingsState
		return &s
	}
	s := noMatchesState
	return &s
}

// FeedFooter is the status line under the cards.
func FeedFooter(loading, fetchingMore, hasMore bool, rows int) string {
	switch {
	case fetchingMore:
		return "Loading more jobs..."
	case !hasMore && rows > 0 && !loading:
		return "You have reached the end of the results."
	}
	return ""
}

// TableEmptyMessage is shown in the table body when it has no rows to draw.
// hasBaseRows reports whether rows exist before client-side column filters.
func TableEmptyMessage(loading, hasBaseRows bool) string {
	switch {
	case loading:
		return "Loading listings..."
	case hasBaseRows:
		return "No listings match the selected filters."
	}
	return "No listings available yet."
}

type NotFoundView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BackHref    string `json:"back_href"`
	BackLabel   string `json:"back_label"`
}

func NotFound() NotFoundView {
	return NotFoundView{
		Title:       "Job listing not found",
		Description: "The job you're looking for might have been removed or is no longer available. Please return to the dashboard to continue browsing.",
		BackHref:    "/dashboard",
		BackLabel:   "Back to dashboard",
	}
}
