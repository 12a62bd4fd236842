package job

import (
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("job listing not found")

// Status is free text. The backend accepts any string; the suggestion list is
// only a UI affordance.
type Status string

// Priority is free text, same contract as Status.
type Priority string

func (s Status) String() string   { return string(s) }
func (p Priority) String() string { return string(p) }

// Default suggestion lists offered by the editors.
var (
	StatusSuggestions   = []Status{"New", "Interested", "Applied", "Interviewing", "Offer", "Watching", "Rejected"}
	PrioritySuggestions = []Priority{"High", "Medium", "Low"}
)

// Listing is a row of job_listings. Nullable columns are pointers.
type Listing struct {
	ID              string
	Title           string
	Company         string
	CompanyURL      *string
	Location        *string
	WorkType        *string
	WorkArrangement *string
	Salary          *string
	Description     *string
	DescriptionMD   *string
	Skills          []string
	Benefits        []string
	Insights        []string
	ApplicantCount  *string
	Status          *Status
	Priority        *Priority
	AppliedAt       *time.Time
	LastUpdated     *time.Time
	Notes           *string
	Source          *string
	JobURL          string
	ApplyURL        *string
	PostedAt        *time.Time
	CreatedAt       *time.Time
}

// SavedJob is a user's bookmark of a listing, keyed by (UserID, JobID).
type SavedJob struct {
	UserID    string
	JobID     string
	CreatedAt time.Time
}

// ListFilter selects one page of the feed. UserID is empty for anonymous
// callers.
type ListFilter struct {
	Search    string
	Limit     int
	Offset    int
	SavedOnly bool
	UserID    string
}

type Page struct {
	Rows     []Listing
	SavedIDs []string
	HasMore  bool
}

// TrimPage applies the limit+1 convention: rows holds up to limit+1 entries
// and the extra one only signals that another page exists.
func TrimPage(rows []Listing, limit int) ([]Listing, bool) {
	if limit < 0 {
		limit = 0
	}
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NonEmpty returns nil for blank strings so callers can treat "" and NULL alike.
func NonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
