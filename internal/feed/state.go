package feed

import (
	"errors"

	"jobdash/internal/domain/job"
)

var (
	ErrUnauthenticated = errors.New("sign in to save jobs")
	ErrBusy            = errors.New("a change for this field is already in flight")
	ErrClosed          = errors.New("feed closed")
)

const (
	defaultFetchError = "Failed to load job listings."
	savedField        = "saved"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseErrored:
		return "errored"
	}
	return "idle"
}

// State is one feed's visible window. Maps and slices are never mutated in
// place once published, so a State handed to a subscriber stays valid.
type State struct {
	Phase        Phase
	FetchingMore bool

	SearchInput     string
	DebouncedSearch string

	Rows    []job.Listing
	Saved   map[string]bool
	HasMore bool

	// Error is the dismissable query banner.
	Error string
	// MutationErrors holds the last failure per MutationKey.
	MutationErrors map[string]string
	// Pending marks MutationKeys with a write in flight.
	Pending map[string]bool

	UserID    string
	SavedOnly bool
	PageSize  int

	generation  uint64
	debounceSeq uint64
}

func NewState(userID string, savedOnly bool, pageSize int) State {
	if pageSize <= 0 {
		pageSize = 9
	}
	return State{
		Phase:          PhaseIdle,
		Saved:          map[string]bool{},
		MutationErrors: map[string]string{},
		Pending:        map[string]bool{},
		UserID:         userID,
		SavedOnly:      savedOnly,
		PageSize:       pageSize,
	}
}

// MutationKey identifies one field of one row for inline errors.
func MutationKey(jobID, field string) string {
	return jobID + ":" + field
}

// SaveKey is the MutationKey of a row's bookmark toggle.
func SaveKey(jobID string) string {
	return MutationKey(jobID, savedField)
}

func (s State) IsSaved(jobID string) bool {
	return s.Saved[jobID]
}

func (s State) SavedIDs() []string {
	out := make([]string, 0, len(s.Saved))
	for _, r := range s.Rows {
		if s.Saved[r.ID] {
			out = append(out, r.ID)
		}
	}
	return out
}

func (s State) filter(offset int) job.ListFilter {
	return job.ListFilter{
		Search:    s.DebouncedSearch,
		Limit:     s.PageSize,
		Offset:    offset,
		SavedOnly: s.SavedOnly,
		UserID:    s.UserID,
	}
}

func copyBools(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
