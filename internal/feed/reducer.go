package feed

import (
	"jobdash/internal/domain/job"
)

// Event is an input to Reduce.
type Event interface{ feedEvent() }

// Started triggers the first page load.
type Started struct{}

// SearchTyped records a keystroke in the search box and restarts the
// debounce window.
type SearchTyped struct{ Input string }

// DebounceElapsed fires when the search box has been quiet for the debounce
// window. Seq identifies the keystroke that armed it.
type DebounceElapsed struct{ Seq uint64 }

// LoadMoreRequested is the scroll sentinel becoming visible.
type LoadMoreRequested struct{}

type PageLoaded struct {
	Gen    uint64
	Append bool
	Page   job.Page
}

type PageFailed struct {
	Gen    uint64
	Append bool
	Err    string
}

type ErrorDismissed struct{}

// UpdateRequested asks to persist one inline field edit.
type UpdateRequested struct {
	JobID string
	Field string
	Patch job.Patch
	Reply chan<- error
}

// UpdateSettled carries the backend answer to an UpdateRequested. Row is nil
// when the patch was a no-op.
type UpdateSettled struct {
	JobID string
	Field string
	Row   *job.Listing
	Err   error
	Reply chan<- error
}

type SaveRequested struct {
	JobID string
	Save  bool
	Reply chan<- error
}

type SaveSettled struct {
	JobID string
	Save  bool
	Err   error
	Reply chan<- error
}

// RemoteRowUpdated is a listing write made by another session.
type RemoteRowUpdated struct{ Row job.Listing }

func (Started) feedEvent()           {}
func (SearchTyped) feedEvent()       {}
func (DebounceElapsed) feedEvent()   {}
func (LoadMoreRequested) feedEvent() {}
func (PageLoaded) feedEvent()        {}
func (PageFailed) feedEvent()        {}
func (ErrorDismissed) feedEvent()    {}
func (UpdateRequested) feedEvent()   {}
func (UpdateSettled) feedEvent()     {}
func (SaveRequested) feedEvent()     {}
func (SaveSettled) feedEvent()       {}
func (RemoteRowUpdated) feedEvent()  {}

// Command is a side effect Reduce asks the coordinator to perform.
type Command interface{ feedCommand() }

type Fetch struct {
	Gen    uint64
	Filter job.ListFilter
	Append bool
}

type ArmDebounce struct{ Seq uint64 }

type RunUpdate struct {
	JobID string
	Field string
	Patch job.Patch
	Reply chan<- error
}

type RunSave struct {
	JobID  string
	UserID string
	Save   bool
	Reply  chan<- error
}

type Reply struct {
	To  chan<- error
	Err error
}

func (Fetch) feedCommand()       {}
func (ArmDebounce) feedCommand() {}
func (RunUpdate) feedCommand()   {}
func (RunSave) feedCommand()     {}
func (Reply) feedCommand()       {}

// Reduce is the whole feed state machine. It never blocks and never touches
// the backend; every effect comes back as a Command.
func Reduce(s State, ev Event) (State, []Command) {
	switch e := ev.(type) {
	case Started:
		return refresh(s)

	case SearchTyped:
		s.SearchInput = e.Input
		s.debounceSeq++
		return s, []Command{ArmDebounce{Seq: s.debounceSeq}}

	case DebounceElapsed:
		if e.Seq != s.debounceSeq {
			return s, nil
		}
		if s.SearchInput == s.DebouncedSearch && s.Phase != PhaseIdle {
			return s, nil
		}
		s.DebouncedSearch = s.SearchInput
		return refresh(s)

	case LoadMoreRequested:
		if s.FetchingMore || s.Phase == PhaseLoading || !s.HasMore {
			return s, nil
		}
		s.FetchingMore = true
		s.Error = ""
		return s, []Command{Fetch{Gen: s.generation, Filter: s.filter(len(s.Rows)), Append: true}}

	case PageLoaded:
		if e.Gen != s.generation {
			return s, nil
		}
		return pageLoaded(s, e), nil

	case PageFailed:
		if e.Gen != s.generation {
			return s, nil
		}
		msg := e.Err
		if msg == "" {
			msg = defaultFetchError
		}
		s.Error = msg
		if e.Append {
			s.FetchingMore = false
			return s, nil
		}
		s.Phase = PhaseErrored
		s.Rows = nil
		s.Saved = map[string]bool{}
		s.HasMore = false
		return s, nil

	case ErrorDismissed:
		s.Error = ""
		return s, nil

	case UpdateRequested:
		key := MutationKey(e.JobID, e.Field)
		if s.Pending[key] {
			return s, []Command{Reply{To: e.Reply, Err: ErrBusy}}
		}
		s.Pending = copyBools(s.Pending)
		s.Pending[key] = true
		s.MutationErrors = copyStrings(s.MutationErrors)
		delete(s.MutationErrors, key)
		return s, []Command{RunUpdate{JobID: e.JobID, Field: e.Field, Patch: e.Patch, Reply: e.Reply}}

	case UpdateSettled:
		key := MutationKey(e.JobID, e.Field)
		s.Pending = copyBools(s.Pending)
		delete(s.Pending, key)
		if e.Err != nil {
			s.MutationErrors = copyStrings(s.MutationErrors)
			s.MutationErrors[key] = e.Err.Error()
			return s, []Command{Reply{To: e.Reply, Err: e.Err}}
		}
		if e.Row != nil {
			s.Rows = splice(s.Rows, *e.Row)
		}
		return s, []Command{Reply{To: e.Reply}}

	case SaveRequested:
		if s.UserID == "" {
			return s, []Command{Reply{To: e.Reply, Err: ErrUnauthenticated}}
		}
		key := SaveKey(e.JobID)
		if s.Pending[key] {
			return s, []Command{Reply{To: e.Reply, Err: ErrBusy}}
		}
		s.Pending = copyBools(s.Pending)
		s.Pending[key] = true
		s.MutationErrors = copyStrings(s.MutationErrors)
		delete(s.MutationErrors, key)
		if e.Save {
			// Adding is shown before the backend confirms.
			s.Saved = copyBools(s.Saved)
			s.Saved[e.JobID] = true
		}
		return s, []Command{RunSave{JobID: e.JobID, UserID: s.UserID, Save: e.Save, Reply: e.Reply}}

	case SaveSettled:
		return saveSettled(s, e)

	case RemoteRowUpdated:
		s.Rows = splice(s.Rows, e.Row)
		return s, nil
	}
	return s, nil
}

// refresh replaces the window with page one of the current search. Bumping
// the generation makes any page still in flight stale.
func refresh(s State) (State, []Command) {
	s.generation++
	s.Phase = PhaseLoading
	s.FetchingMore = false
	s.Error = ""
	return s, []Command{Fetch{Gen: s.generation, Filter: s.filter(0)}}
}

func pageLoaded(s State, e PageLoaded) State {
	s.Error = ""
	s.HasMore = e.Page.HasMore

	if e.Append {
		s.FetchingMore = false
		rows := make([]job.Listing, 0, len(s.Rows)+len(e.Page.Rows))
		rows = append(rows, s.Rows...)
		s.Rows = append(rows, e.Page.Rows...)
		s.Saved = copyBools(s.Saved)
	} else {
		s.Phase = PhaseReady
		s.Rows = append([]job.Listing(nil), e.Page.Rows...)
		saved := make(map[string]bool, len(e.Page.SavedIDs))
		// Keep optimistic adds still awaiting confirmation.
		for id := range s.Saved {
			if s.Pending[SaveKey(id)] && s.Saved[id] {
				saved[id] = true
			}
		}
		s.Saved = saved
	}
	for _, id := range e.Page.SavedIDs {
		s.Saved[id] = true
	}
	return s
}

func saveSettled(s State, e SaveSettled) (State, []Command) {
	key := SaveKey(e.JobID)
	s.Pending = copyBools(s.Pending)
	delete(s.Pending, key)

	if e.Err != nil {
		if e.Save {
			s.Saved = copyBools(s.Saved)
			delete(s.Saved, e.JobID)
		}
		s.MutationErrors = copyStrings(s.MutationErrors)
		s.MutationErrors[key] = e.Err.Error()
		return s, []Command{Reply{To: e.Reply, Err: e.Err}}
	}

	if e.Save {
		return s, []Command{Reply{To: e.Reply}}
	}

	s.Saved = copyBools(s.Saved)
	delete(s.Saved, e.JobID)
	if !s.SavedOnly {
		return s, []Command{Reply{To: e.Reply}}
	}
	// The row must leave a saved-only window, and hasMore has to be
	// re-derived, so reload from page one.
	s, cmds := refresh(s)
	return s, append(cmds, Reply{To: e.Reply})
}

// splice replaces the row with the same id. Rows not in the window are
// ignored.
func splice(rows []job.Listing, row job.Listing) []job.Listing {
	for i := range rows {
		if rows[i].ID != row.ID {
			continue
		}
		out := append([]job.Listing(nil), rows...)
		out[i] = row
		return out
	}
	return rows
}
