package feed

import (
	"errors"
	"testing"

	"jobdash/internal/domain/job"
)

func onlyFetch(t *testing.T, cmds []Command) Fetch {
	t.Helper()
	if len(cmds) != 1 {
		t.Fatalf("expected one command, got %d: %#v", len(cmds), cmds)
	}
	f, ok := cmds[0].(Fetch)
	if !ok {
		t.Fatalf("expected Fetch, got %#v", cmds[0])
	}
	return f
}

func TestReduce_StartedFetchesFirstPage(t *testing.T) {
	s, cmds := Reduce(NewState("", false, 9), Started{})
	f := onlyFetch(t, cmds)
	if s.Phase != PhaseLoading || f.Append || f.Filter.Offset != 0 || f.Filter.Limit != 9 {
		t.Fatalf("unexpected start: phase=%s fetch=%+v", s.Phase, f)
	}
}

func TestReduce_StalePageIgnored(t *testing.T) {
	s, cmds := Reduce(NewState("", false, 9), Started{})
	first := onlyFetch(t, cmds)

	s, _ = Reduce(s, SearchTyped{Input: "go"})
	s, cmds = Reduce(s, DebounceElapsed{Seq: 1})
	second := onlyFetch(t, cmds)
	if second.Gen == first.Gen || second.Filter.Search != "go" {
		t.Fatalf("expected a newer generation for the new search, got %+v", second)
	}

	s, _ = Reduce(s, PageLoaded{Gen: second.Gen, Page: job.Page{Rows: testRows("Go dev")}})
	s, _ = Reduce(s, PageLoaded{Gen: first.Gen, Page: job.Page{Rows: testRows("Old", "Older")}})

	if len(s.Rows) != 1 || s.Rows[0].Title != "Go dev" {
		t.Fatalf("stale page overwrote newer results: %+v", s.Rows)
	}
	if s.Phase != PhaseReady {
		t.Fatalf("expected ready, got %s", s.Phase)
	}
}

func TestReduce_SupersededDebounceIgnored(t *testing.T) {
	s := NewState("", false, 9)
	s, _ = Reduce(s, SearchTyped{Input: "g"})
	s, _ = Reduce(s, SearchTyped{Input: "go"})

	s, cmds := Reduce(s, DebounceElapsed{Seq: 1})
	if len(cmds) != 0 || s.DebouncedSearch != "" {
		t.Fatalf("old debounce must not fire a query")
	}
	s, cmds = Reduce(s, DebounceElapsed{Seq: 2})
	if f := onlyFetch(t, cmds); f.Filter.Search != "go" || s.DebouncedSearch != "go" {
		t.Fatalf("unexpected fetch %+v", f)
	}
}

func TestReduce_UnchangedDebouncedSearchDoesNotRefetch(t *testing.T) {
	s, cmds := Reduce(NewState("", false, 9), Started{})
	f := onlyFetch(t, cmds)
	s, _ = Reduce(s, PageLoaded{Gen: f.Gen})

	s, _ = Reduce(s, SearchTyped{Input: "x"})
	s, _ = Reduce(s, SearchTyped{Input: ""})
	_, cmds = Reduce(s, DebounceElapsed{Seq: 2})
	if len(cmds) != 0 {
		t.Fatalf("expected no query when the debounced value is unchanged, got %#v", cmds)
	}
}

func TestReduce_LoadMoreGuards(t *testing.T) {
	s, cmds := Reduce(NewState("", false, 2), Started{})
	f := onlyFetch(t, cmds)

	if _, cmds := Reduce(s, LoadMoreRequested{}); len(cmds) != 0 {
		t.Fatalf("load more while loading must be ignored")
	}

	s, _ = Reduce(s, PageLoaded{Gen: f.Gen, Page: job.Page{Rows: testRows("a", "b"), HasMore: true}})
	s, cmds = Reduce(s, LoadMoreRequested{})
	more := onlyFetch(t, cmds)
	if !more.Append || more.Filter.Offset != 2 || !s.FetchingMore {
		t.Fatalf("unexpected load more %+v", more)
	}
	if _, cmds := Reduce(s, LoadMoreRequested{}); len(cmds) != 0 {
		t.Fatalf("second load more while fetching must be ignored")
	}

	s, _ = Reduce(s, PageLoaded{Gen: more.Gen, Append: true, Page: job.Page{Rows: testRows("c"), HasMore: false}})
	if len(s.Rows) != 3 || s.HasMore || s.FetchingMore {
		t.Fatalf("unexpected state after append: rows=%d hasMore=%v", len(s.Rows), s.HasMore)
	}
	if _, cmds := Reduce(s, LoadMoreRequested{}); len(cmds) != 0 {
		t.Fatalf("load more without hasMore must be ignored")
	}
}

func TestReduce_QueryErrorClearsRows(t *testing.T) {
	s, cmds := Reduce(NewState("", false, 9), Started{})
	f := onlyFetch(t, cmds)
	s, _ = Reduce(s, PageLoaded{Gen: f.Gen, Page: job.Page{Rows: testRows("a"), HasMore: true}})

	s, cmds = Reduce(s, LoadMoreRequested{})
	more := onlyFetch(t, cmds)
	s, _ = Reduce(s, PageFailed{Gen: more.Gen, Append: true, Err: "timeout"})
	if len(s.Rows) != 1 || s.Error != "timeout" || s.FetchingMore {
		t.Fatalf("failed load more must keep rows and raise the banner: %+v", s)
	}

	s, cmds = Reduce(s, Started{})
	f = onlyFetch(t, cmds)
	s, _ = Reduce(s, PageFailed{Gen: f.Gen})
	if s.Phase != PhaseErrored || len(s.Rows) != 0 || s.Error != defaultFetchError {
		t.Fatalf("unexpected errored state %+v", s)
	}

	s, _ = Reduce(s, ErrorDismissed{})
	if s.Error != "" {
		t.Fatalf("expected banner dismissed")
	}
}

func TestReduce_UpdateSplicesByID(t *testing.T) {
	s := NewState("", false, 9)
	s.Rows = testRows("a", "b")

	s, cmds := Reduce(s, UpdateRequested{JobID: "job-b", Field: job.FieldStatus, Patch: job.Patch{Status: job.Set(job.Status("Applied"))}})
	if _, ok := cmds[0].(RunUpdate); !ok {
		t.Fatalf("expected RunUpdate, got %#v", cmds)
	}
	if _, cmds := Reduce(s, UpdateRequested{JobID: "job-b", Field: job.FieldStatus}); cmds[0].(Reply).Err != ErrBusy {
		t.Fatalf("expected busy while in flight")
	}

	updated := s.Rows[1]
	st := job.Status("Applied")
	updated.Status = &st
	before := s.Rows
	s, _ = Reduce(s, UpdateSettled{JobID: "job-b", Field: job.FieldStatus, Row: &updated})

	if s.Rows[1].Status == nil || *s.Rows[1].Status != "Applied" {
		t.Fatalf("expected spliced row")
	}
	if before[1].Status != nil {
		t.Fatalf("previous state must not be mutated")
	}
	if s.Pending[MutationKey("job-b", job.FieldStatus)] {
		t.Fatalf("pending flag not cleared")
	}
}

func TestReduce_UpdateFailureKeepsPreviousValue(t *testing.T) {
	s := NewState("", false, 9)
	s.Rows = testRows("a")
	s, _ = Reduce(s, UpdateRequested{JobID: "job-a", Field: job.FieldNotes})
	s, cmds := Reduce(s, UpdateSettled{JobID: "job-a", Field: job.FieldNotes, Err: errors.New("denied")})

	if s.Rows[0].Notes != nil {
		t.Fatalf("row must keep its previous value")
	}
	if s.MutationErrors[MutationKey("job-a", job.FieldNotes)] != "denied" {
		t.Fatalf("expected inline error, got %v", s.MutationErrors)
	}
	if r := cmds[0].(Reply); r.Err == nil {
		t.Fatalf("expected error reply")
	}
}

func TestReduce_SaveIsOptimisticAndRollsBack(t *testing.T) {
	s := NewState("u1", false, 9)
	s.Rows = testRows("a")

	if _, cmds := Reduce(NewState("", false, 9), SaveRequested{JobID: "job-a", Save: true}); cmds[0].(Reply).Err != ErrUnauthenticated {
		t.Fatalf("expected unauthenticated without a user")
	}

	s, cmds := Reduce(s, SaveRequested{JobID: "job-a", Save: true})
	if !s.IsSaved("job-a") {
		t.Fatalf("add must be optimistic")
	}
	if run := cmds[0].(RunSave); run.UserID != "u1" || !run.Save {
		t.Fatalf("unexpected command %+v", run)
	}

	s, _ = Reduce(s, SaveSettled{JobID: "job-a", Save: true, Err: errors.New("boom")})
	if s.IsSaved("job-a") {
		t.Fatalf("failed add must roll back")
	}
	if s.MutationErrors[SaveKey("job-a")] != "boom" {
		t.Fatalf("expected save error recorded")
	}
}

func TestReduce_RemoveWaitsForConfirmation(t *testing.T) {
	s := NewState("u1", false, 9)
	s.Rows = testRows("a")
	s.Saved = map[string]bool{"job-a": true}

	s, _ = Reduce(s, SaveRequested{JobID: "job-a", Save: false})
	if !s.IsSaved("job-a") {
		t.Fatalf("remove must not be optimistic")
	}
	s, cmds := Reduce(s, SaveSettled{JobID: "job-a", Save: false})
	if s.IsSaved("job-a") || len(cmds) != 1 {
		t.Fatalf("expected unsaved without refetch outside saved-only view")
	}
}

func TestReduce_RemoveInSavedOnlyRefetches(t *testing.T) {
	s := NewState("u1", true, 9)
	s.Rows = testRows("a", "b")
	s.Saved = map[string]bool{"job-a": true, "job-b": true}

	s, _ = Reduce(s, SaveRequested{JobID: "job-a", Save: false})
	s, cmds := Reduce(s, SaveSettled{JobID: "job-a", Save: false})

	var fetch *Fetch
	for _, c := range cmds {
		if f, ok := c.(Fetch); ok {
			fetch = &f
		}
	}
	if fetch == nil || fetch.Filter.Offset != 0 || !fetch.Filter.SavedOnly {
		t.Fatalf("expected a saved-only refetch from page one, got %#v", cmds)
	}
	if s.Phase != PhaseLoading {
		t.Fatalf("expected loading, got %s", s.Phase)
	}
}

func TestReduce_RemoteUpdateOnlyTouchesVisibleRows(t *testing.T) {
	s := NewState("", false, 9)
	s.Rows = testRows("a")
	s, _ = Reduce(s, RemoteRowUpdated{Row: job.Listing{ID: "job-z", Title: "other"}})
	if len(s.Rows) != 1 || s.Rows[0].Title != "a" {
		t.Fatalf("unknown row must be ignored")
	}
	s, _ = Reduce(s, RemoteRowUpdated{Row: job.Listing{ID: "job-a", Title: "renamed"}})
	if s.Rows[0].Title != "renamed" {
		t.Fatalf("expected remote splice")
	}
}
