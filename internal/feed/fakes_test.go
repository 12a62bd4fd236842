package feed

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"jobdash/internal/domain/job"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due timers on the calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeBackend struct {
	mu      sync.Mutex
	rows    []job.Listing
	saved   map[string]bool
	lists   []job.ListFilter
	listErr error
	updErr  error
	saveErr error
	updates int
}

func newFakeBackend(rows []job.Listing) *fakeBackend {
	return &fakeBackend{rows: rows, saved: map[string]bool{}}
}

func (b *fakeBackend) ListJobs(_ context.Context, f job.ListFilter) (job.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists = append(b.lists, f)
	if b.listErr != nil {
		return job.Page{}, b.listErr
	}

	var matched []job.Listing
	for _, r := range b.rows {
		if f.Search != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.SavedOnly && !b.saved[r.ID] {
			continue
		}
		matched = append(matched, r)
	}
	if f.Offset > len(matched) {
		matched = nil
	} else {
		matched = matched[f.Offset:]
	}
	if len(matched) > f.Limit+1 {
		matched = matched[:f.Limit+1]
	}
	rows, hasMore := job.TrimPage(matched, f.Limit)

	page := job.Page{Rows: rows, HasMore: hasMore, SavedIDs: []string{}}
	for _, r := range rows {
		if b.saved[r.ID] {
			page.SavedIDs = append(page.SavedIDs, r.ID)
		}
	}
	return page, nil
}

func (b *fakeBackend) UpdateJob(_ context.Context, id string, p job.Patch) (*job.Listing, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.Empty() {
		return nil, nil
	}
	b.updates++
	if b.updErr != nil {
		return nil, b.updErr
	}
	for i, r := range b.rows {
		if r.ID == id {
			b.rows[i] = p.Apply(r)
			out := b.rows[i]
			return &out, nil
		}
	}
	return nil, job.ErrNotFound
}

func (b *fakeBackend) SaveJob(_ context.Context, _, jobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved[jobID] = true
	return nil
}

func (b *fakeBackend) UnsaveJob(_ context.Context, _, jobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	delete(b.saved, jobID)
	return nil
}

func (b *fakeBackend) listCalls() []job.ListFilter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]job.ListFilter(nil), b.lists...)
}

func testRows(titles ...string) []job.Listing {
	out := make([]job.Listing, 0, len(titles))
	for i, title := range titles {
		out = append(out, job.Listing{ID: "job-" + string(rune('a'+i)), Title: title, Company: "Acme"})
	}
	return out
}

func manyRows(n int) []job.Listing {
	titles := make([]string, n)
	for i := range titles {
		titles[i] = "Engineer"
	}
	return testRows(titles...)
}

func waitFor(t *testing.T, c *Coordinator, what string, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := c.State(); cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last state %+v", what, c.State())
	return State{}
}

func mustSync(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
}
