package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"jobdash/internal/domain/job"
)

const (
	DefaultDebounce = 400 * time.Millisecond
	eventBuffer     = 64
)

// Backend is the query surface a feed runs against.
type Backend interface {
	ListJobs(ctx context.Context, f job.ListFilter) (job.Page, error)
	UpdateJob(ctx context.Context, id string, p job.Patch) (*job.Listing, error)
	SaveJob(ctx context.Context, userID, jobID string) error
	UnsaveJob(ctx context.Context, userID, jobID string) error
}

type Options struct {
	UserID    string
	SavedOnly bool
	PageSize  int
	Debounce  time.Duration
	Clock     Clock
	Logger    *log.Logger
}

// Coordinator owns one feed's State. All state changes happen on its loop
// goroutine; backend calls run on their own goroutines and report back as
// events.
type Coordinator struct {
	backend  Backend
	clock    Clock
	debounce time.Duration
	logger   *log.Logger

	events chan Event
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// loop-owned
	state State
	timer Timer

	mu        sync.RWMutex
	snapshot  State
	listeners []func(State)
	closeOnce sync.Once
}

func NewCoordinator(backend Backend, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	st := NewState(opts.UserID, opts.SavedOnly, opts.PageSize)
	return &Coordinator{
		backend:  backend,
		clock:    opts.Clock,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		events:   make(chan Event, eventBuffer),
		done:     make(chan struct{}),
		state:    st,
		snapshot: st,
	}
}

// Start runs the event loop and requests the first page.
func (c *Coordinator) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.loop()
	c.post(Started{})
}

// Close stops the loop. Backend calls already in flight finish but their
// results are dropped.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		close(c.done)
		c.wg.Wait()
	})
}

// OnChange registers fn to receive every new State, on the loop goroutine.
func (c *Coordinator) OnChange(fn func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

func (c *Coordinator) SetSearch(input string) { c.post(SearchTyped{Input: input}) }
func (c *Coordinator) ClearSearch()           { c.post(SearchTyped{Input: ""}) }
func (c *Coordinator) LoadMore()              { c.post(LoadMoreRequested{}) }
func (c *Coordinator) DismissError()          { c.post(ErrorDismissed{}) }

// ApplyRemoteUpdate splices a row changed elsewhere into the window.
func (c *Coordinator) ApplyRemoteUpdate(l job.Listing) { c.post(RemoteRowUpdated{Row: l}) }

// UpdateField persists p for one inline field and waits for the backend.
// On failure the previous row stays in place and the error is returned.
func (c *Coordinator) UpdateField(ctx context.Context, jobID, field string, p job.Patch) error {
	reply := make(chan error, 1)
	if !c.post(UpdateRequested{JobID: jobID, Field: field, Patch: p, Reply: reply}) {
		return ErrClosed
	}
	return c.await(ctx, reply)
}

// ToggleSave bookmarks or un-bookmarks a row and waits for the backend.
func (c *Coordinator) ToggleSave(ctx context.Context, jobID string, save bool) error {
	reply := make(chan error, 1)
	if !c.post(SaveRequested{JobID: jobID, Save: save, Reply: reply}) {
		return ErrClosed
	}
	return c.await(ctx, reply)
}

func (c *Coordinator) await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Coordinator) post(ev Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Coordinator) loop() {
	defer c.wg.Done()
	defer func() {
		if c.timer != nil {
			c.timer.Stop()
		}
	}()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.events:
			c.dispatch(ev)
		}
	}
}

func (c *Coordinator) dispatch(ev Event) {
	if b, ok := ev.(barrier); ok {
		close(b.reached)
		return
	}

	next, cmds := Reduce(c.state, ev)
	c.state = next

	c.mu.Lock()
	c.snapshot = next
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(next)
	}

	for _, cmd := range cmds {
		c.run(cmd)
	}
}

func (c *Coordinator) run(cmd Command) {
	switch cmd := cmd.(type) {
	case Fetch:
		c.spawn(func(ctx context.Context) Event {
			page, err := c.backend.ListJobs(ctx, cmd.Filter)
			if err != nil {
				c.logf("[Feed] Fetch error offset=%d search=%q err=%v", cmd.Filter.Offset, cmd.Filter.Search, err)
				return PageFailed{Gen: cmd.Gen, Append: cmd.Append, Err: err.Error()}
			}
			return PageLoaded{Gen: cmd.Gen, Append: cmd.Append, Page: page}
		})

	case ArmDebounce:
		if c.timer != nil {
			c.timer.Stop()
		}
		seq := cmd.Seq
		c.timer = c.clock.AfterFunc(c.debounce, func() {
			c.post(DebounceElapsed{Seq: seq})
		})

	case RunUpdate:
		c.spawn(func(ctx context.Context) Event {
			row, err := c.backend.UpdateJob(ctx, cmd.JobID, cmd.Patch)
			if err != nil {
				c.logf("[Feed] Update error job_id=%s field=%s err=%v", cmd.JobID, cmd.Field, err)
			}
			return UpdateSettled{JobID: cmd.JobID, Field: cmd.Field, Row: row, Err: err, Reply: cmd.Reply}
		})

	case RunSave:
		c.spawn(func(ctx context.Context) Event {
			var err error
			if cmd.Save {
				err = c.backend.SaveJob(ctx, cmd.UserID, cmd.JobID)
			} else {
				err = c.backend.UnsaveJob(ctx, cmd.UserID, cmd.JobID)
			}
			if err != nil {
				c.logf("[Feed] Save error job_id=%s save=%t err=%v", cmd.JobID, cmd.Save, err)
			}
			return SaveSettled{JobID: cmd.JobID, Save: cmd.Save, Err: err, Reply: cmd.Reply}
		})

	case Reply:
		if cmd.To != nil {
			select {
			case cmd.To <- cmd.Err:
			default:
			}
		}
	}
}

func (c *Coordinator) spawn(call func(ctx context.Context) Event) {
	ctx := c.ctx
	go func() {
		ev := call(ctx)
		c.post(ev)
	}()
}

// barrier is processed in order with other events and lets callers wait
// until everything posted before it has been reduced.
type barrier struct{ reached chan struct{} }

func (barrier) feedEvent() {}

// Sync blocks until every event posted before the call has been applied.
func (c *Coordinator) Sync(ctx context.Context) error {
	b := barrier{reached: make(chan struct{})}
	if !c.post(b) {
		return ErrClosed
	}
	select {
	case <-b.reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Coordinator) logf(format string, args ...any) {
	if c != nil && c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
