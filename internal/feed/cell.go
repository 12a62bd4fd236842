package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"jobdash/internal/domain/job"
)

const (
	// DateInputLayout is the datetime-local form value format.
	DateInputLayout = "2006-01-02T15:04"
	successFlash    = 2 * time.Second
)

var ErrCellBusy = errors.New("cell is saving")

// FieldUpdater persists one field. *Coordinator implements it.
type FieldUpdater interface {
	UpdateField(ctx context.Context, jobID, field string, p job.Patch) error
}

// CellView is what an inline editable cell draws.
type CellView struct {
	Open    bool   `json:"open"`
	Draft   string `json:"draft"`
	Saving  bool   `json:"saving"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Cell is the popover editor of one editable field of one row.
type Cell struct {
	jobID   string
	field   string
	updater FieldUpdater
	clock   Clock
	loc     *time.Location

	mu      sync.Mutex
	current string
	draft   string
	open    bool
	saving  bool
	success bool
	errMsg  string
	flash   Timer

	onChange func(CellView)
}

// NewCell builds a cell for field of l. loc is the zone date drafts are
// entered in; nil means UTC.
func NewCell(l job.Listing, field string, updater FieldUpdater, clock Clock, loc *time.Location) (*Cell, error) {
	if !job.IsEditable(field) {
		return nil, fmt.Errorf("field %q is not editable", field)
	}
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	c := &Cell{jobID: l.ID, field: field, updater: updater, clock: clock, loc: loc}
	c.current = c.inputValue(l)
	c.draft = c.current
	return c, nil
}

// OnChange registers fn to be called after every visible change.
func (c *Cell) OnChange(fn func(CellView)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Cell) View() CellView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Cell) viewLocked() CellView {
	return CellView{Open: c.open, Draft: c.draft, Saving: c.saving, Success: c.success, Error: c.errMsg}
}

// Sync replaces the last-known value, e.g. after a remote update. An open
// editor keeps its draft.
func (c *Cell) Sync(l job.Listing) {
	c.mu.Lock()
	c.current = c.inputValue(l)
	if !c.open {
		c.draft = c.current
	}
	c.notifyLocked()
}

// Open starts editing with the last-known value as the draft.
func (c *Cell) Open() {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return
	}
	c.open = true
	c.draft = c.current
	c.success = false
	c.errMsg = ""
	c.notifyLocked()
}

func (c *Cell) SetDraft(v string) {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return
	}
	c.draft = v
	c.notifyLocked()
}

// SetDraftNow fills a date draft with the current minute.
func (c *Cell) SetDraftNow() {
	c.mu.Lock()
	loc := c.loc
	c.mu.Unlock()
	c.SetDraft(c.clock.Now().In(loc).Format(DateInputLayout))
}

// Relocate switches the zone date drafts are entered in and re-reads the
// value of l in it. It is ignored while a write is in flight.
func (c *Cell) Relocate(l job.Listing, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return
	}
	c.loc = loc
	c.current = c.inputValue(l)
	if !c.open {
		c.draft = c.current
	}
	c.notifyLocked()
}

// Location is the zone date drafts are entered in.
func (c *Cell) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc
}

func (c *Cell) Cancel() {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return
	}
	c.open = false
	c.success = false
	c.draft = c.current
	c.errMsg = ""
	c.notifyLocked()
}

// Submit persists the draft. An unchanged draft succeeds without a backend
// call. While a submit is in flight further submits fail with ErrCellBusy.
func (c *Cell) Submit(ctx context.Context) error {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()
	return c.persist(ctx, draft)
}

// Clear persists NULL.
func (c *Cell) Clear(ctx context.Context) error {
	c.mu.Lock()
	if !c.saving {
		c.draft = ""
	}
	c.mu.Unlock()
	return c.persist(ctx, "")
}

func (c *Cell) persist(ctx context.Context, draft string) error {
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return ErrCellBusy
	}

	next, patch, err := c.patchFor(draft)
	if err != nil {
		c.errMsg = err.Error()
		c.notifyLocked()
		return err
	}
	if next == c.current {
		c.open = false
		c.errMsg = ""
		c.showSuccessLocked()
		c.notifyLocked()
		return nil
	}

	c.saving = true
	c.errMsg = ""
	c.notifyLocked()

	err = c.updater.UpdateField(ctx, c.jobID, c.field, patch)

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.errMsg = err.Error()
		if c.errMsg == "" {
			c.errMsg = "Failed to update " + c.noun() + "."
		}
		c.notifyLocked()
		return err
	}
	c.current = next
	c.draft = next
	c.open = false
	c.showSuccessLocked()
	c.notifyLocked()
	return nil
}

func (c *Cell) showSuccessLocked() {
	c.success = true
	if c.flash != nil {
		c.flash.Stop()
	}
	c.flash = c.clock.AfterFunc(successFlash, func() {
		c.mu.Lock()
		c.success = false
		c.notifyLocked()
	})
}

// notifyLocked releases c.mu before calling the listener.
func (c *Cell) notifyLocked() {
	fn := c.onChange
	v := c.viewLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

// patchFor normalises a draft and returns its comparable input form.
func (c *Cell) patchFor(draft string) (string, job.Patch, error) {
	var p job.Patch
	switch c.field {
	case job.FieldStatus, job.FieldPriority:
		v := strings.TrimSpace(draft)
		if c.field == job.FieldStatus {
			if v == "" {
				p.Status = job.Null[job.Status]()
			} else {
				p.Status = job.Set(job.Status(v))
			}
		} else {
			if v == "" {
				p.Priority = job.Null[job.Priority]()
			} else {
				p.Priority = job.Set(job.Priority(v))
			}
		}
		return v, p, nil

	case job.FieldNotes:
		if strings.TrimSpace(draft) == "" {
			p.Notes = job.Null[string]()
			return "", p, nil
		}
		p.Notes = job.Set(draft)
		return draft, p, nil

	case job.FieldAppliedAt, job.FieldLastUpdated:
		f := job.Null[time.Time]()
		v := strings.TrimSpace(draft)
		if v != "" {
			t, err := time.ParseInLocation(DateInputLayout, v, c.loc)
			if err != nil {
				return "", p, fmt.Errorf("invalid date %q", v)
			}
			f = job.Set(t.UTC())
		}
		if c.field == job.FieldAppliedAt {
			p.AppliedAt = f
		} else {
			p.LastUpdated = f
		}
		return v, p, nil
	}
	return "", p, fmt.Errorf("field %q is not editable", c.field)
}

func (c *Cell) inputValue(l job.Listing) string {
	switch c.field {
	case job.FieldStatus:
		if l.Status != nil {
			return string(*l.Status)
		}
	case job.FieldPriority:
		if l.Priority != nil {
			return string(*l.Priority)
		}
	case job.FieldNotes:
		if l.Notes != nil && strings.TrimSpace(*l.Notes) != "" {
			return *l.Notes
		}
	case job.FieldAppliedAt:
		return dateInput(l.AppliedAt, c.loc)
	case job.FieldLastUpdated:
		return dateInput(l.LastUpdated, c.loc)
	}
	return ""
}

func dateInput(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format(DateInputLayout)
}

func (c *Cell) noun() string {
	switch c.field {
	case job.FieldAppliedAt, job.FieldLastUpdated:
		return "date"
	}
	return c.field
}
