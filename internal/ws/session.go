package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"jobdash/internal/domain/job"
	"jobdash/internal/feed"
	"jobdash/internal/view"
)

// Inbound message types.
const (
	MsgSearch       = "search"
	MsgLoadMore     = "load_more"
	MsgToggleSave   = "toggle_save"
	MsgUpdate       = "update"
	MsgEdit         = "edit"
	MsgDismissError = "dismiss_error"
)

// Outbound message types.
const (
	MsgFeed         = "feed"
	MsgUpdateResult = "update_result"
	MsgSaveResult   = "save_result"
	MsgError        = "error"
	MsgJobUpdated   = "job_updated"
	MsgCell         = "cell"
)

type ClientMessage struct {
	Type  string          `json:"type"`
	Query string          `json:"query,omitempty"`
	JobID string          `json:"job_id,omitempty"`
	Field string          `json:"field,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Save  bool            `json:"save,omitempty"`

	// Edit messages carry the raw form value of an inline cell.
	Draft string `json:"draft,omitempty"`
	Clear bool   `json:"clear,omitempty"`
	TZ    string `json:"tz,omitempty"`
}

type FeedSnapshot struct {
	Type            string            `json:"type"`
	Phase           string            `json:"phase"`
	SearchInput     string            `json:"search_input"`
	DebouncedSearch string            `json:"debounced_search"`
	Cards           []view.Card       `json:"cards"`
	HasMore         bool              `json:"has_more"`
	FetchingMore    bool              `json:"fetching_more"`
	Error           string            `json:"error,omitempty"`
	EmptyState      *view.EmptyState  `json:"empty_state,omitempty"`
	Footer          string            `json:"footer,omitempty"`
	MutationErrors  map[string]string `json:"mutation_errors,omitempty"`
	Pending         []string          `json:"pending,omitempty"`
}

type MutationResult struct {
	Type  string `json:"type"`
	JobID string `json:"job_id"`
	Field string `json:"field,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type CellFrame struct {
	Type  string        `json:"type"`
	JobID string        `json:"job_id"`
	Field string        `json:"field"`
	View  feed.CellView `json:"view"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Session runs one feed for one connection and pushes a snapshot after every
// state change.
var (
	errNotInFeed    = errors.New("job is not in the current feed")
	errSignInToEdit = errors.New("sign in to edit jobs")
)

type Session struct {
	userID string
	coord  *feed.Coordinator
	send   func([]byte) bool
	logger *log.Logger
	clock  feed.Clock

	cellsMu sync.Mutex
	cells   map[string]*feed.Cell

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewSession(backend feed.Backend, opts feed.Options, send func([]byte) bool, logger *log.Logger) *Session {
	if opts.Logger == nil {
		opts.Logger = logger
	}
	clock := opts.Clock
	if clock == nil {
		clock = feed.SystemClock
	}
	opts.Clock = clock
	s := &Session{
		userID: opts.UserID,
		coord:  feed.NewCoordinator(backend, opts),
		send:   send,
		logger: logger,
		clock:  clock,
		cells:  make(map[string]*feed.Cell),
	}
	s.coord.OnChange(s.publish)
	return s
}

func (s *Session) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.coord.Start(s.ctx)
}

func (s *Session) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.coord.Close()
		s.wg.Wait()
	})
}

func (s *Session) State() feed.State { return s.coord.State() }

func (s *Session) ApplyRemoteUpdate(l job.Listing) {
	s.coord.ApplyRemoteUpdate(l)
}

// Handle decodes one client frame and forwards it to the feed. Mutations run
// on their own goroutine so a slow backend never stalls the read loop.
func (s *Session) Handle(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logf("WS invalid message | error=%v", err)
		s.write(ErrorMessage{Type: MsgError, Error: "invalid message"})
		return
	}

	switch msg.Type {
	case MsgSearch:
		s.coord.SetSearch(msg.Query)

	case MsgLoadMore:
		s.coord.LoadMore()

	case MsgDismissError:
		s.coord.DismissError()

	case MsgToggleSave:
		if msg.JobID == "" {
			s.write(ErrorMessage{Type: MsgError, Error: "job_id is required"})
			return
		}
		s.goMutation(func(ctx context.Context) {
			err := s.coord.ToggleSave(ctx, msg.JobID, msg.Save)
			s.write(result(MsgSaveResult, msg.JobID, "", err))
		})

	case MsgUpdate:
		if s.userID == "" {
			s.write(result(MsgUpdateResult, msg.JobID, msg.Field, errSignInToEdit))
			return
		}
		if msg.JobID == "" || !job.IsEditable(msg.Field) {
			s.write(MutationResult{Type: MsgUpdateResult, JobID: msg.JobID, Field: msg.Field, Error: "field is not editable"})
			return
		}
		value := msg.Value
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		patch, err := job.ParsePatch(map[string]json.RawMessage{msg.Field: value})
		if err != nil {
			s.write(result(MsgUpdateResult, msg.JobID, msg.Field, err))
			return
		}
		s.goMutation(func(ctx context.Context) {
			err := s.coord.UpdateField(ctx, msg.JobID, msg.Field, patch)
			s.write(result(MsgUpdateResult, msg.JobID, msg.Field, err))
		})

	case MsgEdit:
		s.handleEdit(msg)

	default:
		s.logf("WS unknown message | type=%s", msg.Type)
		s.write(ErrorMessage{Type: MsgError, Error: "unknown message type"})
	}
}

// handleEdit drives the inline cell of (job, field) with a raw form value.
// The cell reports its own progress as "cell" frames.
func (s *Session) handleEdit(msg ClientMessage) {
	if s.userID == "" {
		s.write(result(MsgUpdateResult, msg.JobID, msg.Field, errSignInToEdit))
		return
	}
	if msg.JobID == "" || !job.IsEditable(msg.Field) {
		s.write(MutationResult{Type: MsgUpdateResult, JobID: msg.JobID, Field: msg.Field, Error: "field is not editable"})
		return
	}

	cell, err := s.cellFor(msg)
	if err != nil {
		s.write(result(MsgUpdateResult, msg.JobID, msg.Field, err))
		return
	}

	s.goMutation(func(ctx context.Context) {
		var err error
		if msg.Clear {
			err = cell.Clear(ctx)
		} else {
			cell.Open()
			cell.SetDraft(msg.Draft)
			err = cell.Submit(ctx)
		}
		s.write(result(MsgUpdateResult, msg.JobID, msg.Field, err))
	})
}

func (s *Session) cellFor(msg ClientMessage) (*feed.Cell, error) {
	var row *job.Listing
	st := s.coord.State()
	for i := range st.Rows {
		if st.Rows[i].ID == msg.JobID {
			row = &st.Rows[i]
			break
		}
	}
	if row == nil {
		return nil, errNotInFeed
	}

	// Every edit names the zone its draft was typed in; no tz means UTC.
	loc := time.UTC
	if msg.TZ != "" {
		if l, err := time.LoadLocation(msg.TZ); err == nil {
			loc = l
		}
	}

	key := feed.MutationKey(msg.JobID, msg.Field)
	s.cellsMu.Lock()
	defer s.cellsMu.Unlock()

	if cell, ok := s.cells[key]; ok {
		if !cell.View().Saving {
			if cell.Location().String() != loc.String() {
				cell.Relocate(*row, loc)
			} else {
				cell.Sync(*row)
			}
		}
		return cell, nil
	}

	cell, err := feed.NewCell(*row, msg.Field, s.coord, s.clock, loc)
	if err != nil {
		return nil, err
	}
	jobID, field := msg.JobID, msg.Field
	cell.OnChange(func(v feed.CellView) {
		s.write(CellFrame{Type: MsgCell, JobID: jobID, Field: field, View: v})
	})
	s.cells[key] = cell
	return cell, nil
}

func (s *Session) goMutation(fn func(ctx context.Context)) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

func result(kind, jobID, field string, err error) MutationResult {
	r := MutationResult{Type: kind, JobID: jobID, Field: field, OK: err == nil}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func (s *Session) publish(st feed.State) {
	s.write(Snapshot(st, s.clock.Now()))
}

// Snapshot renders a feed state into the frame sent to the browser.
func Snapshot(st feed.State, now time.Time) FeedSnapshot {
	cards := make([]view.Card, 0, len(st.Rows))
	for _, r := range st.Rows {
		cards = append(cards, view.NewCard(r, st.IsSaved(r.ID), now))
	}
	loading := st.Phase == feed.PhaseLoading || st.Phase == feed.PhaseIdle

	snap := FeedSnapshot{
		Type:            MsgFeed,
		Phase:           st.Phase.String(),
		SearchInput:     st.SearchInput,
		DebouncedSearch: st.DebouncedSearch,
		Cards:           cards,
		HasMore:         st.HasMore,
		FetchingMore:    st.FetchingMore,
		Error:           st.Error,
		EmptyState:      view.FeedEmptyState(loading, len(st.Rows), st.Error, st.DebouncedSearch),
		Footer:          view.FeedFooter(loading, st.FetchingMore, st.HasMore, len(st.Rows)),
	}
	if len(st.MutationErrors) > 0 {
		snap.MutationErrors = st.MutationErrors
	}
	for k, v := range st.Pending {
		if v {
			snap.Pending = append(snap.Pending, k)
		}
	}
	sort.Strings(snap.Pending)
	return snap
}

func (s *Session) write(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logf("WS marshal error | error=%v", err)
		return
	}
	if s.send != nil && !s.send(b) {
		s.logf("WS send dropped | reason=client_gone_or_slow")
	}
}

func (s *Session) logf(format string, args ...any) {
	if s != nil && s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
