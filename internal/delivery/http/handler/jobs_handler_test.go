package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"testing"
	"time"

	"jobdash/internal/config"
	"jobdash/internal/delivery/http/middleware"
	"jobdash/internal/domain/job"
	"jobdash/internal/pkg/jwt"
	"jobdash/internal/usecase"

	"github.com/gofiber/fiber/v3"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

type fakeJobFeed struct {
	page      job.Page
	listErr   error
	lastList  job.ListFilter
	detail    usecase.JobDetail
	getErr    error
	updated   *job.Listing
	updateErr error
	lastPatch job.Patch
	saves     []string
	unsaves   []string
}

func (f *fakeJobFeed) ListJobs(_ context.Context, filter job.ListFilter) (job.Page, error) {
	f.lastList = filter
	return f.page, f.listErr
}

func (f *fakeJobFeed) GetJob(_ context.Context, id, _ string) (usecase.JobDetail, error) {
	if f.getErr != nil {
		return usecase.JobDetail{}, f.getErr
	}
	return f.detail, nil
}

func (f *fakeJobFeed) UpdateJob(_ context.Context, _ string, p job.Patch) (*job.Listing, error) {
	f.lastPatch = p
	if p.Empty() {
		return nil, nil
	}
	return f.updated, f.updateErr
}

func (f *fakeJobFeed) SaveJob(_ context.Context, userID, jobID string) error {
	f.saves = append(f.saves, userID+"/"+jobID)
	return nil
}

func (f *fakeJobFeed) UnsaveJob(_ context.Context, userID, jobID string) error {
	f.unsaves = append(f.unsaves, userID+"/"+jobID)
	return nil
}

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T, uc usecase.JobFeedUsecase) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{})
	app.Use(middleware.NewErrorMiddleware(log.New(io.Discard, "", 0)).Middleware())

	api := app.Group("/api/v1", middleware.NewAuthMiddleware(jwt.NewHMACValidator(testSecret)).Middleware())
	h := NewJobsHandler(uc)
	h.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	h.RegisterRoutes(api)
	NewSuggestionsHandler(config.Suggestions{Status: []string{"Applied"}, Priority: []string{"High"}}).RegisterRoutes(api)
	return app
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

func do(t *testing.T, app *fiber.App, method, path, auth string, body []byte) (int, semanticResponse) {
	t.Helper()

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var sr semanticResponse
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sr); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, sr
}

func strPtr(s string) *string { return &s }

func TestListJobs_RendersCards(t *testing.T) {
	uc := &fakeJobFeed{page: job.Page{
		Rows: []job.Listing{
			{ID: "a", Title: "Backend engineer", Company: "Acme", Salary: strPtr("$100k")},
			{ID: "b", Title: "Frontend engineer", Company: "Globex"},
		},
		SavedIDs: []string{"b"},
		HasMore:  true,
	}}
	app := newTestApp(t, uc)

	status, sr := do(t, app, "GET", "/api/v1/jobs?search=engineer&offset=9&limit=9", bearer(t, "user-1"), nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, sr.Message)
	}
	if uc.lastList.Search != "engineer" || uc.lastList.Offset != 9 || uc.lastList.Limit != 9 || uc.lastList.UserID != "user-1" {
		t.Fatalf("unexpected filter %+v", uc.lastList)
	}

	var data struct {
		Rows []struct {
			ID    string `json:"id"`
			Saved bool   `json:"saved"`
		} `json:"rows"`
		HasMore    bool `json:"has_more"`
		NextOffset int  `json:"next_offset"`
	}
	if err := json.Unmarshal(sr.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Rows) != 2 || data.Rows[0].Saved || !data.Rows[1].Saved {
		t.Fatalf("unexpected rows %+v", data.Rows)
	}
	if !data.HasMore || data.NextOffset != 11 {
		t.Fatalf("unexpected paging %+v", data)
	}
}

func TestListJobs_EmptySearchState(t *testing.T) {
	app := newTestApp(t, &fakeJobFeed{})

	_, sr := do(t, app, "GET", "/api/v1/jobs?search=zzz", "", nil)
	var data struct {
		EmptyState struct {
			Title string `json:"title"`
		} `json:"empty_state"`
	}
	_ = json.Unmarshal(sr.Data, &data)
	if data.EmptyState.Title != "No matching listings" {
		t.Fatalf("unexpected empty state %s", sr.Data)
	}
}

func TestListJobs_BadQuery(t *testing.T) {
	app := newTestApp(t, &fakeJobFeed{})

	for _, path := range []string{"/api/v1/jobs?limit=abc", "/api/v1/jobs?saved=maybe"} {
		if status, _ := do(t, app, "GET", path, "", nil); status != fiber.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, status)
		}
	}

	app = newTestApp(t, &fakeJobFeed{listErr: usecase.ErrInvalidInput})
	if status, _ := do(t, app, "GET", "/api/v1/jobs?limit=500", "", nil); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for usecase rejection, got %d", status)
	}
}

func TestListJobs_InternalErrorHidesCause(t *testing.T) {
	app := newTestApp(t, &fakeJobFeed{listErr: errors.New("pq: connection refused")})

	status, sr := do(t, app, "GET", "/api/v1/jobs", "", nil)
	if status != fiber.StatusInternalServerError || sr.Message != "internal server error" {
		t.Fatalf("unexpected %d %q", status, sr.Message)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	app := newTestApp(t, &fakeJobFeed{getErr: job.ErrNotFound})

	status, sr := do(t, app, "GET", "/api/v1/jobs/missing", "", nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	var nf struct {
		Title    string `json:"title"`
		BackHref string `json:"back_href"`
	}
	if err := json.Unmarshal(sr.Data, &nf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if nf.Title != "Job listing not found" || nf.BackHref != "/dashboard" {
		t.Fatalf("unexpected not-found body %+v", nf)
	}
}

func TestGetJob_Detail(t *testing.T) {
	uc := &fakeJobFeed{detail: usecase.JobDetail{
		Listing: job.Listing{ID: "a", Title: "Backend engineer", Company: "Acme", JobURL: "https://acme.com/jobs/a"},
		Saved:   true,
		Warning: "Could not load saved state for this job.",
	}}
	app := newTestApp(t, uc)

	status, sr := do(t, app, "GET", "/api/v1/jobs/a", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var d struct {
		Description string `json:"description"`
		ApplyHref   string `json:"apply_href"`
		Saved       bool   `json:"saved"`
		Banner      string `json:"banner"`
	}
	_ = json.Unmarshal(sr.Data, &d)
	if d.Description != "No description provided." || d.ApplyHref != "https://acme.com/jobs/a" || !d.Saved || d.Banner == "" {
		t.Fatalf("unexpected detail %+v", d)
	}
}

func TestUpdateJob(t *testing.T) {
	applied := job.Status("Applied")
	uc := &fakeJobFeed{updated: &job.Listing{ID: "a", Title: "Backend engineer", Company: "Acme", Status: &applied}}
	app := newTestApp(t, uc)

	status, sr := do(t, app, "PATCH", "/api/v1/jobs/a", bearer(t, "user-1"), []byte(`{"status":"Applied","notes":null,"job_title":"ignored"}`))
	if status != fiber.StatusOK || sr.Message != "updated" {
		t.Fatalf("unexpected %d %q", status, sr.Message)
	}
	if v := uc.lastPatch.Status.Value(); v == nil || *v != "Applied" {
		t.Fatalf("status not patched")
	}
	if !uc.lastPatch.Notes.Present() || uc.lastPatch.Notes.Value() != nil {
		t.Fatalf("notes should be cleared")
	}

	var row struct {
		Status struct {
			Label string `json:"label"`
		} `json:"status"`
	}
	_ = json.Unmarshal(sr.Data, &row)
	if row.Status.Label != "Applied" {
		t.Fatalf("unexpected row %s", sr.Data)
	}
}

func TestUpdateJob_NoChangesAndBadBody(t *testing.T) {
	app := newTestApp(t, &fakeJobFeed{})
	tok := bearer(t, "user-1")

	status, sr := do(t, app, "PATCH", "/api/v1/jobs/a", tok, []byte(`{"job_title":"x"}`))
	if status != fiber.StatusOK || sr.Message != "no changes" {
		t.Fatalf("unexpected %d %q", status, sr.Message)
	}

	if status, _ := do(t, app, "PATCH", "/api/v1/jobs/a", tok, []byte(`{"applied_at":"yesterday"}`)); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", status)
	}
	if status, _ := do(t, app, "PATCH", "/api/v1/jobs/a", tok, []byte(`not json`)); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", status)
	}
}

func TestUpdateJob_RequiresUser(t *testing.T) {
	uc := &fakeJobFeed{updated: &job.Listing{ID: "a", Title: "Backend engineer", Company: "Acme"}}
	app := newTestApp(t, uc)

	status, sr := do(t, app, "PATCH", "/api/v1/jobs/a", "", []byte(`{"status":"Applied"}`))
	if status != fiber.StatusUnauthorized || sr.Message != "Sign in to edit jobs" {
		t.Fatalf("expected 401 for anonymous edit, got %d %q", status, sr.Message)
	}
	if status, _ := do(t, app, "PATCH", "/api/v1/jobs/a", "Bearer garbage", []byte(`{"status":"Applied"}`)); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}
	if uc.lastPatch.Status.Present() {
		t.Fatalf("anonymous edit must not reach the usecase")
	}
}

func TestSaveJob_RequiresUser(t *testing.T) {
	uc := &fakeJobFeed{}
	app := newTestApp(t, uc)

	if status, _ := do(t, app, "PUT", "/api/v1/jobs/a/save", "", nil); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous save, got %d", status)
	}
	if status, _ := do(t, app, "PUT", "/api/v1/jobs/a/save", "Bearer garbage", nil); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", status)
	}

	if status, _ := do(t, app, "PUT", "/api/v1/jobs/a/save", bearer(t, "user-1"), nil); status != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
	if status, _ := do(t, app, "DELETE", "/api/v1/jobs/a/save", bearer(t, "user-1"), nil); status != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
	if len(uc.saves) != 1 || uc.saves[0] != "user-1/a" || len(uc.unsaves) != 1 {
		t.Fatalf("unexpected calls saves=%v unsaves=%v", uc.saves, uc.unsaves)
	}
}

func TestSuggestions(t *testing.T) {
	app := newTestApp(t, &fakeJobFeed{})

	_, sr := do(t, app, "GET", "/api/v1/suggestions", "", nil)
	var s struct {
		Status   []string `json:"status"`
		Priority []string `json:"priority"`
	}
	_ = json.Unmarshal(sr.Data, &s)
	if len(s.Status) != 1 || s.Status[0] != "Applied" || s.Priority[0] != "High" {
		t.Fatalf("unexpected suggestions %s", sr.Data)
	}
}
