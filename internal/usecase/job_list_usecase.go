package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jobdash/internal/domain/job"
	"jobdash/internal/repository"
	"jobdash/internal/search"
)

const (
	DefaultPageSize = 9
	MaxPageSize     = 50
)

type JobFeedUsecase interface {
	ListJobs(ctx context.Context, f job.ListFilter) (job.Page, error)
	GetJob(ctx context.Context, id, userID string) (JobDetail, error)
	UpdateJob(ctx context.Context, id string, p job.Patch) (*job.Listing, error)
	SaveJob(ctx context.Context, userID, jobID string) error
	UnsaveJob(ctx context.Context, userID, jobID string) error
}

// JobDetail is a single listing plus the caller's bookmark state. Warning is
// set when the listing loaded but the bookmark lookup failed.
type JobDetail struct {
	Listing job.Listing
	Saved   bool
	Warning string
}

// JobNotifier is told about every acknowledged listing write.
type JobNotifier interface {
	NotifyJobUpdated(l job.Listing)
}

type JobFeed struct {
	listings repository.JobListingRepository
	saved    repository.SavedJobRepository
	cache    SearchCache
	notifier JobNotifier
	logger   *log.Logger

	pageSize int
}

func NewJobFeedUsecase(listings repository.JobListingRepository, saved repository.SavedJobRepository, cache SearchCache, notifier JobNotifier, logger *log.Logger) *JobFeed {
	return &JobFeed{
		listings: listings,
		saved:    saved,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		pageSize: DefaultPageSize,
	}
}

// WithPageSize overrides the page size used when a filter has no limit.
func (u *JobFeed) WithPageSize(n int) *JobFeed {
	if n > 0 && n <= MaxPageSize {
		u.pageSize = n
	}
	return u
}

func (u *JobFeed) ListJobs(ctx context.Context, f job.ListFilter) (job.Page, error) {
	if f.Limit == 0 {
		f.Limit = u.pageSize
	}
	if f.Limit < 0 || f.Limit > MaxPageSize || f.Offset < 0 {
		return job.Page{}, ErrInvalidInput
	}
	f.Search = strings.TrimSpace(f.Search)
	f.UserID = strings.TrimSpace(f.UserID)

	if f.SavedOnly && f.UserID == "" {
		return job.Page{Rows: []job.Listing{}, SavedIDs: []string{}}, nil
	}

	cacheKey := JobListCacheKey(f)
	lockKey := JobListLockKey(cacheKey)
	lockAcquired := false

	if u.cacheOn() {
		var cached job.Page
		hit, err := u.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && hit {
			u.logf("[Jobs] Cache HIT: %s", cacheKey)
			return cached, nil
		}
		u.logf("[Jobs] Cache MISS: %s", cacheKey)

		ok, err := u.cache.SetIfNotExists(ctx, lockKey, "1", 10*time.Second)
		switch {
		case err == nil && ok:
			lockAcquired = true
		case err == nil && !ok:
			// Another request is filling this key; give it a moment.
			if waitCtx(ctx, 150*time.Millisecond) {
				hit, err := u.cache.GetJSON(ctx, cacheKey, &cached)
				if err == nil && hit {
					u.logf("[Jobs] Cache HIT after wait: %s", cacheKey)
					return cached, nil
				}
			}
			u.logf("[Jobs] Lock wait fallback: %s", lockKey)
		}
	}

	version, versionOK := u.listVersion(ctx)
	page, err := u.fetchPage(ctx, f)
	if lockAcquired {
		_ = u.cache.Delete(ctx, lockKey)
	}
	if err != nil {
		return job.Page{}, err
	}

	// A write acknowledged while the page was read has already invalidated
	// the cache; storing this page would bring the old rows back.
	if versionOK {
		if now, ok := u.listVersion(ctx); !ok || now != version {
			u.logf("[Jobs] Cache SET skipped, listings changed: %s", cacheKey)
		} else if err := u.cache.SetJSON(ctx, cacheKey, page, 0); err == nil {
			u.logf("[Jobs] Cache SET: %s", cacheKey)
		}
	}
	return page, nil
}

func (u *JobFeed) listVersion(ctx context.Context) (int64, bool) {
	if !u.cacheOn() {
		return 0, false
	}
	v, err := u.cache.GetInt(ctx, listVersionKey)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (u *JobFeed) fetchPage(ctx context.Context, f job.ListFilter) (job.Page, error) {
	q := repository.ListingQuery{
		TSQuery: search.BuildTSQuery(f.Search),
		Fetch:   f.Limit + 1,
		Offset:  f.Offset,
	}

	var (
		rows []job.Listing
		err  error
	)
	if f.SavedOnly {
		rows, err = u.listings.ListSavedListings(ctx, f.UserID, q)
	} else {
		rows, err = u.listings.ListListings(ctx, q)
	}
	if err != nil {
		u.logf("[Jobs] List error saved_only=%t offset=%d err=%v", f.SavedOnly, f.Offset, err)
		return job.Page{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	rows, hasMore := job.TrimPage(rows, f.Limit)
	page := job.Page{Rows: rows, HasMore: hasMore, SavedIDs: []string{}}

	switch {
	case f.SavedOnly:
		for _, r := range rows {
			page.SavedIDs = append(page.SavedIDs, r.ID)
		}
	case f.UserID != "" && len(rows) > 0:
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		saved, err := u.saved.SavedAmong(ctx, f.UserID, ids)
		if err != nil {
			u.logf("[Jobs] Saved lookup error err=%v", err)
			return job.Page{}, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		page.SavedIDs = saved
	}

	return page, nil
}

func (u *JobFeed) GetJob(ctx context.Context, id, userID string) (JobDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return JobDetail{}, ErrInvalidInput
	}

	l, err := u.listings.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return JobDetail{}, job.ErrNotFound
		}
		return JobDetail{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	out := JobDetail{Listing: l}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return out, nil
	}

	saved, err := u.saved.IsSaved(ctx, userID, id)
	if err != nil {
		u.logf("[Jobs] Saved lookup error job_id=%s err=%v", id, err)
		out.Warning = "Could not load saved state for this job."
		return out, nil
	}
	out.Saved = saved
	return out, nil
}

// UpdateJob writes the present whitelisted fields. An empty patch returns
// (nil, nil) without touching the backend.
func (u *JobFeed) UpdateJob(ctx context.Context, id string, p job.Patch) (*job.Listing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidInput
	}
	if p.Empty() {
		return nil, nil
	}

	l, err := u.listings.UpdateListing(ctx, id, p)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return nil, job.ErrNotFound
		}
		u.logf("[Jobs] Update error job_id=%s err=%v", id, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	u.invalidate(ctx, allListsPattern())
	if u.notifier != nil {
		u.notifier.NotifyJobUpdated(l)
	}
	return &l, nil
}

func (u *JobFeed) SaveJob(ctx context.Context, userID, jobID string) error {
	userID, jobID = strings.TrimSpace(userID), strings.TrimSpace(jobID)
	if userID == "" {
		return ErrUnauthenticated
	}
	if jobID == "" {
		return ErrInvalidInput
	}
	if err := u.saved.Save(ctx, userID, jobID); err != nil {
		u.logf("[Jobs] Save error job_id=%s err=%v", jobID, err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	u.invalidate(ctx, userListPattern(userID))
	return nil
}

func (u *JobFeed) UnsaveJob(ctx context.Context, userID, jobID string) error {
	userID, jobID = strings.TrimSpace(userID), strings.TrimSpace(jobID)
	if userID == "" {
		return ErrUnauthenticated
	}
	if jobID == "" {
		return ErrInvalidInput
	}
	if err := u.saved.Remove(ctx, userID, jobID); err != nil {
		u.logf("[Jobs] Unsave error job_id=%s err=%v", jobID, err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	u.invalidate(ctx, userListPattern(userID))
	return nil
}

func (u *JobFeed) cacheOn() bool {
	return u.cache != nil && u.cache.Available()
}

// invalidate bumps the list version before dropping pattern, so a page
// read before the write is never stored afterwards.
func (u *JobFeed) invalidate(ctx context.Context, pattern string) {
	if !u.cacheOn() {
		return
	}
	if _, err := u.cache.Incr(ctx, listVersionKey); err != nil {
		u.logf("[Jobs] Cache version bump error err=%v", err)
	}
	if err := u.cache.DeleteByPattern(ctx, pattern); err != nil {
		u.logf("[Jobs] Cache invalidate error pattern=%s err=%v", pattern, err)
	}
}

func (u *JobFeed) logf(format string, args ...any) {
	if u != nil && u.logger != nil {
		u.logger.Printf(format, args...)
	}
}

func waitCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
