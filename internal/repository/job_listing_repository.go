package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"jobdash/internal/database"
	"jobdash/internal/domain/job"

	"github.com/jackc/pgx/v5"
)

// JobListingRepository is the read/patch surface over job_listings. It never
// inserts or deletes listings.
type JobListingRepository interface {
	ListListings(ctx context.Context, f ListingQuery) ([]job.Listing, error)
	ListSavedListings(ctx context.Context, userID string, f ListingQuery) ([]job.Listing, error)
	GetListing(ctx context.Context, id string) (job.Listing, error)
	UpdateListing(ctx context.Context, id string, p job.Patch) (job.Listing, error)
}

// ListingQuery is a raw page request. TSQuery is already in to_tsquery syntax
// and Fetch is the number of rows to read (callers pass limit+1).
type ListingQuery struct {
	TSQuery string
	Fetch   int
	Offset  int
}

const listingColumns = `
	l.job_id, l.job_title, l.company, l.company_url, l.location, l.work_type, l.work_arrangement,
	l.salary, l.description, l.description_md, l.skills, l.benefits, l.job_insights, l.applicant_count,
	l.status, l.priority, l.applied_at, l.last_updated, l.notes, l.source, l.job_url, l.apply_url,
	l.posted_at, l.created_at`

type PostgresJobListingRepository struct {
	db database.Querier
}

func NewPostgresJobListingRepository(db database.Querier) *PostgresJobListingRepository {
	return &PostgresJobListingRepository{db: db}
}

func (r *PostgresJobListingRepository) ListListings(ctx context.Context, f ListingQuery) ([]job.Listing, error) {
	fetch, offset := clampPage(f.Fetch, f.Offset)

	var (
		q    string
		args []any
	)
	if f.TSQuery != "" {
		q = `SELECT` + listingColumns + `
		 FROM job_listings l
		 WHERE l.search_vector @@ to_tsquery('english', $1)
		 ORDER BY l.posted_at DESC NULLS LAST, l.job_id ASC
		 LIMIT $2 OFFSET $3`
		args = []any{f.TSQuery, fetch, offset}
	} else {
		q = `SELECT` + listingColumns + `
		 FROM job_listings l
		 ORDER BY l.posted_at DESC NULLS LAST, l.job_id ASC
		 LIMIT $1 OFFSET $2`
		args = []any{fetch, offset}
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return scanListings(rows)
}

func (r *PostgresJobListingRepository) ListSavedListings(ctx context.Context, userID string, f ListingQuery) ([]job.Listing, error) {
	fetch, offset := clampPage(f.Fetch, f.Offset)

	var (
		q    string
		args []any
	)
	if f.TSQuery != "" {
		q = `SELECT` + listingColumns + `
		 FROM saved_jobs s
		 JOIN job_listings l ON l.job_id = s.job_id
		 WHERE s.user_id = $1 AND l.search_vector @@ to_tsquery('english', $2)
		 ORDER BY l.posted_at DESC NULLS LAST, l.job_id ASC
		 LIMIT $3 OFFSET $4`
		args = []any{userID, f.TSQuery, fetch, offset}
	} else {
		q = `SELECT` + listingColumns + `
		 FROM saved_jobs s
		 JOIN job_listings l ON l.job_id = s.job_id
		 WHERE s.user_id = $1
		 ORDER BY l.posted_at DESC NULLS LAST, l.job_id ASC
		 LIMIT $2 OFFSET $3`
		args = []any{userID, fetch, offset}
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list saved listings: %w", err)
	}
	return scanListings(rows)
}

func (r *PostgresJobListingRepository) GetListing(ctx context.Context, id string) (job.Listing, error) {
	row := r.db.QueryRow(ctx, `SELECT`+listingColumns+` FROM job_listings l WHERE l.job_id = $1`, id)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Listing{}, job.ErrNotFound
		}
		return job.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

// UpdateListing writes only the present fields of p and returns the row as
// stored. Callers must not pass an empty patch.
func (r *PostgresJobListingRepository) UpdateListing(ctx context.Context, id string, p job.Patch) (job.Listing, error) {
	q, args, err := buildUpdate(id, p)
	if err != nil {
		return job.Listing{}, err
	}

	l, err := scanListing(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Listing{}, job.ErrNotFound
		}
		return job.Listing{}, fmt.Errorf("update listing: %w", err)
	}
	return l, nil
}

var errEmptyPatch = errors.New("empty patch")

func buildUpdate(id string, p job.Patch) (string, []any, error) {
	cols := p.Columns()
	if len(cols) == 0 {
		return "", nil, errEmptyPatch
	}

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	args = append(args, id)
	for _, c := range cols {
		if !job.IsEditable(c.Name) {
			return "", nil, fmt.Errorf("column %q is not editable", c.Name)
		}
		args = append(args, c.Value)
		sets = append(sets, c.Name+" = $"+strconv.Itoa(len(args)))
	}

	q := `UPDATE job_listings l SET ` + strings.Join(sets, ", ") +
		` WHERE l.job_id = $1 RETURNING` + listingColumns
	return q, args, nil
}

func clampPage(fetch, offset int) (int, int) {
	if fetch <= 0 {
		fetch = 10
	}
	if fetch > 101 {
		fetch = 101
	}
	if offset < 0 {
		offset = 0
	}
	return fetch, offset
}

func scanListings(rows database.Rows) ([]job.Listing, error) {
	defer rows.Close()

	out := make([]job.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanListing(row database.Row) (job.Listing, error) {
	var (
		l        job.Listing
		status   *string
		priority *string
	)
	err := row.Scan(
		&l.ID, &l.Title, &l.Company, &l.CompanyURL, &l.Location, &l.WorkType, &l.WorkArrangement,
		&l.Salary, &l.Description, &l.DescriptionMD, &l.Skills, &l.Benefits, &l.Insights, &l.ApplicantCount,
		&status, &priority, &l.AppliedAt, &l.LastUpdated, &l.Notes, &l.Source, &l.JobURL, &l.ApplyURL,
		&l.PostedAt, &l.CreatedAt,
	)
	if err != nil {
		return job.Listing{}, err
	}
	if status != nil {
		s := job.Status(*status)
		l.Status = &s
	}
	if priority != nil {
		p := job.Priority(*priority)
		l.Priority = &p
	}
	return l, nil
}
