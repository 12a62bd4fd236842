package seeder

import (
	"context"
	"fmt"
	"time"

	"jobdash/internal/database"

	"github.com/google/uuid"
)

// JobListingsSeeder inserts a handful of demo listings so a fresh dashboard
// has something to show. Ids derive from the job URL, so reruns are no-ops.
type JobListingsSeeder struct{}

func (JobListingsSeeder) Name() string { return "job_listings" }

type demoListing struct {
	Title           string
	Company         string
	Location        string
	WorkType        string
	WorkArrangement string
	Salary          string
	Description     string
	Skills          []string
	Source          string
	JobURL          string
	PostedAgo       time.Duration
}

var demoListings = []demoListing{
	{
		Title:           "Backend Engineer (Go)",
		Company:         "Northwind Labs",
		Location:        "Berlin, DE",
		WorkType:        "Full-time",
		WorkArrangement: "Hybrid",
		Salary:          "EUR 70k - 85k",
		Description:     "Build and maintain Go services, REST APIs and PostgreSQL-backed systems.",
		Skills:          []string{"Go", "PostgreSQL", "Redis", "Docker"},
		Source:          "LinkedIn",
		JobURL:          "https://www.linkedin.com/jobs/view/demo-backend-go",
		PostedAgo:       3 * time.Hour,
	},
	{
		Title:           "Frontend Developer",
		Company:         "Globex",
		Location:        "London, UK",
		WorkType:        "Full-time",
		WorkArrangement: "Remote",
		Description:     "Own the component library and the dashboard experience.",
		Skills:          []string{"TypeScript", "React", "CSS"},
		JobURL:          "https://careers.globex.co.uk/jobs/frontend-developer",
		PostedAgo:       26 * time.Hour,
	},
	{
		Title:       "Data Engineer",
		Company:     "Initech",
		Location:    "Remote",
		WorkType:    "Contract",
		Salary:      "$90/hour",
		Description: "Design batch and streaming pipelines feeding the analytics warehouse.",
		Skills:      []string{"Python", "SQL", "Airflow", "Kafka", "dbt"},
		Source:      "Indeed",
		JobURL:      "https://www.indeed.com/viewjob?jk=demo-data-engineer",
		PostedAgo:   9 * 24 * time.Hour,
	},
	{
		Title:    "Site Reliability Engineer",
		Company:  "Umbrella",
		Location: "Amsterdam, NL",
		WorkType: "Full-time",
		Skills:   []string{"Kubernetes", "Terraform", "Go"},
		JobURL:   "https://jobs.umbrella.example/sre",
	},
}

func (JobListingsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "job_listings",
		"job_id", "job_title", "company", "location", "work_type", "work_arrangement",
		"salary", "description", "skills", "source", "job_url", "posted_at",
	); err != nil {
		return err
	}

	now := time.Now().UTC()
	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, it := range demoListings {
			var posted *time.Time
			if it.PostedAgo > 0 {
				t := now.Add(-it.PostedAgo)
				posted = &t
			}
			_, err := tx.Exec(
				ctx,
				`INSERT INTO job_listings
					(job_id, job_title, company, location, work_type, work_arrangement, salary, description, skills, source, job_url, posted_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (job_id) DO NOTHING`,
				DemoListingID(it.JobURL),
				it.Title,
				it.Company,
				nullable(it.Location),
				nullable(it.WorkType),
				nullable(it.WorkArrangement),
				nullable(it.Salary),
				nullable(it.Description),
				it.Skills,
				nullable(it.Source),
				it.JobURL,
				posted,
			)
			if err != nil {
				return fmt.Errorf("insert %s: %w", it.JobURL, err)
			}
		}
		return nil
	})
}

// DemoListingID is the stable id of a demo listing.
func DemoListingID(jobURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(jobURL)).String()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
