package view

import (
	"fmt"
	"strings"
	"time"

	"jobdash/internal/domain/job"
)

const tableSkillLimit = 4

// Card is the feed tile of one listing.
type Card struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	CompanyURL      string   `json:"company_url,omitempty"`
	Initials        string   `json:"initials"`
	Location        string   `json:"location,omitempty"`
	WorkType        string   `json:"work_type,omitempty"`
	WorkArrangement string   `json:"work_arrangement,omitempty"`
	Salary          string   `json:"salary,omitempty"`
	PostedAt        string   `json:"posted_at,omitempty"`
	AppliedAt       string   `json:"applied_at,omitempty"`
	LastUpdated     string   `json:"last_updated,omitempty"`
	Summary         string   `json:"summary"`
	Skills          []string `json:"skills"`
	Status          string   `json:"status,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Source          string   `json:"source"`
	ListingURL      string   `json:"listing_url"`
	ApplyURL        string   `json:"apply_url,omitempty"`
	DetailHref      string   `json:"detail_href"`
	Saved           bool     `json:"saved"`
}

func NewCard(l job.Listing, saved bool, now time.Time) Card {
	source := strings.TrimSpace(job.StringValue(l.Source))
	if source == "" {
		source = DomainFromURL(l.JobURL)
	}
	if source == "" {
		source = SourceUnknown
	}

	desc := job.StringValue(l.Description)
	if strings.TrimSpace(desc) == "" {
		desc = job.StringValue(l.DescriptionMD)
	}

	c := Card{
		ID:              l.ID,
		Title:           l.Title,
		Company:         l.Company,
		CompanyURL:      job.StringValue(l.CompanyURL),
		Initials:        Initials(l.Company),
		Location:        job.StringValue(l.Location),
		WorkType:        job.StringValue(l.WorkType),
		WorkArrangement: job.StringValue(l.WorkArrangement),
		Salary:          FormatSalary(l.Salary),
		PostedAt:        FormatPostedAt(l.PostedAt, now),
		AppliedAt:       FormatPostedAt(l.AppliedAt, now),
		LastUpdated:     FormatPostedAt(l.LastUpdated, now),
		Summary:         Summarise(desc),
		Skills:          nonNil(l.Skills),
		Notes:           job.StringValue(l.Notes),
		Source:          source,
		ListingURL:      l.JobURL,
		ApplyURL:        job.StringValue(l.ApplyURL),
		DetailHref:      DetailHref(l.ID),
		Saved:           saved,
	}
	if l.Status != nil {
		c.Status = string(*l.Status)
	}
	if l.Priority != nil {
		c.Priority = string(*l.Priority)
	}
	return c
}

// TableRow is the spreadsheet view of a listing. Every display field is
// non-empty; missing values render as the placeholder.
type TableRow struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	WorkType        string `json:"work_type"`
	WorkArrangement string `json:"work_arrangement"`
	Salary          string `json:"salary"`
	Skills          string `json:"skills"`
	Status          Badge  `json:"status"`
	Priority        Badge  `json:"priority"`
	PostedAt        string `json:"posted_at"`
	AppliedAt       string `json:"applied_at"`
	LastUpdated     string `json:"last_updated"`
	Source          string `json:"source"`
	Notes           string `json:"notes"`
	DetailHref      string `json:"detail_href"`

	// Raw editable values, used as the initial draft of inline cells.
	StatusValue      *string    `json:"status_value"`
	PriorityValue    *string    `json:"priority_value"`
	AppliedAtValue   *time.Time `json:"applied_at_value"`
	LastUpdatedValue *time.Time `json:"last_updated_value"`
	NotesValue       *string    `json:"notes_value"`
}

func NewTableRow(l job.Listing, now time.Time) TableRow {
	r := TableRow{
		ID:               l.ID,
		Title:            l.Title,
		Company:          orPlaceholder(l.Company),
		Location:         orPlaceholder(job.StringValue(l.Location)),
		WorkType:         orPlaceholder(job.StringValue(l.WorkType)),
		WorkArrangement:  orPlaceholder(job.StringValue(l.WorkArrangement)),
		Salary:           FormatSalary(l.Salary),
		Skills:           skillSummary(l.Skills),
		Status:           StatusTone(l.Status),
		Priority:         PriorityTone(l.Priority),
		PostedAt:         orPlaceholder(FormatPostedAt(l.PostedAt, now)),
		AppliedAt:        orPlaceholder(FormatPostedAt(l.AppliedAt, now)),
		LastUpdated:      FormatAbsolute(l.LastUpdated, now.Location()),
		Source:           orPlaceholder(job.StringValue(l.Source)),
		Notes:            orPlaceholder(job.StringValue(l.Notes)),
		DetailHref:       DetailHref(l.ID),
		AppliedAtValue:   l.AppliedAt,
		LastUpdatedValue: l.LastUpdated,
		NotesValue:       l.Notes,
	}
	if r.Salary == "" {
		r.Salary = SalaryUnavailable
	}
	if l.Status == nil {
		r.Status.Label = Placeholder
	} else {
		v := string(*l.Status)
		r.StatusValue = &v
	}
	if l.Priority == nil {
		r.Priority.Label = Placeholder
	} else {
		v := string(*l.Priority)
		r.PriorityValue = &v
	}
	return r
}

func skillSummary(skills []string) string {
	if len(skills) == 0 {
		return Placeholder
	}
	if len(skills) <= tableSkillLimit {
		return strings.Join(skills, ", ")
	}
	return fmt.Sprintf("%s +%d", strings.Join(skills[:tableSkillLimit], ", "), len(skills)-tableSkillLimit)
}

// Detail is the full page of one listing.
type Detail struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	CompanyURL      string   `json:"company_url,omitempty"`
	Initials        string   `json:"initials"`
	Location        string   `json:"location,omitempty"`
	WorkType        string   `json:"work_type,omitempty"`
	WorkArrangement string   `json:"work_arrangement,omitempty"`
	Salary          string   `json:"salary,omitempty"`
	PostedAt        string   `json:"posted_at,omitempty"`
	ApplicantCount  string   `json:"applicant_count,omitempty"`
	Description     string   `json:"description"`
	Markdown        bool     `json:"markdown"`
	Skills          []string `json:"skills"`
	Benefits        []string `json:"benefits"`
	Insights        []string `json:"insights"`
	Status          Badge    `json:"status"`
	Priority        Badge    `json:"priority"`
	Notes           string   `json:"notes,omitempty"`
	Source          string   `json:"source"`
	ListingURL      string   `json:"listing_url"`
	ApplyHref       string   `json:"apply_href"`
	Saved           bool     `json:"saved"`
	Banner          string   `json:"banner,omitempty"`
}

// NewDetail prefers the markdown description over the plain one. banner is an
// optional non-fatal error shown above the page.
func NewDetail(l job.Listing, saved bool, banner string, now time.Time) Detail {
	d := Detail{
		ID:              l.ID,
		Title:           l.Title,
		Company:         l.Company,
		CompanyURL:      job.StringValue(l.CompanyURL),
		Initials:        Initials(l.Company),
		Location:        job.StringValue(l.Location),
		WorkType:        job.StringValue(l.WorkType),
		WorkArrangement: job.StringValue(l.WorkArrangement),
		Salary:          FormatSalary(l.Salary),
		PostedAt:        FormatPostedAt(l.PostedAt, now),
		ApplicantCount:  job.StringValue(l.ApplicantCount),
		Skills:          nonNil(l.Skills),
		Benefits:        nonNil(l.Benefits),
		Insights:        nonNil(l.Insights),
		Status:          StatusTone(l.Status),
		Priority:        PriorityTone(l.Priority),
		Notes:           job.StringValue(l.Notes),
		ListingURL:      l.JobURL,
		ApplyHref:       l.JobURL,
		Saved:           saved,
		Banner:          banner,
	}

	switch md, plain := strings.TrimSpace(job.StringValue(l.DescriptionMD)), strings.TrimSpace(job.StringValue(l.Description)); {
	case md != "":
		d.Description, d.Markdown = md, true
	case plain != "":
		d.Description = plain
	default:
		d.Description = NoDescription
	}

	if d.Source = DomainFromURL(l.JobURL); d.Source == "" {
		d.Source = SourceUnknown
	}
	if apply := strings.TrimSpace(job.StringValue(l.ApplyURL)); apply != "" {
		d.ApplyHref = apply
	}
	return d
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
