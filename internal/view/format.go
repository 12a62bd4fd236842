package view

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Placeholder        = "--"
	SourceUnknown      = "Source unknown"
	NoDescription      = "No description provided."
	SalaryUnavailable  = "N/A"
	summaryMaxRunes    = 140
	summaryCutRunes    = 137
	absoluteDateLayout = "Jan 2, 2006"
	absoluteTimeLayout = "Jan 2, 2006, 03:04 PM"
)

// FormatPostedAt renders t relative to now. Beyond a week it falls back to an
// absolute date. A nil time renders as "".
func FormatPostedAt(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}

	diff := now.Sub(*t)
	seconds := int64(diff / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case seconds < 60:
		return "Just now"
	case minutes < 60:
		return plural(minutes, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	case days < 7:
		return plural(days, "day") + " ago"
	}
	return t.In(now.Location()).Format(absoluteDateLayout)
}

// FormatAbsolute renders a full timestamp, or the placeholder when unset.
func FormatAbsolute(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(absoluteTimeLayout)
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatSalary trims the free-text salary. It returns "" when there is none.
func FormatSalary(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Initials returns up to two upper-case letters for an avatar.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "?"
	}
	if len(parts) == 1 {
		r := []rune(parts[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	}
	first, _ := utf8.DecodeRuneInString(parts[0])
	last, _ := utf8.DecodeRuneInString(parts[len(parts)-1])
	return strings.ToUpper(string([]rune{first, last}))
}

// Summarise collapses whitespace and cuts long text to a card-sized teaser.
func Summarise(s string) string {
	text := strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(text) <= summaryMaxRunes {
		return text
	}
	r := []rune(text)
	return string(r[:summaryCutRunes]) + "..."
}

var commonSecondLevel = map[string]struct{}{
	"co": {}, "com": {}, "gov": {}, "ac": {}, "edu": {}, "org": {}, "net": {},
}

// DomainFromURL reduces a URL to its registrable domain:
//
//	https://www.jobs.example.co.uk/post/1 -> example.co.uk
//	careers.acme.com                      -> acme.com
//
// It returns "" when nothing host-like can be parsed.
func DomainFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	host := hostOf(raw)
	if host == "" {
		host = hostOf("https://" + raw)
	}
	if host == "" {
		return ""
	}

	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	var parts []string
	for _, p := range strings.Split(host, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) <= 2 {
		return host
	}

	last := parts[len(parts)-1]
	second := parts[len(parts)-2]
	if len(last) == 2 {
		if _, ok := commonSecondLevel[second]; ok || len(second) <= 3 {
			return parts[len(parts)-3] + "." + second + "." + last
		}
	}
	return second + "." + last
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// DetailHref is the dashboard route of a single listing.
func DetailHref(id string) string {
	return "/dashboard/jobs/" + url.PathEscape(id)
}
