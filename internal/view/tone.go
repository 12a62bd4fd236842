package view

import (
	"strings"

	"jobdash/internal/domain/job"
)

// Tone names the colour family a badge is drawn with.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

func StatusTone(s *job.Status) Badge {
	if s == nil {
		return Badge{Label: "Untracked", Tone: ToneNeutral}
	}
	norm := strings.ToLower(string(*s))
	switch norm {
	case "applied", "interviewing":
		return Badge{Label: capitalise(norm), Tone: ToneInfo}
	case "offer":
		return Badge{Label: "Offer", Tone: ToneSuccess}
	case "rejected":
		return Badge{Label: "Rejected", Tone: ToneDanger}
	case "interested", "watching":
		return Badge{Label: capitalise(norm), Tone: ToneWarning}
	}
	return Badge{Label: string(*s), Tone: ToneNeutral}
}

func PriorityTone(p *job.Priority) Badge {
	if p == nil {
		return Badge{Label: "Unset", Tone: ToneNeutral}
	}
	switch strings.ToLower(string(*p)) {
	case "high":
		return Badge{Label: "High", Tone: ToneDanger}
	case "medium":
		return Badge{Label: "Medium", Tone: ToneWarning}
	case "low":
		return Badge{Label: "Low", Tone: ToneSuccess}
	}
	return Badge{Label: string(*p), Tone: ToneNeutral}
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}
