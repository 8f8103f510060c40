package wizard

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ajharbinger/dealscope/internal/oppscan"
)

const (
	StreamWizardID   = "stream"
	AnalysisWizardID = "analysis"
	OppScanWizardID  = "opp-scan"

	// MaxCompetitors caps the companies tracked by one analysis or stream
	MaxCompetitors = 10

	maxNameLength       = 100
	maxInitialCompanies = 25
)

// CompetitorInput is a competitor entered in a wizard before it exists
type CompetitorInput struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

// Valid reports whether the competitor has a name and, when given, a usable
// website
func (c CompetitorInput) Valid() bool {
	if strings.TrimSpace(c.Name) == "" {
		return false
	}
	return c.Website == "" || validWebsite(c.Website)
}

func validName(name string) bool {
	n := strings.TrimSpace(name)
	return n != "" && utf8.RuneCountInString(n) <= maxNameLength
}

func validWebsite(raw string) bool {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	return err == nil && u.Host != "" && strings.Contains(u.Host, ".")
}

// StreamData is the Stream creation form
type StreamData struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	GoalOriented   bool              `json:"goalOriented"`
	GoalTemplateID string            `json:"goalTemplateId,omitempty"`
	GoalMetric     string            `json:"goalMetric,omitempty"`
	TargetValue    *float64          `json:"targetValue,omitempty"`
	Deadline       *time.Time        `json:"deadline,omitempty"`
	Competitors    []CompetitorInput `json:"competitors,omitempty"`
	TermsAccepted  bool              `json:"termsAccepted"`
}

// StreamWizard collects a stream; goal and competitor steps only appear for
// goal-oriented streams.
var StreamWizard = Definition[StreamData]{
	ID: StreamWizardID,
	Steps: []Step[StreamData]{
		{
			ID:    "basics",
			Title: "Name your stream",
			Valid: func(d StreamData) bool { return validName(d.Name) },
		},
		{
			ID:      "goal",
			Title:   "Set a goal",
			Enabled: func(d StreamData) bool { return d.GoalOriented },
			Valid: func(d StreamData) bool {
				hasGoal := strings.TrimSpace(d.GoalTemplateID) != "" || strings.TrimSpace(d.GoalMetric) != ""
				return hasGoal && d.TargetValue != nil && *d.TargetValue > 0
			},
		},
		{
			ID:      "competitors",
			Title:   "Track competitors",
			Enabled: func(d StreamData) bool { return d.GoalOriented },
			Valid: func(d StreamData) bool {
				if len(d.Competitors) > MaxCompetitors {
					return false
				}
				for _, c := range d.Competitors {
					if !c.Valid() {
						return false
					}
				}
				return true
			},
		},
		{
			ID:    "review",
			Title: "Review and create",
			Valid: func(d StreamData) bool { return d.TermsAccepted },
		},
	},
}

// AnalysisData is the competitive analysis creation form
type AnalysisData struct {
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	TargetName    string            `json:"targetName"`
	TargetWebsite string            `json:"targetWebsite,omitempty"`
	Competitors   []CompetitorInput `json:"competitors,omitempty"`
	Dimensions    []string          `json:"dimensions,omitempty"`
	TermsAccepted bool              `json:"termsAccepted"`
}

// AnalysisWizard collects a competitive analysis and its initial competitors
var AnalysisWizard = Definition[AnalysisData]{
	ID: AnalysisWizardID,
	Steps: []Step[AnalysisData]{
		{
			ID:    "target",
			Title: "Pick the target company",
			Valid: func(d AnalysisData) bool {
				if !validName(d.Name) || strings.TrimSpace(d.TargetName) == "" {
					return false
				}
				return d.TargetWebsite == "" || validWebsite(d.TargetWebsite)
			},
		},
		{
			ID:    "competitors",
			Title: "Add competitors",
			Valid: func(d AnalysisData) bool {
				if len(d.Competitors) == 0 || len(d.Competitors) > MaxCompetitors {
					return false
				}
				for _, c := range d.Competitors {
					if !c.Valid() {
						return false
					}
				}
				return true
			},
		},
		{
			ID:    "review",
			Title: "Review and run",
			Valid: func(d AnalysisData) bool { return d.TermsAccepted },
		},
	},
}

// OppScanData is the opportunity scan form
type OppScanData struct {
	Name          string   `json:"name"`
	Industries    []string `json:"industries"`
	Countries     []string `json:"countries,omitempty"`
	SeedCompanies []string `json:"seedCompanies,omitempty"`
	SourceIDs     []string `json:"sourceIds"`
	TermsAccepted bool     `json:"termsAccepted"`
}

// OppScanWizard configures an M&A target discovery scan
var OppScanWizard = Definition[OppScanData]{
	ID: OppScanWizardID,
	Steps: []Step[OppScanData]{
		{
			ID:    "target",
			Title: "Describe the target market",
			Valid: func(d OppScanData) bool {
				return validName(d.Name) && hasNonBlank(d.Industries) && len(d.SeedCompanies) <= maxInitialCompanies
			},
		},
		{
			ID:    "sources",
			Title: "Choose data sources",
			Valid: func(d OppScanData) bool {
				est := oppscan.Aggregate(d.SourceIDs)
				return len(est.Sources) > 0 && len(est.UnknownIDs) == 0
			},
		},
		{
			ID:    "review",
			Title: "Review cost and launch",
			Valid: func(d OppScanData) bool { return d.TermsAccepted },
		},
	},
}

func hasNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
