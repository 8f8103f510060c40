package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// MatchEngine evaluates candidate companies against an Ideal Target Profile
type MatchEngine struct {
	now func() time.Time
}

// NewMatchEngine creates a new match engine instance
func NewMatchEngine() *MatchEngine {
	return &MatchEngine{now: time.Now}
}

// TargetAttributes is the slice of company data the hard filters look at.
// Nil numbers mean the data provider had no value.
type TargetAttributes struct {
	Description     string   `json:"description,omitempty"`
	Industry        string   `json:"industry,omitempty"`
	Country         string   `json:"country,omitempty"`
	FoundedYear     *float64 `json:"foundedYear,omitempty"`
	Employees       *float64 `json:"employees,omitempty"`
	Revenue         *float64 `json:"revenue,omitempty"`
	RevenueGrowth   *float64 `json:"revenueGrowth,omitempty"`
	HeadcountGrowth *float64 `json:"headcountGrowth,omitempty"`
	WebTraffic      *float64 `json:"webTraffic,omitempty"`
	TotalRaised     *float64 `json:"totalRaised,omitempty"`
	LastRoundType   string   `json:"lastRoundType,omitempty"`
	Technologies    []string `json:"technologies,omitempty"`
	Website         string   `json:"website,omitempty"`
	Acquired        bool     `json:"acquired"`
	Public          bool     `json:"public"`
}

// Candidate is a company to be scored. SubScores are computed upstream, one
// per weighted category, each in [0,1].
type Candidate struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Attributes *TargetAttributes    `json:"attributes,omitempty"`
	SubScores  map[Category]float64 `json:"subScores"`
}

// ScoreDetail shows what one category contributed
type ScoreDetail struct {
	Weight       float64 `json:"weight"`
	SubScore     float64 `json:"subScore"`
	Contribution float64 `json:"contribution"`
}

// MatchResult represents the result of scoring a candidate
type MatchResult struct {
	CandidateID   string                   `json:"candidateId"`
	CandidateName string                   `json:"candidateName"`
	ProfileID     string                   `json:"profileId"`
	Score         float64                  `json:"score"`
	MatchPercent  int                      `json:"matchPercent"`
	Qualified     bool                     `json:"qualified"`
	FiltersPassed bool                     `json:"filtersPassed"`
	FailedFilters []string                 `json:"failedFilters,omitempty"`
	Breakdown     map[Category]ScoreDetail `json:"breakdown"`
	ScoredAt      time.Time                `json:"scoredAt"`
}

// MatchPercent turns a 0–1 weighted score into a 0–100 integer. Vectors that
// drift outside the sum tolerance are scored as if normalized.
func MatchPercent(w ScoringWeights, subScores map[Category]float64) (float64, int) {
	score := WeightedScore(effectiveWeights(w), subScores)
	return score, int(math.Round(score * 100))
}

// effectiveWeights is the vector a score is actually computed with
func effectiveWeights(w ScoringWeights) ScoringWeights {
	if NeedsNormalization(w) {
		return Normalize(w)
	}
	return w
}

// Score evaluates a single candidate. Hard filters are checked only when the
// candidate carries attributes.
func (e *MatchEngine) Score(profile IdealTargetProfile, candidate Candidate) MatchResult {
	score, percent := MatchPercent(profile.ScoringWeights, candidate.SubScores)

	result := MatchResult{
		CandidateID:   candidate.ID,
		CandidateName: candidate.Name,
		ProfileID:     profile.ID.String(),
		Score:         score,
		MatchPercent:  percent,
		FiltersPassed: true,
		Breakdown:     make(map[Category]ScoreDetail, len(profile.ScoringWeights)),
		ScoredAt:      e.now(),
	}

	// the breakdown uses the applied weights so contributions sum to Score
	for category, weight := range effectiveWeights(profile.ScoringWeights) {
		sub := candidate.SubScores[category]
		result.Breakdown[category] = ScoreDetail{
			Weight:       weight,
			SubScore:     sub,
			Contribution: weight * sub,
		}
	}

	if candidate.Attributes != nil {
		result.FailedFilters = e.failedFilters(profile.Criteria, candidate.Name, *candidate.Attributes)
		result.FiltersPassed = len(result.FailedFilters) == 0
	}

	result.Qualified = result.FiltersPassed && percent >= profile.MinMatchScore
	return result
}

// Rank scores every candidate and returns the qualified ones, best first.
// Ties are broken by name so the order is stable.
func (e *MatchEngine) Rank(profile IdealTargetProfile, candidates []Candidate) []MatchResult {
	ranked := make([]MatchResult, 0, len(candidates))
	for _, c := range candidates {
		r := e.Score(profile, c)
		if r.Qualified {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].CandidateName < ranked[j].CandidateName
	})
	return ranked
}

// failedFilters lists every active filter the candidate does not satisfy.
// Similar-target and CRM filters need data this service does not hold and
// are left to the data layer.
func (e *MatchEngine) failedFilters(c Criteria, name string, a TargetAttributes) []string {
	var failed []string
	fail := func(filter string) { failed = append(failed, filter) }

	text := strings.ToLower(name + " " + a.Description)
	if nonEmpty(c.Keywords.Include) && !containsAny(text, c.Keywords.Include) {
		fail("keywords.include")
	}
	if nonEmpty(c.Keywords.Exclude) && containsAny(text, c.Keywords.Exclude) {
		fail("keywords.exclude")
	}

	if nonEmpty(c.Firmographics.Industries) && !inList(a.Industry, c.Firmographics.Industries) {
		fail("firmographics.industries")
	}
	if nonEmpty(c.Firmographics.Countries) && !inList(a.Country, c.Firmographics.Countries) {
		fail("firmographics.countries")
	}

	ranges := []struct {
		name  string
		r     Range
		value *float64
	}{
		{"firmographics.foundedYear", c.Firmographics.FoundedYear, a.FoundedYear},
		{"size.employees", c.Size.Employees, a.Employees},
		{"size.revenue", c.Size.Revenue, a.Revenue},
		{"growth.revenueGrowth", c.Growth.RevenueGrowth, a.RevenueGrowth},
		{"growth.headcountGrowth", c.Growth.HeadcountGrowth, a.HeadcountGrowth},
		{"marketPresence.webTraffic", c.MarketPresence.WebTraffic, a.WebTraffic},
		{"funding.totalRaised", c.Funding.TotalRaised, a.TotalRaised},
	}
	for _, rc := range ranges {
		if !rc.r.Active() {
			continue
		}
		if rc.value == nil || !rc.r.Contains(*rc.value) {
			fail(rc.name)
		}
	}

	if c.MarketPresence.HasWebsite && strings.TrimSpace(a.Website) == "" {
		fail("marketPresence.hasWebsite")
	}
	if nonEmpty(c.Funding.LastRoundTypes) && !inList(a.LastRoundType, c.Funding.LastRoundTypes) {
		fail("funding.lastRoundTypes")
	}
	if nonEmpty(c.Workflow.Technologies) && !overlaps(a.Technologies, c.Workflow.Technologies) {
		fail("workflow.technologies")
	}
	if !c.Options.IncludeAcquired && a.Acquired {
		fail("options.includeAcquired")
	}
	if !c.Options.IncludesPublic() && a.Public {
		fail("options.includePublic")
	}

	return failed
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func inList(value string, list []string) bool {
	value = strings.TrimSpace(value)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) && value != "" {
			return true
		}
	}
	return false
}

func overlaps(have, want []string) bool {
	for _, h := range have {
		if inList(h, want) {
			return true
		}
	}
	return false
}

// String is used in CLI output
func (r MatchResult) String() string {
	status := "not qualified"
	if r.Qualified {
		status = "qualified"
	}
	return fmt.Sprintf("%s: %d%% (%s)", r.CandidateName, r.MatchPercent, status)
}
