package scoring

import "strings"

// CriteriaKind names one of the closed set of filter categories on an ITP
type CriteriaKind string

const (
	KindKeywords       CriteriaKind = "keywords"
	KindSimilarTargets CriteriaKind = "similarTargets"
	KindFirmographics  CriteriaKind = "firmographics"
	KindSize           CriteriaKind = "size"
	KindGrowth         CriteriaKind = "growth"
	KindMarketPresence CriteriaKind = "marketPresence"
	KindFunding        CriteriaKind = "funding"
	KindWorkflow       CriteriaKind = "workflow"
	KindCRM            CriteriaKind = "crm"
	KindOptions        CriteriaKind = "options"
)

// CriteriaKinds is every filter category in builder order
var CriteriaKinds = []CriteriaKind{
	KindKeywords,
	KindSimilarTargets,
	KindFirmographics,
	KindSize,
	KindGrowth,
	KindMarketPresence,
	KindFunding,
	KindWorkflow,
	KindCRM,
	KindOptions,
}

// Range is an optional numeric bound pair. Either side may be open.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Active is true when at least one bound is set. A min/max pair is a single filter.
func (r Range) Active() bool {
	return r.Min != nil || r.Max != nil
}

// Contains reports whether v satisfies the set bounds
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

type KeywordCriteria struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

type SimilarTargetCriteria struct {
	CompanyIDs []string `json:"companyIds,omitempty"`
}

type FirmographicCriteria struct {
	Industries  []string `json:"industries,omitempty"`
	Countries   []string `json:"countries,omitempty"`
	Ownership   []string `json:"ownership,omitempty"`
	FoundedYear Range    `json:"foundedYear"`
}

type SizeCriteria struct {
	Employees Range `json:"employees"`
	Revenue   Range `json:"revenue"`
}

type GrowthCriteria struct {
	RevenueGrowth   Range `json:"revenueGrowth"`
	HeadcountGrowth Range `json:"headcountGrowth"`
}

type MarketPresenceCriteria struct {
	WebTraffic      Range `json:"webTraffic"`
	SocialFollowers Range `json:"socialFollowers"`
	HasWebsite      bool  `json:"hasWebsite"`
}

type FundingCriteria struct {
	TotalRaised    Range    `json:"totalRaised"`
	LastRoundTypes []string `json:"lastRoundTypes,omitempty"`
	Investors      []string `json:"investors,omitempty"`
}

type WorkflowCriteria struct {
	Technologies []string `json:"technologies,omitempty"`
	HiringFor    []string `json:"hiringFor,omitempty"`
}

type CRMCriteria struct {
	ExcludeExisting bool     `json:"excludeExisting"`
	OwnerID         string   `json:"ownerId,omitempty"`
	Stages          []string `json:"stages,omitempty"`
}

// OptionCriteria holds toggles. IncludePublic defaults to true, so it only
// counts as a filter when switched off.
type OptionCriteria struct {
	IncludeAcquired bool  `json:"includeAcquired"`
	IncludePublic   *bool `json:"includePublic,omitempty"`
}

// IncludesPublic resolves the default for IncludePublic
func (o OptionCriteria) IncludesPublic() bool {
	return o.IncludePublic == nil || *o.IncludePublic
}

// Criteria is the full filter set of an Ideal Target Profile
type Criteria struct {
	Keywords       KeywordCriteria        `json:"keywords"`
	SimilarTargets SimilarTargetCriteria  `json:"similarTargets"`
	Firmographics  FirmographicCriteria   `json:"firmographics"`
	Size           SizeCriteria           `json:"size"`
	Growth         GrowthCriteria         `json:"growth"`
	MarketPresence MarketPresenceCriteria `json:"marketPresence"`
	Funding        FundingCriteria        `json:"funding"`
	Workflow       WorkflowCriteria       `json:"workflow"`
	CRM            CRMCriteria            `json:"crm"`
	Options        OptionCriteria         `json:"options"`
}

// CountActive returns the number of active filters across every category
func CountActive(c Criteria) int {
	total := 0
	for _, kind := range CriteriaKinds {
		total += c.countKind(kind)
	}
	return total
}

// CountByCategory returns the badge count for each category
func CountByCategory(c Criteria) map[CriteriaKind]int {
	counts := make(map[CriteriaKind]int, len(CriteriaKinds))
	for _, kind := range CriteriaKinds {
		counts[kind] = c.countKind(kind)
	}
	return counts
}

func (c Criteria) countKind(kind CriteriaKind) int {
	switch kind {
	case KindKeywords:
		return count(nonEmpty(c.Keywords.Include), nonEmpty(c.Keywords.Exclude))
	case KindSimilarTargets:
		return count(nonEmpty(c.SimilarTargets.CompanyIDs))
	case KindFirmographics:
		f := c.Firmographics
		return count(nonEmpty(f.Industries), nonEmpty(f.Countries), nonEmpty(f.Ownership), f.FoundedYear.Active())
	case KindSize:
		return count(c.Size.Employees.Active(), c.Size.Revenue.Active())
	case KindGrowth:
		return count(c.Growth.RevenueGrowth.Active(), c.Growth.HeadcountGrowth.Active())
	case KindMarketPresence:
		m := c.MarketPresence
		return count(m.WebTraffic.Active(), m.SocialFollowers.Active(), m.HasWebsite)
	case KindFunding:
		f := c.Funding
		return count(f.TotalRaised.Active(), nonEmpty(f.LastRoundTypes), nonEmpty(f.Investors))
	case KindWorkflow:
		return count(nonEmpty(c.Workflow.Technologies), nonEmpty(c.Workflow.HiringFor))
	case KindCRM:
		return count(c.CRM.ExcludeExisting, strings.TrimSpace(c.CRM.OwnerID) != "", nonEmpty(c.CRM.Stages))
	case KindOptions:
		return count(c.Options.IncludeAcquired, !c.Options.IncludesPublic())
	default:
		panic("scoring: unhandled criteria kind " + string(kind))
	}
}

// nonEmpty treats a list of blank strings the same as an empty list
func nonEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func count(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
