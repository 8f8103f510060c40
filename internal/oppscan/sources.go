// Package oppscan holds the data-source catalogue behind the opportunity scan
// wizard and the cost / reliability estimate shown before a scan is launched.
package oppscan

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DataSource is one provider a scan can pull targets from
type DataSource struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	CostPerScan decimal.Decimal `json:"costPerScan"`
	Reliability float64         `json:"reliability"`
	Coverage    int             `json:"coverage"` // companies indexed
}

func usd(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Catalogue is the static list offered in the sources step
var Catalogue = []DataSource{
	{ID: "companies-house", Name: "Companies House", Category: "registry", CostPerScan: usd("0"), Reliability: 0.95, Coverage: 5_000_000},
	{ID: "sec-edgar", Name: "SEC EDGAR", Category: "registry", CostPerScan: usd("0"), Reliability: 0.97, Coverage: 800_000},
	{ID: "crunchbase", Name: "Crunchbase", Category: "funding", CostPerScan: usd("49.00"), Reliability: 0.85, Coverage: 2_000_000},
	{ID: "pitchbook", Name: "PitchBook", Category: "funding", CostPerScan: usd("129.00"), Reliability: 0.92, Coverage: 3_500_000},
	{ID: "linkedin", Name: "LinkedIn Company Pages", Category: "firmographics", CostPerScan: usd("79.50"), Reliability: 0.8, Coverage: 58_000_000},
	{ID: "builtwith", Name: "BuiltWith", Category: "technographics", CostPerScan: usd("29.99"), Reliability: 0.75, Coverage: 670_000_000},
	{ID: "similarweb", Name: "Similarweb", Category: "market-presence", CostPerScan: usd("59.00"), Reliability: 0.7, Coverage: 100_000_000},
	{ID: "web-crawl", Name: "Website Enrichment", Category: "market-presence", CostPerScan: usd("4.25"), Reliability: 0.6, Coverage: 0},
}

// Lookup finds a source by id
func Lookup(id string) (DataSource, bool) {
	for _, s := range Catalogue {
		if s.ID == id {
			return s, true
		}
	}
	return DataSource{}, false
}

// Estimate summarises a selection of sources
type Estimate struct {
	Sources                     []DataSource    `json:"sources"`
	UnknownIDs                  []string        `json:"unknownIds,omitempty"`
	TotalCost                   decimal.Decimal `json:"totalCost"`
	AverageReliability          float64         `json:"averageReliability"`
	CoverageWeightedReliability float64         `json:"coverageWeightedReliability"`
	Categories                  []string        `json:"categories"`
}

// Aggregate reduces the selected source ids into a cost / reliability
// estimate. Duplicate ids are counted once; unknown ids are reported back.
func Aggregate(selectedIDs []string) Estimate {
	est := Estimate{
		Sources:    []DataSource{},
		TotalCost:  decimal.Zero,
		Categories: []string{},
	}

	seen := make(map[string]bool, len(selectedIDs))
	categories := make(map[string]bool)
	var reliabilitySum, weightedSum float64
	var coverageSum int

	for _, id := range selectedIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		src, ok := Lookup(id)
		if !ok {
			est.UnknownIDs = append(est.UnknownIDs, id)
			continue
		}

		est.Sources = append(est.Sources, src)
		est.TotalCost = est.TotalCost.Add(src.CostPerScan)
		reliabilitySum += src.Reliability
		weightedSum += src.Reliability * float64(src.Coverage)
		coverageSum += src.Coverage
		categories[src.Category] = true
	}

	if n := len(est.Sources); n > 0 {
		est.AverageReliability = reliabilitySum / float64(n)
	}
	if coverageSum > 0 {
		est.CoverageWeightedReliability = weightedSum / float64(coverageSum)
	} else {
		est.CoverageWeightedReliability = est.AverageReliability
	}

	for c := range categories {
		est.Categories = append(est.Categories, c)
	}
	sort.Strings(est.Categories)

	return est
}
