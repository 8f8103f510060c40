package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func TestCountActive_Empty(t *testing.T) {
	assert.Equal(t, 0, CountActive(Criteria{}))
}

func TestCountActive_SingleKeywordList(t *testing.T) {
	c := Criteria{Keywords: KeywordCriteria{Include: []string{"saas"}}}
	assert.Equal(t, 1, CountActive(c))
}

func TestCountActive_RangePairCountsOnce(t *testing.T) {
	tests := []struct {
		name  string
		rng   Range
		count int
	}{
		{"min only", Range{Min: ptr(10)}, 1},
		{"max only", Range{Max: ptr(500)}, 1},
		{"min and max", Range{Min: ptr(10), Max: ptr(500)}, 1},
		{"zero bound is still a bound", Range{Min: ptr(0)}, 1},
		{"neither", Range{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Criteria{Size: SizeCriteria{Employees: tt.rng}}
			assert.Equal(t, tt.count, CountActive(c))
		})
	}
}

func TestCountActive_InactiveValues(t *testing.T) {
	c := Criteria{
		Keywords:       KeywordCriteria{Include: []string{}, Exclude: []string{"  ", ""}},
		SimilarTargets: SimilarTargetCriteria{CompanyIDs: nil},
		CRM:            CRMCriteria{OwnerID: "   "},
		Options:        OptionCriteria{IncludePublic: boolPtr(true)},
	}
	assert.Equal(t, 0, CountActive(c))
}

func TestCountActive_BooleansCountWhenNotDefault(t *testing.T) {
	c := Criteria{
		MarketPresence: MarketPresenceCriteria{HasWebsite: true},
		CRM:            CRMCriteria{ExcludeExisting: true},
		Options:        OptionCriteria{IncludeAcquired: true, IncludePublic: boolPtr(false)},
	}
	assert.Equal(t, 4, CountActive(c))
}

func TestCountByCategory(t *testing.T) {
	c := Criteria{
		Keywords:      KeywordCriteria{Include: []string{"fintech"}, Exclude: []string{"crypto"}},
		Firmographics: FirmographicCriteria{Industries: []string{"Software"}, FoundedYear: Range{Min: ptr(2010), Max: ptr(2020)}},
		Size:          SizeCriteria{Employees: Range{Min: ptr(50)}, Revenue: Range{Max: ptr(5e7)}},
		Funding:       FundingCriteria{LastRoundTypes: []string{"Series A"}},
		Workflow:      WorkflowCriteria{Technologies: []string{"Salesforce"}},
	}

	counts := CountByCategory(c)
	assert.Equal(t, 2, counts[KindKeywords])
	assert.Equal(t, 2, counts[KindFirmographics])
	assert.Equal(t, 2, counts[KindSize])
	assert.Equal(t, 1, counts[KindFunding])
	assert.Equal(t, 1, counts[KindWorkflow])
	assert.Equal(t, 0, counts[KindCRM])
	assert.Len(t, counts, len(CriteriaKinds))
	assert.Equal(t, 8, CountActive(c))
}

func TestRange_Contains(t *testing.T) {
	r := Range{Min: ptr(10), Max: ptr(20)}
	assert.True(t, r.Contains(10))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(9.99))
	assert.False(t, r.Contains(20.01))
	assert.True(t, Range{}.Contains(-1e9))
}
