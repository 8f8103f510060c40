package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func saasTargets() IdealTargetProfile {
	p := NewProfile("SaaS Targets")
	p.Criteria.Keywords.Include = []string{"saas"}
	p.MinMatchScore = 60
	return p
}

func TestProfile_SaaSTargetsScenario(t *testing.T) {
	p := saasTargets()

	report := p.Check()
	assert.True(t, report.Valid, "issues: %+v", report.Issues)
	assert.Equal(t, 1, report.ActiveFilters)

	withoutFilter := p
	withoutFilter.Criteria.Keywords.Include = nil

	report = withoutFilter.Check()
	assert.False(t, report.Valid)
	assert.Equal(t, 0, report.ActiveFilters)
	assert.Equal(t, []ProfileIssue{{Field: "criteria", Message: "at least one filter is required"}}, report.Issues)

	assert.Equal(t, p.Name, withoutFilter.Name)
	assert.Equal(t, p.ScoringWeights, withoutFilter.ScoringWeights)
	assert.Equal(t, p.MinMatchScore, withoutFilter.MinMatchScore)
	assert.Equal(t, []string{"saas"}, p.Criteria.Keywords.Include)
}

func TestProfile_Check(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(p *IdealTargetProfile)
		wantField string
	}{
		{"blank name", func(p *IdealTargetProfile) { p.Name = "   " }, "name"},
		{"long name", func(p *IdealTargetProfile) { p.Name = strings.Repeat("x", MaxNameLength+1) }, "name"},
		{"long description", func(p *IdealTargetProfile) { p.Description = strings.Repeat("d", MaxDescriptionLength+1) }, "description"},
		{"weight out of range", func(p *IdealTargetProfile) { p.ScoringWeights = SetWeight(p.ScoringWeights, CategorySize, 1.5) }, "scoringWeights"},
		{"unknown category", func(p *IdealTargetProfile) { p.ScoringWeights = SetWeight(p.ScoringWeights, "vibes", 0) }, "scoringWeights.vibes"},
		{"score below zero", func(p *IdealTargetProfile) { p.MinMatchScore = -1 }, "minMatchScore"},
		{"score above 100", func(p *IdealTargetProfile) { p.MinMatchScore = 101 }, "minMatchScore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := saasTargets()
			tt.mutate(&p)

			report := p.Check()
			assert.False(t, report.Valid)
			if assert.Len(t, report.Issues, 1) {
				assert.Equal(t, tt.wantField, report.Issues[0].Field)
			}
		})
	}
}

func TestProfile_UnnormalizedWeightsStillValid(t *testing.T) {
	p := saasTargets()
	p.ScoringWeights = SetWeight(p.ScoringWeights, CategorySize, 0.9)

	report := p.Check()
	assert.True(t, report.Valid)
	assert.True(t, report.Weights.NeedsNormalization)
}

func TestProfile_BoundaryValues(t *testing.T) {
	p := saasTargets()
	p.Name = strings.Repeat("é", MaxNameLength)
	p.MinMatchScore = 100
	assert.True(t, p.IsValid())

	p.MinMatchScore = 0
	assert.True(t, p.IsValid())
}

func TestRequestProfile(t *testing.T) {
	p := RequestProfile()
	assert.Equal(t, DefaultMinMatchScore, p.MinMatchScore)
	assert.Nil(t, p.ScoringWeights)
	assert.True(t, p.IsActive)
}
