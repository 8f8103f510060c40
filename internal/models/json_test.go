package models

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// API payloads use camelCase keys, the same as profiles and wizard drafts
func TestJSONKeysAreCamelCase(t *testing.T) {
	types := []interface{}{
		CompetitiveAnalysis{}, Competitor{}, MoatDimensions{}, MoatScoreSnapshot{}, AnalysisShare{},
		CreateAnalysisRequest{}, CompetitorRequest{}, CreateShareRequest{}, OpenShareRequest{}, SubmissionResult{},
		DataRoomUpload{}, DateRange{}, UploadError{}, UploadResponse{},
		EnrichmentJob{}, CompanyMetadata{}, CreateEnrichmentRequest{},
		Stream{}, StreamGoal{}, StreamItem{}, User{},
	}
	for _, v := range types {
		typ := reflect.TypeOf(v)
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			name := strings.Split(f.Tag.Get("json"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			assert.NotContains(t, name, "_", "%s.%s", typ.Name(), f.Name)
		}
	}
}
