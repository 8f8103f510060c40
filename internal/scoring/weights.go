package scoring

import (
	"math"
	"sort"
)

// Category identifies one dimension of the match score
type Category string

const (
	CategoryFirmographics  Category = "firmographics"
	CategorySize           Category = "size"
	CategoryGrowth         Category = "growth"
	CategoryFunding        Category = "funding"
	CategoryMarketPresence Category = "marketPresence"
	CategoryWorkflow       Category = "workflow"
)

// Categories lists the weighted categories in display order
var Categories = []Category{
	CategoryFirmographics,
	CategorySize,
	CategoryGrowth,
	CategoryFunding,
	CategoryMarketPresence,
	CategoryWorkflow,
}

// SumTolerance is how far the weight sum may drift from 1.0 before the
// vector is flagged for normalization.
const SumTolerance = 0.01

// WeightStep is the granularity of the weight slider in the ITP builder
const WeightStep = 0.05

// ScoringWeights maps a category to its share of the final match score.
// Values are stored as given; callers own clamping.
type ScoringWeights map[Category]float64

// DefaultWeights returns the documented default vector. It sums to 1.0.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		CategoryFirmographics:  0.2,
		CategorySize:           0.2,
		CategoryGrowth:         0.2,
		CategoryFunding:        0.15,
		CategoryMarketPresence: 0.15,
		CategoryWorkflow:       0.1,
	}
}

// Reset discards the current vector in favour of the defaults
func Reset() ScoringWeights {
	return DefaultWeights()
}

// IsKnownCategory reports whether c is one of the weighted categories
func IsKnownCategory(c Category) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Sum adds up every present weight. Keys are summed in sorted order with
// compensated summation so the default vector sums to exactly 1.0.
func (w ScoringWeights) Sum() float64 {
	values := make([]float64, 0, len(w))
	for _, k := range w.keys() {
		values = append(values, w[k])
	}
	return compensatedSum(values)
}

// compensatedSum is Neumaier's variant of Kahan summation
func compensatedSum(values []float64) float64 {
	sum, c := 0.0, 0.0
	for _, v := range values {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			c += (sum - t) + v
		} else {
			c += (v - t) + sum
		}
		sum = t
	}
	return sum + c
}

func (w ScoringWeights) keys() []Category {
	keys := make([]Category, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns an independent copy
func (w ScoringWeights) Clone() ScoringWeights {
	out := make(ScoringWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Validate fails only when a value is outside [0,1] (or NaN). The sum is a
// soft constraint reported through NeedsNormalization.
func Validate(w ScoringWeights) bool {
	for _, v := range w {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// NeedsNormalization reports a sum outside 1 ± SumTolerance
func NeedsNormalization(w ScoringWeights) bool {
	return math.Abs(w.Sum()-1.0) > SumTolerance
}

// Normalize rescales the vector so it sums to 1.0. A zero sum returns the
// input unchanged.
func Normalize(w ScoringWeights) ScoringWeights {
	sum := w.Sum()
	if sum == 0 {
		return w
	}
	out := make(ScoringWeights, len(w))
	for k, v := range w {
		out[k] = v / sum
	}
	return out
}

// SetWeight returns a copy of w with category set to value. No clamping.
func SetWeight(w ScoringWeights, category Category, value float64) ScoringWeights {
	out := w.Clone()
	out[category] = value
	return out
}

// WeightedScore combines per-category sub-scores (each in [0,1]) into a single
// score. Categories without a sub-score contribute nothing.
func WeightedScore(w ScoringWeights, subScores map[Category]float64) float64 {
	terms := make([]float64, 0, len(w))
	for _, k := range w.keys() {
		if s, ok := subScores[k]; ok {
			terms = append(terms, w[k]*s)
		}
	}
	return compensatedSum(terms)
}

// OutOfRangeSubScores lists, sorted, the categories whose sub-score is
// outside [0,1] or NaN
func OutOfRangeSubScores(subScores map[Category]float64) []Category {
	var bad []Category
	for k, v := range subScores {
		if math.IsNaN(v) || v < 0 || v > 1 {
			bad = append(bad, k)
		}
	}
	sort.Slice(bad, func(i, j int) bool { return bad[i] < bad[j] })
	return bad
}

// WeightsReport is the validation summary returned to the ITP builder
type WeightsReport struct {
	Valid              bool    `json:"valid"`
	Sum                float64 `json:"sum"`
	NeedsNormalization bool    `json:"needsNormalization"`
}

// Report bundles the hard and soft checks for w
func Report(w ScoringWeights) WeightsReport {
	return WeightsReport{
		Valid:              Validate(w),
		Sum:                w.Sum(),
		NeedsNormalization: NeedsNormalization(w),
	}
}
