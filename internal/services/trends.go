package services

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/ajharbinger/dealscope/internal/models"
)

// DefaultTrendWindow is used when the caller does not pick a window
const DefaultTrendWindow = 90 * 24 * time.Hour

// TrendPoint is one moat score observation
type TrendPoint struct {
	CapturedAt time.Time `json:"capturedAt"`
	Score      float64   `json:"score"`
}

// CompetitorTrend summarises one competitor's moat score history
type CompetitorTrend struct {
	CompetitorID uuid.UUID    `json:"competitorId"`
	Name         string       `json:"name"`
	Points       []TrendPoint `json:"points"`
	Latest       float64      `json:"latest"`
	Mean         float64      `json:"mean"`
	StdDev       float64      `json:"stdDev"`
	Min          float64      `json:"min"`
	Max          float64      `json:"max"`
	SlopePerDay  float64      `json:"slopePerDay"`
}

// TrendReport is the response of GET /api/competitive-analysis/:id/trends
type TrendReport struct {
	AnalysisID  uuid.UUID         `json:"analysisId"`
	Window      string            `json:"window"`
	Competitors []CompetitorTrend `json:"competitors"`
}

// BuildTrendReport groups snapshots by competitor and computes summary
// statistics. Competitors without snapshots are listed with no points.
func BuildTrendReport(analysisID uuid.UUID, competitors []models.Competitor, snapshots []models.MoatScoreSnapshot) *TrendReport {
	byCompetitor := make(map[uuid.UUID][]models.MoatScoreSnapshot)
	for _, snap := range snapshots {
		byCompetitor[snap.CompetitorID] = append(byCompetitor[snap.CompetitorID], snap)
	}

	report := &TrendReport{AnalysisID: analysisID, Competitors: make([]CompetitorTrend, 0, len(competitors))}
	for _, c := range competitors {
		report.Competitors = append(report.Competitors, summarise(c, byCompetitor[c.ID]))
	}
	return report
}

func summarise(c models.Competitor, snaps []models.MoatScoreSnapshot) CompetitorTrend {
	trend := CompetitorTrend{CompetitorID: c.ID, Name: c.Name, Points: []TrendPoint{}}
	if len(snaps) == 0 {
		return trend
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CapturedAt.Before(snaps[j].CapturedAt) })

	scores := make(stats.Float64Data, len(snaps))
	days := make(stats.Float64Data, len(snaps))
	origin := snaps[0].CapturedAt
	for i, s := range snaps {
		trend.Points = append(trend.Points, TrendPoint{CapturedAt: s.CapturedAt, Score: s.Score})
		scores[i] = s.Score
		days[i] = s.CapturedAt.Sub(origin).Hours() / 24
	}

	trend.Latest = scores[len(scores)-1]
	trend.Mean, _ = stats.Mean(scores)
	trend.Min, _ = stats.Min(scores)
	trend.Max, _ = stats.Max(scores)
	if len(scores) > 1 {
		trend.StdDev, _ = stats.StandardDeviationSample(scores)
		trend.SlopePerDay = slope(days, scores)
	}
	return trend
}

// slope is the least-squares gradient of y over x; zero when x has no spread
func slope(x, y stats.Float64Data) float64 {
	cov, err := stats.Covariance(x, y)
	if err != nil {
		return 0
	}
	variance, err := stats.SampleVariance(x)
	if err != nil || variance == 0 {
		return 0
	}
	return cov / variance
}
