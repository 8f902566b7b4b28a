// Package trends aggregates stored analysis rows into time series and
// per-source summaries for the read API.
package trends

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"pheye/internal/logger"
	"pheye/internal/ml"
	"pheye/internal/persistence"
)

// Trend direction bands. Slopes inside the stable band are noise.
const (
	directionImproving = "improving"
	directionDeclining = "declining"
	directionStable    = "stable"

	stableSlopeBand = 0.005
)

// DailyPoint is one date×source sentiment aggregate with derived rates.
type DailyPoint struct {
	Date          string  `json:"date"`
	Source        string  `json:"source"`
	AvgCompound   float64 `json:"avg_compound"`
	ArticleCount  int     `json:"article_count"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
	PositiveRate  float64 `json:"positive_rate"`
}

// SourceTrend is one source's series plus its fitted direction.
type SourceTrend struct {
	Source    string       `json:"source"`
	Points    []DailyPoint `json:"points"`
	Slope     float64      `json:"slope"`
	Direction string       `json:"direction"`
	Forecast  []float64    `json:"forecast,omitempty"`
}

// SentimentTrends is the sentiment-trends response body.
type SentimentTrends struct {
	Days        int           `json:"days"`
	GeneratedAt time.Time     `json:"generated_at"`
	Sources     []SourceTrend `json:"sources"`
}

// SourceSummary is one source's editorial profile.
type SourceSummary struct {
	Source           string  `json:"source"`
	AvgSentiment     float64 `json:"avg_sentiment"`
	SentimentLeaning string  `json:"sentiment_leaning"`
	AvgBiasScore     float64 `json:"avg_bias_score"`
	BiasLevel        string  `json:"bias_level"`
	AvgConfidence    float64 `json:"avg_confidence"`
	ArticleCount     int     `json:"article_count"`
}

// BiasSummary is the bias-summary response body.
type BiasSummary struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Sources     []SourceSummary `json:"sources"`
}

// Dashboard bundles the comprehensive view.
type Dashboard struct {
	GeneratedAt   time.Time       `json:"generated_at"`
	Days          int             `json:"days"`
	TotalArticles int             `json:"total_articles"`
	Sentiment     SentimentTrends `json:"sentiment"`
	Bias          BiasSummary     `json:"bias"`
}

// Service computes trend views from the analysis repository.
type Service struct {
	db  persistence.Database
	log *slog.Logger
}

// NewService wires the trends service.
func NewService(db persistence.Database) *Service {
	return &Service{db: db, log: logger.Get()}
}

// SentimentTrends aggregates daily sentiment per source over the window
// and fits a direction per source.
func (s *Service) SentimentTrends(ctx context.Context, days, forecastDays int) (SentimentTrends, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.db.BiasAnalyses().DailySentiment(ctx, since)
	if err != nil {
		return SentimentTrends{}, fmt.Errorf("aggregating daily sentiment: %w", err)
	}

	bySource := make(map[string][]DailyPoint)
	for _, row := range rows {
		point := DailyPoint{
			Date:          row.Date.Format("2006-01-02"),
			Source:        row.Source,
			AvgCompound:   row.AvgCompound,
			ArticleCount:  row.ArticleCount,
			PositiveCount: row.PositiveCount,
			NegativeCount: row.NegativeCount,
		}
		if row.ArticleCount > 0 {
			point.PositiveRate = float64(row.PositiveCount) / float64(row.ArticleCount)
		}
		bySource[row.Source] = append(bySource[row.Source], point)
	}

	report := SentimentTrends{Days: days, GeneratedAt: time.Now().UTC()}
	for source, points := range bySource {
		sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

		series := make([]float64, len(points))
		for i, p := range points {
			series[i] = p.AvgCompound
		}
		slope, intercept := linearFit(series)

		trend := SourceTrend{
			Source:    source,
			Points:    points,
			Slope:     slope,
			Direction: direction(slope),
		}
		if forecastDays > 0 && len(series) >= 2 {
			trend.Forecast = extrapolate(slope, intercept, len(series), forecastDays)
		}
		report.Sources = append(report.Sources, trend)
	}
	sort.Slice(report.Sources, func(i, j int) bool { return report.Sources[i].Source < report.Sources[j].Source })
	return report, nil
}

// BiasSummary profiles each source from its aggregated analysis rows.
func (s *Service) BiasSummary(ctx context.Context) (BiasSummary, error) {
	rows, err := s.db.BiasAnalyses().SourceBias(ctx)
	if err != nil {
		return BiasSummary{}, fmt.Errorf("aggregating source bias: %w", err)
	}

	summary := BiasSummary{GeneratedAt: time.Now().UTC()}
	for _, row := range rows {
		summary.Sources = append(summary.Sources, SourceSummary{
			Source:           row.Source,
			AvgSentiment:     row.AvgSentiment,
			SentimentLeaning: ml.SentimentLabel(row.AvgSentiment),
			AvgBiasScore:     row.AvgBiasScore,
			BiasLevel:        biasLevel(row.AvgBiasScore),
			AvgConfidence:    row.AvgConfidence,
			ArticleCount:     row.ArticleCount,
		})
	}
	sort.Slice(summary.Sources, func(i, j int) bool { return summary.Sources[i].Source < summary.Sources[j].Source })
	return summary, nil
}

// Dashboard assembles the comprehensive view in one call.
func (s *Service) Dashboard(ctx context.Context, days int) (Dashboard, error) {
	sentiment, err := s.SentimentTrends(ctx, days, 3)
	if err != nil {
		return Dashboard{}, err
	}
	bias, err := s.BiasSummary(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	total := 0
	for _, src := range bias.Sources {
		total += src.ArticleCount
	}
	return Dashboard{
		GeneratedAt:   time.Now().UTC(),
		Days:          sentiment.Days,
		TotalArticles: total,
		Sentiment:     sentiment,
		Bias:          bias,
	}, nil
}

// direction bands a fitted slope.
func direction(slope float64) string {
	switch {
	case slope > stableSlopeBand:
		return directionImproving
	case slope < -stableSlopeBand:
		return directionDeclining
	default:
		return directionStable
	}
}

// biasLevel bands an average bias score.
func biasLevel(score float64) string {
	switch {
	case score < 0.2:
		return "low"
	case score < 0.4:
		return "moderate"
	default:
		return "high"
	}
}

// linearFit runs least-squares over a series indexed 0..n-1. Series
// shorter than two points fit flat.
func linearFit(series []float64) (slope, intercept float64) {
	if len(series) < 2 {
		if len(series) == 1 {
			return 0, series[0]
		}
		return 0, 0
	}

	n := float64(len(series))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// extrapolate projects the fitted line forward, clamped to the compound
// range.
func extrapolate(slope, intercept float64, n, days int) []float64 {
	out := make([]float64, 0, days)
	for i := 0; i < days; i++ {
		v := intercept + slope*float64(n+i)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out = append(out, v)
	}
	return out
}
