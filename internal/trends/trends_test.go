package trends

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"pheye/internal/core"
	"pheye/internal/persistence"
)

type fakeDB struct {
	daily []persistence.DailySentimentRow
	bias  []persistence.SourceBiasRow
}

func (f *fakeDB) Articles() persistence.ArticleRepository          { return nil }
func (f *fakeDB) BiasAnalyses() persistence.BiasAnalysisRepository { return &fakeAnalyses{db: f} }
func (f *fakeDB) ScrapeLogs() persistence.ScrapeLogRepository      { return nil }
func (f *fakeDB) Close() error                                     { return nil }
func (f *fakeDB) Ping(ctx context.Context) error                   { return nil }
func (f *fakeDB) BeginTx(ctx context.Context) (persistence.Transaction, error) {
	return nil, fmt.Errorf("not supported")
}

type fakeAnalyses struct {
	db *fakeDB
}

func (f *fakeAnalyses) Upsert(ctx context.Context, analysis *core.BiasAnalysis) error { return nil }
func (f *fakeAnalyses) GetByArticle(ctx context.Context, articleID string) ([]core.BiasAnalysis, error) {
	return nil, nil
}
func (f *fakeAnalyses) DailySentiment(ctx context.Context, since time.Time) ([]persistence.DailySentimentRow, error) {
	return f.db.daily, nil
}
func (f *fakeAnalyses) SourceBias(ctx context.Context) ([]persistence.SourceBiasRow, error) {
	return f.db.bias, nil
}

func day(offset int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestLinearFit(t *testing.T) {
	slope, intercept := linearFit([]float64{0.1, 0.2, 0.3, 0.4})
	if math.Abs(slope-0.1) > 1e-9 {
		t.Errorf("slope = %v, want 0.1", slope)
	}
	if math.Abs(intercept-0.1) > 1e-9 {
		t.Errorf("intercept = %v, want 0.1", intercept)
	}

	slope, intercept = linearFit([]float64{0.5})
	if slope != 0 || intercept != 0.5 {
		t.Errorf("single point fit = %v, %v", slope, intercept)
	}

	slope, intercept = linearFit(nil)
	if slope != 0 || intercept != 0 {
		t.Errorf("empty fit = %v, %v", slope, intercept)
	}
}

func TestDirectionBands(t *testing.T) {
	tests := []struct {
		slope float64
		want  string
	}{
		{0.02, directionImproving},
		{-0.02, directionDeclining},
		{0.001, directionStable},
		{-0.004, directionStable},
	}
	for _, tt := range tests {
		if got := direction(tt.slope); got != tt.want {
			t.Errorf("direction(%v) = %q, want %q", tt.slope, got, tt.want)
		}
	}
}

func TestSentimentTrends(t *testing.T) {
	db := &fakeDB{daily: []persistence.DailySentimentRow{
		{Date: day(2), Source: "rappler", AvgCompound: 0.3, ArticleCount: 4, PositiveCount: 3, NegativeCount: 0},
		{Date: day(0), Source: "rappler", AvgCompound: 0.1, ArticleCount: 2, PositiveCount: 1, NegativeCount: 1},
		{Date: day(1), Source: "rappler", AvgCompound: 0.2, ArticleCount: 3, PositiveCount: 2, NegativeCount: 1},
		{Date: day(0), Source: "gma", AvgCompound: -0.2, ArticleCount: 5, PositiveCount: 1, NegativeCount: 3},
	}}

	report, err := NewService(db).SentimentTrends(context.Background(), 7, 2)
	if err != nil {
		t.Fatalf("SentimentTrends: %v", err)
	}

	if len(report.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(report.Sources))
	}
	if report.Sources[0].Source != "gma" || report.Sources[1].Source != "rappler" {
		t.Fatalf("sources not sorted: %v, %v", report.Sources[0].Source, report.Sources[1].Source)
	}

	rappler := report.Sources[1]
	if rappler.Direction != directionImproving {
		t.Errorf("rappler direction = %q, want improving", rappler.Direction)
	}
	if len(rappler.Points) != 3 || rappler.Points[0].Date != "2025-06-01" {
		t.Errorf("points not date-sorted: %+v", rappler.Points)
	}
	if len(rappler.Forecast) != 2 {
		t.Errorf("forecast = %v, want 2 points", rappler.Forecast)
	}
	if rappler.Forecast[0] <= rappler.Points[2].AvgCompound {
		t.Errorf("forecast %v should continue the upward fit past %v", rappler.Forecast[0], rappler.Points[2].AvgCompound)
	}

	gma := report.Sources[0]
	if gma.Direction != directionStable {
		t.Errorf("gma direction = %q, want stable for a single point", gma.Direction)
	}
	if gma.Points[0].PositiveRate != 0.2 {
		t.Errorf("positive rate = %v, want 0.2", gma.Points[0].PositiveRate)
	}
}

func TestBiasSummary(t *testing.T) {
	db := &fakeDB{bias: []persistence.SourceBiasRow{
		{Source: "rappler", AvgSentiment: -0.12, AvgBiasScore: 0.28, AvgConfidence: 0.4, ArticleCount: 40},
		{Source: "gma", AvgSentiment: 0.02, AvgBiasScore: 0.1, AvgConfidence: 0.2, ArticleCount: 25},
	}}

	summary, err := NewService(db).BiasSummary(context.Background())
	if err != nil {
		t.Fatalf("BiasSummary: %v", err)
	}

	if len(summary.Sources) != 2 || summary.Sources[0].Source != "gma" {
		t.Fatalf("sources = %+v", summary.Sources)
	}
	if summary.Sources[0].BiasLevel != "low" || summary.Sources[0].SentimentLeaning != "neutral" {
		t.Errorf("gma profile = %+v", summary.Sources[0])
	}
	if summary.Sources[1].BiasLevel != "moderate" || summary.Sources[1].SentimentLeaning != "negative" {
		t.Errorf("rappler profile = %+v", summary.Sources[1])
	}
}

func TestDashboard(t *testing.T) {
	db := &fakeDB{
		daily: []persistence.DailySentimentRow{
			{Date: day(0), Source: "rappler", AvgCompound: 0.1, ArticleCount: 2, PositiveCount: 1},
		},
		bias: []persistence.SourceBiasRow{
			{Source: "rappler", AvgSentiment: 0.1, AvgBiasScore: 0.5, AvgConfidence: 0.6, ArticleCount: 12},
			{Source: "gma", AvgSentiment: 0.0, AvgBiasScore: 0.1, AvgConfidence: 0.1, ArticleCount: 8},
		},
	}

	dashboard, err := NewService(db).Dashboard(context.Background(), 7)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dashboard.TotalArticles != 20 {
		t.Errorf("TotalArticles = %d, want 20", dashboard.TotalArticles)
	}
	if len(dashboard.Bias.Sources) != 2 || len(dashboard.Sentiment.Sources) != 1 {
		t.Errorf("dashboard = %+v", dashboard)
	}
}
