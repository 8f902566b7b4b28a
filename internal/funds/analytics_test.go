package funds

import (
	"math"
	"testing"
)

func TestExtract(t *testing.T) {
	a := Extract(
		"42",
		"DPWH allocates P5 billion for flood control projects",
		"The Department of Public Works and Highways announced the allocation for infrastructure projects in Manila.",
	)

	if a.PrimaryAgency != "DPWH" {
		t.Errorf("PrimaryAgency = %q, want DPWH", a.PrimaryAgency)
	}
	if math.Abs(a.TotalAmount-5_000_000_000) > 1 {
		t.Errorf("TotalAmount = %f, want 5000000000", a.TotalAmount)
	}
	if len(a.Amounts) == 0 {
		t.Error("expected at least one amount mention")
	}
	if len(a.Locations) == 0 {
		t.Error("expected Manila as a location mention")
	}
	if a.RelevanceScore < 0.7 {
		t.Errorf("RelevanceScore = %f, want >= 0.7 with agency+amount+project signals", a.RelevanceScore)
	}
}

func TestExtractAmounts(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"P5 billion released", 5_000_000_000},
		{"2.5 million pesos spent", 2_500_000},
		{"P750 thousand awarded", 750_000},
		{"1 trillion budget proposed", 1_000_000_000_000},
		{"no amounts here", 0},
	}

	for _, tt := range tests {
		a := Extract("1", tt.text, "")
		if math.Abs(a.TotalAmount-tt.want) > 1 {
			t.Errorf("Extract(%q).TotalAmount = %f, want %f", tt.text, a.TotalAmount, tt.want)
		}
	}
}

func TestPrimaryAgencyMostMentioned(t *testing.T) {
	a := Extract("1",
		"COA audit flags DPWH projects",
		"The COA report said DPWH and COA auditors disagreed on the findings.",
	)
	if a.PrimaryAgency != "COA" {
		t.Errorf("PrimaryAgency = %q, want COA (3 mentions vs 2)", a.PrimaryAgency)
	}
}

func TestAnalyzeTrends(t *testing.T) {
	list := []Analytics{
		{PrimaryAgency: "DPWH", TotalAmount: 5_000_000_000, CorruptionIndicators: []string{"graft"}},
		{PrimaryAgency: "DPWH", TotalAmount: 1_000_000_000},
		{PrimaryAgency: "DOH", TotalAmount: 2_000_000_000},
	}

	report := AnalyzeTrends(list)

	if report.TotalArticles != 3 {
		t.Errorf("TotalArticles = %d, want 3", report.TotalArticles)
	}
	if math.Abs(report.TotalFundsMentioned-8_000_000_000) > 1 {
		t.Errorf("TotalFundsMentioned = %f, want 8000000000", report.TotalFundsMentioned)
	}
	if len(report.TopAgenciesByCount) == 0 || report.TopAgenciesByCount[0].Agency != "DPWH" {
		t.Errorf("TopAgenciesByCount = %v, want DPWH first", report.TopAgenciesByCount)
	}
	if math.Abs(report.CorruptionRate-1.0/3.0) > 1e-9 {
		t.Errorf("CorruptionRate = %f, want 1/3", report.CorruptionRate)
	}
}

func TestAnalyzeTrendsEmpty(t *testing.T) {
	report := AnalyzeTrends(nil)
	if report.TotalArticles != 0 || report.TotalFundsMentioned != 0 {
		t.Errorf("empty trends report = %+v, want zeros", report)
	}
}
