package funds

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	agencyPattern     = regexp.MustCompile(`(?i)\b(DPWH|DBM|COA|Comelec|DILG|DOH|DepEd|DOTR|Senate|House|Congress|LGU|Barangay|Province|Municipality|Malacañang|Palace|President|Vice President|Ombudsman|Philippine Government)\b`)
	amountPattern     = regexp.MustCompile(`(?i)\b(P\d+(?:\.\d+)?\s*(?:billion|million|thousand|trillion)?|\d+(?:\.\d+)?\s*(?:billion|million|thousand|trillion)\s*(?:pesos?|php)?)\b`)
	locationPattern   = regexp.MustCompile(`(?i)\b(Philippines|Manila|Cebu(?:\s+City)?|Davao(?:\s+City)?|Quezon(?:\s+City)?|Makati(?:\s+City)?|Taguig(?:\s+City)?|Pasig(?:\s+City)?|Mandaluyong|Marikina|Caloocan|Pasay|Bohol)\b`)
	contractorPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z ]+(?:Construction|Builders|Corp|Inc|Ltd|Company|Enterprises|Development))\b`)
	projectPattern    = regexp.MustCompile(`(?i)\b(flood control|infrastructure|road|bridge|school|hospital|building|project|program|initiative|development|construction)\b`)
	corruptionPattern = regexp.MustCompile(`(?i)\b(corruption|kickback|anomaly|graft|plunder|misuse|overprice|scam|whistleblower|audit|irregularity|bidding|contract)\b`)

	numericValue = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Analytics holds the structured data extracted from one funds article.
type Analytics struct {
	ArticleID            string   `json:"article_id"`
	Agencies             []string `json:"agencies"`
	Amounts              []string `json:"amounts"`
	Locations            []string `json:"locations"`
	Contractors          []string `json:"contractors"`
	ProjectTypes         []string `json:"project_types"`
	CorruptionIndicators []string `json:"corruption_indicators"`
	TotalAmount          float64  `json:"total_amount"`   // Sum of mentioned amounts in pesos
	PrimaryAgency        string   `json:"primary_agency"` // Most mentioned agency
	RelevanceScore       float64  `json:"relevance_score"`
}

// Extract pulls agencies, amounts, locations, contractors, project types,
// and corruption indicators out of an article and computes the derived
// metrics.
func Extract(articleID, title, content string) Analytics {
	text := title + "\n" + content

	a := Analytics{
		ArticleID:            articleID,
		Agencies:             agencyPattern.FindAllString(text, -1),
		Amounts:              amountPattern.FindAllString(text, -1),
		Locations:            locationPattern.FindAllString(text, -1),
		Contractors:          contractorPattern.FindAllString(text, -1),
		ProjectTypes:         projectPattern.FindAllString(text, -1),
		CorruptionIndicators: corruptionPattern.FindAllString(text, -1),
	}

	a.TotalAmount = totalAmount(a.Amounts)
	a.PrimaryAgency = primaryAgency(a.Agencies)
	a.RelevanceScore = relevanceScore(a)
	return a
}

// totalAmount converts each amount mention to pesos and sums them.
func totalAmount(amounts []string) float64 {
	var total float64
	for _, amount := range amounts {
		lower := strings.ToLower(amount)
		num := numericValue.FindString(lower)
		if num == "" {
			continue
		}
		value, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		switch {
		case strings.Contains(lower, "trillion"):
			value *= 1_000_000_000_000
		case strings.Contains(lower, "billion"):
			value *= 1_000_000_000
		case strings.Contains(lower, "million"):
			value *= 1_000_000
		case strings.Contains(lower, "thousand"):
			value *= 1_000
		}
		total += value
	}
	return total
}

// primaryAgency returns the most mentioned agency, or "".
func primaryAgency(agencies []string) string {
	if len(agencies) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, agency := range agencies {
		counts[agency]++
	}
	var best string
	var bestCount int
	for agency, count := range counts {
		if count > bestCount || (count == bestCount && agency < best) {
			best, bestCount = agency, count
		}
	}
	return best
}

// relevanceScore weights the presence of each signal class, capped at 1.
func relevanceScore(a Analytics) float64 {
	score := 0.0
	if len(a.Agencies) > 0 {
		score += 0.3
	}
	if len(a.Amounts) > 0 {
		score += 0.4
	}
	if len(a.CorruptionIndicators) > 0 {
		score += 0.2
	}
	if len(a.ProjectTypes) > 0 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// AgencyRank pairs an agency with an aggregate value for trend reports.
type AgencyRank struct {
	Agency string  `json:"agency"`
	Value  float64 `json:"value"`
}

// TrendsReport aggregates analytics across a set of funds articles.
type TrendsReport struct {
	TotalArticles       int          `json:"total_articles"`
	TotalFundsMentioned float64      `json:"total_funds_mentioned"`
	AverageAmount       float64      `json:"average_amount_per_article"`
	TopAgenciesByCount  []AgencyRank `json:"top_agencies_by_count"`
	TopAgenciesByAmount []AgencyRank `json:"top_agencies_by_amount"`
	CorruptionRate      float64      `json:"corruption_rate"`
}

// AnalyzeTrends summarizes a batch of per-article analytics.
func AnalyzeTrends(list []Analytics) TrendsReport {
	report := TrendsReport{TotalArticles: len(list)}
	if len(list) == 0 {
		return report
	}

	agencyCounts := make(map[string]float64)
	agencyTotals := make(map[string]float64)
	corruptionArticles := 0

	for _, a := range list {
		if a.PrimaryAgency != "" {
			agencyCounts[a.PrimaryAgency]++
			agencyTotals[a.PrimaryAgency] += a.TotalAmount
		}
		report.TotalFundsMentioned += a.TotalAmount
		if len(a.CorruptionIndicators) > 0 {
			corruptionArticles++
		}
	}

	report.AverageAmount = report.TotalFundsMentioned / float64(len(list))
	report.CorruptionRate = float64(corruptionArticles) / float64(len(list))
	report.TopAgenciesByCount = rankAgencies(agencyCounts, 10)
	report.TopAgenciesByAmount = rankAgencies(agencyTotals, 10)
	return report
}

func rankAgencies(values map[string]float64, limit int) []AgencyRank {
	ranks := make([]AgencyRank, 0, len(values))
	for agency, value := range values {
		ranks = append(ranks, AgencyRank{Agency: agency, Value: value})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Value != ranks[j].Value {
			return ranks[i].Value > ranks[j].Value
		}
		return ranks[i].Agency < ranks[j].Agency
	})
	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}
