package ml

import (
	"strings"
	"time"
)

// Direction values for political bias.
const (
	DirectionProGovernment = "pro_government"
	DirectionProOpposition = "pro_opposition"
	DirectionNeutral       = "neutral"
)

// Component weights of the final bias score.
const (
	weightKeyword          = 0.6
	weightSourcePattern    = 0.1
	weightLanguagePatterns = 0.1
	weightSentimentContext = 0.2
)

var informalCues = []string{
	"netizens", "viral", "trending", "bashers", "umano", "diumano",
	"chika", "kuno",
}

var formalCues = []string{
	"announced", "stated", "according to", "pursuant to", "in a statement",
	"issued a statement",
}

// AnalysisComponents is the component breakdown persisted in
// model_metadata.
type AnalysisComponents struct {
	KeywordScore     float64 `json:"keyword_score"`
	SourcePattern    float64 `json:"source_pattern"`
	LanguagePatterns float64 `json:"language_patterns"`
	SentimentContext float64 `json:"sentiment_context"`
	Version          string  `json:"version"`
}

// PoliticalResult is the outcome of one political-bias analysis.
type PoliticalResult struct {
	BiasScore        float64            `json:"bias_score"` // Magnitude in [0,1]
	Direction        string             `json:"direction"`
	Confidence       float64            `json:"confidence"` // In [0,1]
	KeywordMatches   map[string]int     `json:"keyword_matches"` // Only categories that matched
	Components       AnalysisComponents `json:"analysis_components"`
	ProcessingTimeMS int64              `json:"processing_time_ms"`
}

// Metadata renders the persisted model_metadata record.
func (r PoliticalResult) Metadata() map[string]any {
	return map[string]any{
		"direction":          r.Direction,
		"keyword_matches":    r.KeywordMatches,
		"processing_time_ms": r.ProcessingTimeMS,
		"analysis_components": map[string]any{
			"keyword_score":     r.Components.KeywordScore,
			"source_pattern":    r.Components.SourcePattern,
			"language_patterns": r.Components.LanguagePatterns,
			"sentiment_context": r.Components.SentimentContext,
			"version":           r.Components.Version,
		},
	}
}

// PoliticalAnalyzer scores text against the loaded lexicon. The loader is
// shared process state; each Analyze call works on one snapshot.
type PoliticalAnalyzer struct {
	loader    *Loader
	sentiment *SentimentEngine
}

// NewPoliticalAnalyzer wires the analyzer to its lexicon loader and the
// sentiment engine used for the sentiment-context component.
func NewPoliticalAnalyzer(loader *Loader, sentiment *SentimentEngine) *PoliticalAnalyzer {
	return &PoliticalAnalyzer{loader: loader, sentiment: sentiment}
}

// Analyze computes the bias score, direction, and confidence for a text.
func (a *PoliticalAnalyzer) Analyze(text string) PoliticalResult {
	start := time.Now()
	snap := a.loader.Snapshot()
	lower := strings.ToLower(text)

	matches := make(map[string]int)
	var proGov, proOpp, neutral float64
	totalMatches := 0

	for name, cat := range snap.Categories {
		count := countMatches(lower, snap.matchers[name])
		if count == 0 {
			continue
		}
		matches[name] = count
		totalMatches += count

		score := float64(count) * cat.Weight
		switch {
		case strings.HasPrefix(name, "pro_gov_"):
			proGov += score
		case strings.HasPrefix(name, "pro_opp_"):
			proOpp += score
		default:
			neutral += score
		}
	}

	keywordScore := max64(proGov, proOpp) / max64(float64(totalMatches), 1)
	if keywordScore > 1 {
		keywordScore = 1
	}

	// Auxiliary components only contribute when the text is political at
	// all; otherwise a keyword-free text could exceed the neutral band.
	var sourcePattern, languagePatterns, sentimentContext float64
	if totalMatches > 0 {
		sourcePattern = 0.1

		languagePatterns = languageScore(lower)

		compound := a.sentiment.Compound(text)
		if compound > 0.3 || compound < -0.3 {
			sentimentContext = abs64(compound)
		}
	}

	biasScore := weightKeyword*keywordScore +
		weightSourcePattern*sourcePattern +
		weightLanguagePatterns*abs64(languagePatterns) +
		weightSentimentContext*sentimentContext

	direction := DirectionNeutral
	if biasScore > 0.1 {
		if proGov > proOpp {
			direction = DirectionProGovernment
		} else if proOpp > proGov {
			direction = DirectionProOpposition
		}
	}

	confidence := biasScore + float64(totalMatches)/20
	if confidence > 1 {
		confidence = 1
	}

	return PoliticalResult{
		BiasScore:      biasScore,
		Direction:      direction,
		Confidence:     confidence,
		KeywordMatches: matches,
		Components: AnalysisComponents{
			KeywordScore:     keywordScore,
			SourcePattern:    sourcePattern,
			LanguagePatterns: languagePatterns,
			SentimentContext: sentimentContext,
			Version:          snap.Version,
		},
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
}

// countMatches counts term occurrences for one category. Matched spans are
// masked so a shorter term cannot re-match inside a longer one.
func countMatches(lower string, matchers []termMatcher) int {
	work := lower
	total := 0
	for _, m := range matchers {
		if m.re != nil {
			hits := m.re.FindAllStringIndex(work, -1)
			if len(hits) > 0 {
				total += len(hits)
				work = m.re.ReplaceAllString(work, strings.Repeat("\x00", len(m.term)))
			}
			continue
		}
		if n := strings.Count(work, m.term); n > 0 {
			total += n
			work = strings.ReplaceAll(work, m.term, strings.Repeat("\x00", len(m.term)))
		}
	}
	return total
}

// languageScore compares informal and formal cue counts: informal-leaning
// text scores +0.2, formal-leaning -0.1, balanced 0.
func languageScore(lower string) float64 {
	var informal, formal int
	for _, cue := range informalCues {
		informal += strings.Count(lower, cue)
	}
	for _, cue := range formalCues {
		formal += strings.Count(lower, cue)
	}
	switch {
	case informal > formal:
		return 0.2
	case formal > informal:
		return -0.1
	default:
		return 0
	}
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
