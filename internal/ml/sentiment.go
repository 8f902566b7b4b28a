// Package ml implements the analysis stage: a lexicon-based sentiment
// engine, the political-bias analyzer with its versioned keyword lexicon,
// and the runner that persists analysis rows.
package ml

import (
	"math"
	"strings"
	"time"
)

// Sentiment model constants.
const (
	SentimentModelVersion = "sentiment_v1"
	SentimentLexiconID    = "vader_v1"
	ThresholdPositive     = 0.05
	ThresholdNegative     = -0.05
)

// normalizationAlpha maps the raw valence sum onto [-1,1].
const normalizationAlpha = 15.0

// boosterIncrement is the absolute valence adjustment for intensifiers.
const boosterIncrement = 0.293

// negationDamp scales a valence hit when a negation precedes it.
const negationDamp = -0.74

// valenceLexicon holds per-token valence in [-4,4], VADER-style. The set is
// trimmed to vocabulary that actually occurs in Philippine news coverage.
var valenceLexicon = map[string]float64{
	// positive
	"good": 1.9, "great": 3.1, "best": 3.2, "better": 1.9, "success": 2.7,
	"successful": 2.2, "win": 2.8, "wins": 2.7, "won": 2.7, "achievement": 2.4,
	"progress": 1.8, "growth": 1.9, "improve": 1.9, "improved": 2.1,
	"improvement": 1.6, "benefit": 1.9, "boost": 1.7, "gain": 1.8,
	"gains": 1.6, "strong": 2.3, "support": 1.7, "supports": 1.7,
	"peace": 2.5, "peaceful": 2.2, "safe": 1.9, "safety": 1.8,
	"help": 1.7, "helps": 1.6, "hope": 1.9, "hopeful": 2.0,
	"praise": 2.4, "praised": 2.3, "approve": 1.9, "approved": 1.8,
	"celebrate": 2.7, "celebrates": 2.6, "honor": 2.3, "honored": 2.4,
	"landmark": 1.4, "historic": 1.3, "milestone": 1.5, "recovery": 1.8,
	"thrive": 2.4, "free": 1.8, "fair": 1.8, "justice": 2.4,
	// negative
	"bad": -2.5, "worse": -2.1, "worst": -3.1, "fail": -2.5, "fails": -2.3,
	"failed": -2.3, "failure": -2.4, "crisis": -2.3, "corrupt": -3.0,
	"corruption": -2.7, "scandal": -2.2, "anomaly": -1.8, "graft": -2.5,
	"plunder": -2.9, "kickback": -2.3, "fraud": -2.8, "scam": -2.6,
	"kill": -3.4, "killed": -3.2, "killing": -3.1, "dead": -3.1,
	"death": -2.9, "deaths": -2.9, "die": -2.9, "died": -2.8,
	"attack": -2.1, "attacks": -2.0, "violence": -3.1, "violent": -2.9,
	"war": -2.9, "conflict": -1.9, "threat": -2.0, "threats": -1.9,
	"fear": -2.2, "crime": -2.5, "criminal": -2.4, "illegal": -2.2,
	"arrest": -1.4, "arrested": -1.4, "jail": -1.9, "jailed": -2.0,
	"poverty": -2.4, "poor": -2.1, "loss": -1.9, "losses": -1.8,
	"disaster": -2.6, "destroy": -2.9, "destroyed": -2.8, "damage": -2.2,
	"damages": -2.0, "damaged": -2.2, "victims": -1.9, "victim": -2.0,
	"anger": -2.2, "angry": -2.3, "protest": -1.2, "protests": -1.2,
	"slam": -1.8, "slammed": -1.9, "slams": -1.8, "criticize": -1.6,
	"criticized": -1.7, "denounce": -2.1, "denounced": -2.1,
	"controversy": -1.6, "controversial": -1.4, "problem": -1.7,
	"problems": -1.7, "struggle": -1.8, "suffer": -2.4, "suffering": -2.5,
	"shortage": -1.8, "delay": -1.3, "delays": -1.3, "deficit": -1.6,
}

// boosters intensify (+) or dampen (-) the following valence hit.
var boosters = map[string]float64{
	"very": boosterIncrement, "extremely": boosterIncrement,
	"absolutely": boosterIncrement, "completely": boosterIncrement,
	"highly": boosterIncrement, "totally": boosterIncrement,
	"remarkably": boosterIncrement, "significantly": boosterIncrement,
	"slightly": -boosterIncrement, "somewhat": -boosterIncrement,
	"barely": -boosterIncrement, "marginally": -boosterIncrement,
	"partly": -boosterIncrement,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "neither": true, "nor": true,
	"cannot": true, "without": true, "hardly": true, "don't": true,
	"doesn't": true, "didn't": true, "won't": true, "isn't": true,
	"wasn't": true, "aren't": true,
}

// SentimentResult is the outcome of one sentiment analysis.
type SentimentResult struct {
	Compound         float64        `json:"compound"` // In [-1,1]
	Label            string         `json:"label"`    // positive, neutral, negative
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	Metadata         map[string]any `json:"metadata"`
}

// SentimentEngine scores text with the embedded valence lexicon.
type SentimentEngine struct{}

// NewSentimentEngine returns the valence engine.
func NewSentimentEngine() *SentimentEngine {
	return &SentimentEngine{}
}

// Analyze computes the compound score and label for a text.
func (e *SentimentEngine) Analyze(text string) SentimentResult {
	start := time.Now()
	compound := e.Compound(text)

	return SentimentResult{
		Compound:         compound,
		Label:            SentimentLabel(compound),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		Metadata: map[string]any{
			"library":       SentimentLexiconID,
			"threshold_pos": ThresholdPositive,
			"threshold_neg": ThresholdNegative,
		},
	}
}

// Compound scores a text in [-1,1]. Each lexicon hit contributes its
// valence, adjusted for intensifiers and flipped when a negation appears in
// the three preceding tokens; the sum is normalized by alpha.
func (e *SentimentEngine) Compound(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	for i, token := range tokens {
		valence, ok := valenceLexicon[token]
		if !ok {
			continue
		}

		for j := 1; j <= 3 && i-j >= 0; j++ {
			prev := tokens[i-j]
			if boost, ok := boosters[prev]; ok && j == 1 {
				if valence > 0 {
					valence += boost
				} else {
					valence -= boost
				}
			}
			if negations[prev] {
				valence *= negationDamp
				break
			}
		}

		sum += valence
	}

	compound := sum / math.Sqrt(sum*sum+normalizationAlpha)
	if compound > 1 {
		compound = 1
	} else if compound < -1 {
		compound = -1
	}
	return compound
}

// SentimentLabel maps a compound score to its label under the ±0.05 band.
func SentimentLabel(compound float64) string {
	switch {
	case compound >= ThresholdPositive:
		return "positive"
	case compound <= ThresholdNegative:
		return "negative"
	default:
		return "neutral"
	}
}

// tokenize lowercases and splits text, trimming surrounding punctuation but
// keeping apostrophes so contractions match the negation set.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
