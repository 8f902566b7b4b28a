// Package funds decides whether an article concerns public funds and
// extracts structured funds data for analytics. The classifier is a pure
// function of title and content; its output is recorded at insert time.
package funds

import (
	"regexp"
	"strings"
)

var moneyCues = compileTerms([]string{
	"fund", "budget", "appropriation", "allocation", "disbursement",
	"audit", "coa", "php", "billion", "million", "trillion", "peso", "pesos",
})

var publicSectorCues = compileTerms([]string{
	"dpwh", "dbm", "coa", "comelec", "dilg", "doh", "deped", "dotr",
	"senate", "house", "congress", "solon", "lawmaker", "bill",
	"malacañang", "palace", "president", "vice president", "ombudsman",
	"philippine government", "lgu", "barangay", "municipality",
	"department of public works",
})

var corruptionCues = compileTerms([]string{
	"pork", "kickback", "anomaly", "graft", "plunder", "misuse",
	"overprice", "scam", "whistleblower",
})

var sportsVeto = compileTerms([]string{
	"pba", "nba", "uaap", "ncaa", "fiba", "basketball", "volleyball",
	"football", "boxing", "athlete", "coach", "championship", "tournament",
	"olympics", "sea games", "gilas", "medalist",
})

var crimeVeto = compileTerms([]string{
	"drug bust", "buy-bust", "shabu", "riding-in-tandem", "nabbed",
	"arrested", "suspect", "homicide", "murder", "rape", "robbery",
	"carnapping", "hold-up",
})

var disasterCues = compileTerms([]string{
	"earthquake", "magnitude", "quake", "tremor", "aftershock",
	"typhoon", "storm", "flood", "flooding", "landslide",
	"volcano", "eruption", "bagyo",
})

var damageVeto = compileTerms([]string{
	"damages", "damaged", "death toll", "casualties", "destroyed",
	"wreckage", "fatalities",
})

// compileTerms builds a single case-insensitive word-boundary alternation.
// Word boundaries keep short acronyms like "coa" from matching "coach";
// an optional trailing s admits simple plurals ("millions", "kickbacks").
func compileTerms(terms []string) *regexp.Regexp {
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)s?\b`)
}

// Entity is a named entity surfaced by an NLP pipeline.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"` // ORG, MONEY, GPE, LAW, PERSON
	Confidence float64 `json:"confidence"`
}

// EntityExtractor exposes entities for the optional classifier augmentation.
type EntityExtractor interface {
	Entities(text string) []Entity
}

// Classifier decides is_funds for an article. A nil extractor yields the
// pure rule classifier; a non-nil extractor augments the rule decision with
// entity evidence.
type Classifier struct {
	extractor EntityExtractor
}

// NewClassifier returns the pure rule classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// NewAugmentedClassifier returns a classifier whose rule decision is
// checked against entity evidence from the extractor.
func NewAugmentedClassifier(extractor EntityExtractor) *Classifier {
	return &Classifier{extractor: extractor}
}

// Classify reports whether the article concerns public funds. It evaluates
// the concatenation of title and content and is deterministic.
func (c *Classifier) Classify(title, content string) bool {
	decision := classifyRules(title + "\n" + content)

	if c.extractor != nil {
		decision = c.augment(title+"\n"+content, decision)
	}
	return decision
}

// classifyRules applies the positive conjunction and the veto sets.
func classifyRules(text string) bool {
	hasMoney := moneyCues.MatchString(text)
	hasPublic := publicSectorCues.MatchString(text)
	hasCorruption := corruptionCues.MatchString(text)

	positive := hasMoney && (hasPublic || hasCorruption)
	if !positive {
		return false
	}

	// Sports, crime, and damage reports are vetoed outright.
	if sportsVeto.MatchString(text) || crimeVeto.MatchString(text) || damageVeto.MatchString(text) {
		return false
	}

	// A disaster mention only stands down when a public-sector or corruption
	// cue appears on its own, e.g. flood-control budgets.
	if disasterCues.MatchString(text) && !(hasPublic || hasCorruption) {
		return false
	}

	return true
}

// augment reconciles the rule decision with entity evidence. A confident
// entity verdict overrides the rules; a rule-positive with weak entity
// support is vetoed.
func (c *Classifier) augment(text string, ruleDecision bool) bool {
	entities := c.extractor.Entities(text)

	verdict, confidence := entityVerdict(entities)
	if confidence > 0.6 {
		return verdict
	}
	if ruleDecision && confidence < 0.5 {
		return false
	}
	return ruleDecision
}

// entityVerdict derives a funds verdict from entities: money evidence plus
// a government-looking ORG or LAW entity. Confidence is the mean entity
// confidence over the contributing labels.
func entityVerdict(entities []Entity) (bool, float64) {
	var money, gov int
	var confSum float64
	var confN int

	for _, e := range entities {
		switch e.Label {
		case "MONEY":
			money++
			confSum += e.Confidence
			confN++
		case "ORG", "LAW":
			if publicSectorCues.MatchString(e.Text) {
				gov++
				confSum += e.Confidence
				confN++
			}
		}
	}

	if confN == 0 {
		return false, 0
	}
	return money > 0 && gov > 0, confSum / float64(confN)
}
