package funds

import "regexp"

// RegexExtractor is a lightweight entity extractor built from curated
// patterns for Philippine government coverage. It stands in for a full NLP
// pipeline behind the same EntityExtractor interface.
type RegexExtractor struct{}

// NewRegexExtractor returns the pattern-based extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

var (
	agencyEntityPattern = regexp.MustCompile(`(?i)\b(DPWH|DBM|COA|Comelec|DILG|DOH|DepEd|DOTR|Senate|House|Congress|LGU|Barangay|Province|Municipality|Malacañang|Palace|President|Vice President|Ombudsman|Philippine Government)\b`)
	moneyEntityPattern  = regexp.MustCompile(`(?i)\b(P\d+(?:\.\d+)?\s*(?:billion|million|thousand|trillion)?|\d+(?:\.\d+)?\s*(?:billion|million|thousand|trillion)\s*(?:pesos?|php)?)\b`)
	placeEntityPattern  = regexp.MustCompile(`(?i)\b(Philippines|Manila|Cebu(?:\s+City)?|Davao(?:\s+City)?|Quezon(?:\s+City)?|Makati(?:\s+City)?|Taguig(?:\s+City)?|Pasig(?:\s+City)?|Mandaluyong|Marikina|Caloocan|Pasay|Bohol|Iloilo|Baguio|Zamboanga|Tacloban)\b`)
	lawEntityPattern    = regexp.MustCompile(`(?i)\b(Republic Act(?:\s+No\.?)?\s*\d+|General Appropriations Act|House Bill\s*\d+|Senate Bill\s*\d+)\b`)
)

// Entities extracts ORG, MONEY, GPE, and LAW entities from the text.
func (x *RegexExtractor) Entities(text string) []Entity {
	if text == "" {
		return nil
	}
	var entities []Entity
	for _, m := range agencyEntityPattern.FindAllString(text, -1) {
		entities = append(entities, Entity{Text: m, Label: "ORG", Confidence: 0.8})
	}
	for _, m := range moneyEntityPattern.FindAllString(text, -1) {
		entities = append(entities, Entity{Text: m, Label: "MONEY", Confidence: 0.9})
	}
	for _, m := range placeEntityPattern.FindAllString(text, -1) {
		entities = append(entities, Entity{Text: m, Label: "GPE", Confidence: 0.7})
	}
	for _, m := range lawEntityPattern.FindAllString(text, -1) {
		entities = append(entities, Entity{Text: m, Label: "LAW", Confidence: 0.8})
	}
	return entities
}
