package ml

import "testing"

func newTestAnalyzer(t *testing.T) *PoliticalAnalyzer {
	t.Helper()
	loader, err := NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return NewPoliticalAnalyzer(loader, NewSentimentEngine())
}

func TestAnalyzeProGovernment(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Analyze("The Marcos administration announced a successful launch of the program.")

	if result.Direction != DirectionProGovernment {
		t.Errorf("Direction = %q, want %q", result.Direction, DirectionProGovernment)
	}
	if result.KeywordMatches["pro_gov_current_admin"] != 1 {
		t.Errorf("pro_gov_current_admin = %d, want 1", result.KeywordMatches["pro_gov_current_admin"])
	}
	if result.KeywordMatches["pro_gov_positive_terms"] != 1 {
		t.Errorf("pro_gov_positive_terms = %d, want 1", result.KeywordMatches["pro_gov_positive_terms"])
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Errorf("Confidence = %v, want in (0,1]", result.Confidence)
	}
	if result.BiasScore <= 0.1 {
		t.Errorf("BiasScore = %v, want > 0.1 for a directional result", result.BiasScore)
	}
}

func TestAnalyzeProOpposition(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Analyze("Opposition leader Leni Robredo slammed the government failure during the street protest.")

	if result.Direction != DirectionProOpposition {
		t.Errorf("Direction = %q, want %q", result.Direction, DirectionProOpposition)
	}
	if result.KeywordMatches["pro_opp_leaders"] == 0 {
		t.Error("expected pro_opp_leaders matches")
	}
}

func TestAnalyzeZeroMatches(t *testing.T) {
	a := newTestAnalyzer(t)

	result := a.Analyze("The weather was pleasant across the region today.")

	if result.Direction != DirectionNeutral {
		t.Errorf("Direction = %q, want neutral", result.Direction)
	}
	if result.BiasScore > 0.1 {
		t.Errorf("BiasScore = %v, want <= 0.1 with zero matches", result.BiasScore)
	}
	if result.Confidence < 0 || result.Confidence > 0.05 {
		t.Errorf("Confidence = %v, want within [0, 0.05] with zero matches", result.Confidence)
	}
	if len(result.KeywordMatches) != 0 {
		t.Errorf("KeywordMatches = %v, want empty", result.KeywordMatches)
	}
}

func TestAnalyzeLongerTermPreferred(t *testing.T) {
	a := newTestAnalyzer(t)

	// "leni robredo" must consume the span so "robredo" does not double count.
	result := a.Analyze("Leni Robredo spoke at the forum.")

	if got := result.KeywordMatches["pro_opp_leaders"]; got != 1 {
		t.Errorf("pro_opp_leaders = %d, want 1 (longest match only)", got)
	}
}

func TestAnalyzeMetadataShape(t *testing.T) {
	a := newTestAnalyzer(t)

	meta := a.Analyze("The Marcos administration announced a successful program.").Metadata()

	for _, key := range []string{"direction", "keyword_matches", "processing_time_ms", "analysis_components"} {
		if _, ok := meta[key]; !ok {
			t.Errorf("metadata missing key %q", key)
		}
	}
	components, ok := meta["analysis_components"].(map[string]any)
	if !ok {
		t.Fatalf("analysis_components has wrong type %T", meta["analysis_components"])
	}
	for _, key := range []string{"keyword_score", "source_pattern", "language_patterns", "sentiment_context", "version"} {
		if _, ok := components[key]; !ok {
			t.Errorf("analysis_components missing key %q", key)
		}
	}
	if components["version"] != "ph_v1" {
		t.Errorf("lexicon version = %v, want ph_v1", components["version"])
	}
}

func TestDirectionConsistency(t *testing.T) {
	a := newTestAnalyzer(t)

	texts := []string{
		"The Marcos administration announced a successful program.",
		"Opposition leader Robredo criticized the cover-up.",
		"Stocks closed higher on Tuesday.",
		"The supreme court scheduled a senate hearing on ratification.",
	}

	for _, text := range texts {
		r := a.Analyze(text)
		if r.BiasScore < 0 || r.BiasScore > 1 {
			t.Errorf("BiasScore(%q) = %v, out of [0,1]", text, r.BiasScore)
		}
		if r.Direction != DirectionNeutral && r.BiasScore <= 0.1 {
			t.Errorf("directional result %q with BiasScore %v <= 0.1", r.Direction, r.BiasScore)
		}
	}
}
