package funds

import "testing"

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name    string
		title   string
		content string
		want    bool
	}{
		{
			name:    "agency allocation is funds",
			title:   "DPWH allocates P5 billion for flood control projects",
			content: "The Department of Public Works and Highways announced the allocation for infrastructure projects in Manila.",
			want:    true,
		},
		{
			name:  "disaster damage report is not funds",
			title: "Magnitude 6 earthquake damages houses worth millions in Bohol",
			want:  false,
		},
		{
			name:  "sports contract is not funds",
			title: "PBA coach signs million-peso contract",
			want:  false,
		},
		{
			name:    "corruption cue satisfies the conjunction",
			title:   "Whistleblower alleges kickbacks in P200 million road deal",
			content: "Documents show overpriced materials.",
			want:    true,
		},
		{
			name:  "money cue alone is not funds",
			title: "Startup raises P100 million in new funding round",
			want:  false,
		},
		{
			name:  "public sector cue without money is not funds",
			title: "Senate opens inquiry into online disinformation",
			want:  false,
		},
		{
			name:  "crime veto wins over positive match",
			title: "Suspect arrested over P2 million shabu haul, DILG says",
			want:  false,
		},
		{
			name:    "empty content evaluates on title",
			title:   "COA flags P1.2 billion in unliquidated funds",
			content: "",
			want:    true,
		},
		{
			name:    "empty title evaluates on content",
			title:   "",
			content: "The DBM released the budget allocation yesterday.",
			want:    true,
		},
		{
			name:  "disaster with independent public cue stays funds",
			title: "Senate probes P10 billion flood control budget",
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.title, tt.content); got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.title, tt.content, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier()
	title := "DPWH allocates P5 billion for flood control projects"
	content := "The Department of Public Works and Highways announced the allocation."

	first := c.Classify(title, content)
	for i := 0; i < 50; i++ {
		if got := c.Classify(title, content); got != first {
			t.Fatalf("Classify not deterministic: run %d got %v, first run %v", i, got, first)
		}
	}
}

func TestAugmentedClassifier(t *testing.T) {
	c := NewAugmentedClassifier(NewRegexExtractor())

	// Confident money + agency entities confirm the rule decision.
	if !c.Classify("DPWH allocates P5 billion for flood control projects", "The Senate reviewed the allocation.") {
		t.Error("augmented classifier rejected a confident funds article")
	}

	// No entity support and no rule match stays negative.
	if c.Classify("Local band releases new album", "The group toured three cities.") {
		t.Error("augmented classifier accepted a non-funds article")
	}
}

type fixedExtractor struct {
	entities []Entity
}

func (f fixedExtractor) Entities(string) []Entity { return f.entities }

func TestAugmentedOverrides(t *testing.T) {
	// High-confidence entity verdict overrides a rule-negative decision.
	confident := NewAugmentedClassifier(fixedExtractor{entities: []Entity{
		{Text: "P3 billion", Label: "MONEY", Confidence: 0.9},
		{Text: "DPWH", Label: "ORG", Confidence: 0.9},
	}})
	if !confident.Classify("Road widening pushes through", "Work resumes next month.") {
		t.Error("confident entity verdict did not override rule decision")
	}

	// Weak entity support vetoes a rule-positive decision.
	weak := NewAugmentedClassifier(fixedExtractor{entities: []Entity{
		{Text: "P3 billion", Label: "MONEY", Confidence: 0.2},
	}})
	if weak.Classify("DPWH allocates P5 billion for road projects", "") {
		t.Error("weak entity support did not veto rule decision")
	}
}
