package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PoliticalModelVersion keys political_bias rows.
const PoliticalModelVersion = "political_v1"

// LexiconCategory is one weighted term set in the lexicon file.
type LexiconCategory struct {
	Weight float64  `json:"weight"`
	Terms  []string `json:"terms"`
}

// lexiconFile is the on-disk JSON shape.
type lexiconFile struct {
	Version    string                     `json:"version"`
	UpdatedAt  time.Time                  `json:"updated_at"`
	Categories map[string]LexiconCategory `json:"categories"`
}

// Snapshot is an immutable compiled lexicon. Reload builds a new Snapshot
// and swaps the pointer; analyzers holding an old snapshot finish their
// batch on consistent data.
type Snapshot struct {
	Version    string
	UpdatedAt  time.Time
	Categories map[string]LexiconCategory

	matchers map[string][]termMatcher
}

// termMatcher matches one lexicon term. Multi-word terms match as
// substrings (re is nil); single words require word boundaries.
type termMatcher struct {
	term string
	re   *regexp.Regexp
}

// CategoryNames returns the category names in sorted order.
func (s *Snapshot) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultLexicon is the embedded Philippine politics lexicon. Note that
// bare "administration" is deliberately not a term; it would count every
// procedural mention as a pro-government signal.
func defaultLexicon() lexiconFile {
	return lexiconFile{
		Version:   "ph_v1",
		UpdatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Categories: map[string]LexiconCategory{
			"pro_gov_current_admin": {
				Weight: 0.4,
				Terms: []string{
					"marcos administration", "president marcos", "bongbong marcos",
					"marcos jr", "pbbm", "bbm",
				},
			},
			"pro_gov_administration": {
				Weight: 0.3,
				Terms: []string{
					"malacañang", "malacanang", "the palace", "executive branch",
					"cabinet officials", "presidential spokesperson",
				},
			},
			"pro_gov_policies": {
				Weight: 0.2,
				Terms: []string{
					"build better more", "bagong pilipinas", "maharlika fund",
					"kadiwa", "libreng sakay",
				},
			},
			"pro_gov_positive_terms": {
				Weight: 0.1,
				Terms: []string{
					"successful", "achievement", "milestone", "landmark",
					"historic", "unprecedented growth",
				},
			},
			"pro_opp_leaders": {
				Weight: 0.4,
				Terms: []string{
					"leni robredo", "robredo", "kiko pangilinan",
					"opposition leader", "opposition senator", "makabayan bloc",
				},
			},
			"pro_opp_criticism": {
				Weight: 0.3,
				Terms: []string{
					"incompetence", "government failure", "broken promises",
					"accountability", "cover-up", "whitewash",
				},
			},
			"pro_opp_activism": {
				Weight: 0.2,
				Terms: []string{
					"people power", "mass mobilization", "street protest",
					"activists", "militant groups",
				},
			},
			"pro_opp_negative_terms": {
				Weight: 0.1,
				Terms: []string{
					"slammed", "criticized", "condemned", "denounced",
					"controversial",
				},
			},
			"neutral_institutional": {
				Weight: 0.1,
				Terms: []string{
					"supreme court", "comelec", "house of representatives",
					"senate hearing", "commission on audit",
				},
			},
			"neutral_process": {
				Weight: 0.1,
				Terms: []string{
					"plenary session", "committee report", "third reading",
					"bicameral conference", "ratification",
				},
			},
		},
	}
}

// Loader owns the process-wide lexicon state. It is safe for concurrent
// use; readers take a snapshot, writers rebuild and swap.
type Loader struct {
	path    string
	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
}

// NewLoader builds a loader. When path is empty the embedded default
// lexicon is used; otherwise the file is loaded on first use and on Reload.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Snapshot returns the current immutable lexicon snapshot.
func (l *Loader) Snapshot() *Snapshot {
	return l.current.Load()
}

// Reload rebuilds the snapshot from the lexicon file (or the embedded
// default) and atomically replaces the current one.
func (l *Loader) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file := defaultLexicon()
	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return fmt.Errorf("reading lexicon %s: %w", l.path, err)
		}
		// Unmarshal into a zero value; decoding over the default would
		// merge category maps instead of replacing them.
		file = lexiconFile{}
		if err := json.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parsing lexicon %s: %w", l.path, err)
		}
	}

	l.current.Store(compile(file))
	return nil
}

// SuggestionReport describes the outcome of a suggestion merge.
type SuggestionReport struct {
	Category      string   `json:"category"`
	ExistingCount int      `json:"existing_count"`
	SuggestedCount int     `json:"suggested_count"`
	NewTerms      []string `json:"new_terms"`
	NewTotal      int      `json:"new_total_if_applied"`
	Applied       bool     `json:"applied"`
}

// ApplySuggestions merges mined terms into one category. With apply=false
// it only reports what would change. With apply=true it builds a new
// snapshot, swaps it in, and persists the file when the loader is
// file-backed.
func (l *Loader) ApplySuggestions(category string, suggestions []string, apply bool) (SuggestionReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := l.current.Load()
	existing, ok := snap.Categories[category]
	if !ok {
		return SuggestionReport{}, fmt.Errorf("unknown lexicon category %q", category)
	}

	existingSet := make(map[string]bool, len(existing.Terms))
	for _, t := range existing.Terms {
		existingSet[strings.ToLower(strings.TrimSpace(t))] = true
	}

	var newTerms []string
	seen := make(map[string]bool)
	for _, t := range suggestions {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || existingSet[t] || seen[t] {
			continue
		}
		seen[t] = true
		newTerms = append(newTerms, t)
	}
	sort.Strings(newTerms)

	report := SuggestionReport{
		Category:       category,
		ExistingCount:  len(existing.Terms),
		SuggestedCount: len(seen),
		NewTerms:       newTerms,
		NewTotal:       len(existing.Terms) + len(newTerms),
	}

	if !apply || len(newTerms) == 0 {
		return report, nil
	}

	// Copy-on-write: rebuild the category map, never mutate the snapshot.
	categories := make(map[string]LexiconCategory, len(snap.Categories))
	for name, cat := range snap.Categories {
		categories[name] = cat
	}
	merged := append(append([]string{}, existing.Terms...), newTerms...)
	sort.Slice(merged, func(i, j int) bool {
		return strings.ToLower(merged[i]) < strings.ToLower(merged[j])
	})
	categories[category] = LexiconCategory{Weight: existing.Weight, Terms: merged}

	file := lexiconFile{
		Version:    snap.Version,
		UpdatedAt:  time.Now().UTC(),
		Categories: categories,
	}

	if l.path != "" {
		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return report, fmt.Errorf("encoding lexicon: %w", err)
		}
		if err := os.WriteFile(l.path, data, 0o644); err != nil {
			return report, fmt.Errorf("writing lexicon %s: %w", l.path, err)
		}
	}

	l.current.Store(compile(file))
	report.Applied = true
	return report, nil
}

// compile sorts each category's terms by descending length so longer terms
// match before their substrings, and prebuilds the matchers.
func compile(file lexiconFile) *Snapshot {
	categories := make(map[string]LexiconCategory, len(file.Categories))
	matchers := make(map[string][]termMatcher, len(file.Categories))
	for name, cat := range file.Categories {
		terms := make([]string, 0, len(cat.Terms))
		for _, t := range cat.Terms {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				terms = append(terms, t)
			}
		}
		sort.Slice(terms, func(i, j int) bool {
			if len(terms[i]) != len(terms[j]) {
				return len(terms[i]) > len(terms[j])
			}
			return terms[i] < terms[j]
		})
		categories[name] = LexiconCategory{Weight: cat.Weight, Terms: terms}

		ms := make([]termMatcher, 0, len(terms))
		for _, t := range terms {
			m := termMatcher{term: t}
			if !strings.Contains(t, " ") {
				m.re = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
			}
			ms = append(ms, m)
		}
		matchers[name] = ms
	}
	return &Snapshot{
		Version:    file.Version,
		UpdatedAt:  file.UpdatedAt,
		Categories: categories,
		matchers:   matchers,
	}
}
