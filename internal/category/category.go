// Package category resolves an article's canonical category from page
// signals and the URL, falling back to "General".
package category

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fallback is used when no signal resolves.
const Fallback = "General"

// canonicalCategories maps lowercase tokens to display categories.
// City slugs titlecase to themselves but are listed so URL segment
// resolution can recognize them as real categories.
var canonicalCategories = map[string]string{
	"headlines":      "Headlines",
	"news":           "News",
	"nation":         "Nation",
	"business":       "Business",
	"sports":         "Sports",
	"technology":     "Technology",
	"tech":           "Technology",
	"world":          "World",
	"entertainment":  "Entertainment",
	"lifestyle":      "Lifestyle",
	"opinion":        "Opinion",
	"cebu":           "Cebu",
	"davao":          "Davao",
	"manila":         "Manila",
	"bohol":          "Bohol",
	"pampanga":       "Pampanga",
	"baguio":         "Baguio",
	"zamboanga":      "Zamboanga",
	"iloilo":         "Iloilo",
	"tacloban":       "Tacloban",
	"general-santos": "General Santos",
}

// blacklistSegments are URL path segments that never denote a category.
var blacklistSegments = map[string]bool{
	"photo": true, "photos": true, "video": true, "videos": true,
	"about": true, "section": true, "tag": true, "author": true, "page": true,
}

var yearSegment = regexp.MustCompile(`^20\d{2}$`)

var titleCaser = cases.Title(language.English)

// Normalize maps a raw category value to its canonical display form.
// Unknown values are title-cased verbatim. Empty input yields "".
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	key := strings.ReplaceAll(strings.ToLower(raw), "_", "-")
	if canon, ok := canonicalCategories[key]; ok {
		return canon
	}
	return titleCaser.String(strings.ToLower(raw))
}

// Resolve determines (normalized, raw) for an article. Signals are tried in
// order of decreasing reliability: JSON-LD articleSection, meta tags,
// breadcrumbs, then the first allowed URL path segment. The raw value is
// returned as observed; normalized falls back to "General".
func Resolve(rawURL string, doc *goquery.Document) (string, string) {
	raw := fromStructuredData(doc)
	if raw == "" {
		raw = fromMetaTags(doc)
	}
	if raw == "" {
		raw = fromBreadcrumbs(doc)
	}
	if raw == "" {
		raw = fromURL(rawURL)
	}

	normalized := Normalize(raw)
	if normalized == "" {
		normalized = Fallback
	}
	return normalized, raw
}

// fromStructuredData extracts articleSection from embedded JSON-LD.
func fromStructuredData(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		switch section := data["articleSection"].(type) {
		case string:
			if strings.TrimSpace(section) != "" {
				found = strings.TrimSpace(section)
				return false
			}
		case []any:
			for _, v := range section {
				if str, ok := v.(string); ok && strings.TrimSpace(str) != "" {
					found = strings.TrimSpace(str)
					return false
				}
			}
		}
		return true
	})
	return found
}

// fromMetaTags checks article:section, section, and category meta tags.
func fromMetaTags(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	selectors := []string{
		`meta[property="article:section"]`,
		`meta[name="section"]`,
		`meta[name="category"]`,
	}
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

// fromBreadcrumbs checks common breadcrumb markup for a category link.
func fromBreadcrumbs(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	selectors := []string{
		"nav.breadcrumb a",
		".breadcrumb a",
		".breadcrumbs a",
		"ul.breadcrumb li a",
		"#breadcrumb a",
	}
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// fromURL returns the first path segment that is not blacklisted and maps to
// a known category. Date-based paths like /2025/09/05/... are scanned past
// the year for a known segment.
func fromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	var segments []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	for _, seg := range segments {
		if blacklistSegments[strings.ToLower(seg)] {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(seg), "_", "-")
		if _, ok := canonicalCategories[key]; ok {
			return seg
		}
	}
	if len(segments) > 0 && yearSegment.MatchString(segments[0]) {
		for _, seg := range segments {
			key := strings.ReplaceAll(strings.ToLower(seg), "_", "-")
			if _, ok := canonicalCategories[key]; ok {
				return seg
			}
		}
	}
	return ""
}
