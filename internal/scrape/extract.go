package scrape

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"pheye/internal/category"
	"pheye/internal/core"
)

// Extraction limits. Content is capped so one malformed page cannot
// balloon a row.
const (
	minTitleLen     = 10
	minPartLen      = 20
	maxContentParts = 15
	maxContentLen   = 15000

	// weakContentLen is the floor under which a page marked non-article
	// by og:type is rejected. Sites mislabel real articles as "website",
	// so the type alone is not disqualifying.
	weakContentLen = 200
)

// ErrNotArticle marks pages that fetched fine but are not articles
// (section fronts, galleries, video pages).
var ErrNotArticle = errors.New("page is not an article")

// boilerplateMarkers are lowercase substrings that disqualify a content
// paragraph.
var boilerplateMarkers = []string{
	"subscribe",
	"newsletter",
	"share this",
	"follow us",
	"advertisement",
	"read more",
	"related stories",
	"related articles",
	"comments",
	"copyright",
	"all rights reserved",
}

// Selectors lists fallback CSS selectors per field. Sites shuffle their
// markup; the first selector that yields usable text wins.
type Selectors struct {
	Title   []string
	Content []string
	Date    []string
}

// defaultSelectors covers the common markup across the supported sites.
var defaultSelectors = Selectors{
	Title: []string{
		"h1.article-title",
		"h1.entry-title",
		"h1.post-single__title",
		"article h1",
		"h1",
	},
	Content: []string{
		"div.article-content",
		"div.article__content",
		"div.post-single__content",
		"div.entry-content",
		"div#article-content",
		"article",
	},
	Date: []string{
		"meta[property='article:published_time']",
		"time[datetime]",
		"span.article-date",
		"div.article__date",
		"span.published-date",
	},
}

// merged returns s with empty fields filled from the defaults.
func (s Selectors) merged() Selectors {
	if len(s.Title) == 0 {
		s.Title = defaultSelectors.Title
	}
	if len(s.Content) == 0 {
		s.Content = defaultSelectors.Content
	}
	if len(s.Date) == 0 {
		s.Date = defaultSelectors.Date
	}
	return s
}

// Extract pulls a normalized article out of a fetched page. It returns
// ErrNotArticle when the page lacks a usable title or body.
func Extract(doc *goquery.Document, source, pageURL string, selectors Selectors) (core.NormalizedArticle, error) {
	selectors = selectors.merged()

	title := extractTitle(doc, selectors.Title)
	if len(title) < minTitleLen {
		return core.NormalizedArticle{}, ErrNotArticle
	}

	content := extractContent(doc, selectors.Content)
	if content == "" {
		return core.NormalizedArticle{}, ErrNotArticle
	}

	if ogType, ok := doc.Find("meta[property='og:type']").Attr("content"); ok {
		if ogType != "" && ogType != "article" && ogType != "news" && len(content) < weakContentLen {
			return core.NormalizedArticle{}, ErrNotArticle
		}
	}

	normalized, raw := category.Resolve(pageURL, doc)

	return core.NormalizedArticle{
		Source:      source,
		Title:       title,
		URL:         pageURL,
		Content:     content,
		Category:    normalized,
		RawCategory: raw,
		PublishedAt: extractDate(doc, selectors.Date),
	}, nil
}

// extractTitle walks the fallback list, then og:title, then <title>.
func extractTitle(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if title := strings.TrimSpace(doc.Find(sel).First().Text()); title != "" {
			return title
		}
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		if og = strings.TrimSpace(og); og != "" {
			return og
		}
	}
	return strings.TrimSpace(doc.Find("head title").First().Text())
}

// extractContent collects paragraph text from the first container that
// yields anything, filtering boilerplate and short fragments.
func extractContent(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}

		var parts []string
		container.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.TrimSpace(p.Text())
			if len(text) <= minPartLen || isBoilerplate(text) {
				return true
			}
			parts = append(parts, text)
			return len(parts) < maxContentParts
		})
		if len(parts) == 0 {
			continue
		}

		return truncate(strings.Join(parts, "\n\n"), maxContentLen)
	}
	return ""
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// isBoilerplate reports whether a paragraph is site chrome rather than
// article text.
func isBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// extractDate returns the first date-ish string found; parsing happens at
// store time.
func extractDate(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if content, ok := node.Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
		if datetime, ok := node.Attr("datetime"); ok && strings.TrimSpace(datetime) != "" {
			return strings.TrimSpace(datetime)
		}
		if text := strings.TrimSpace(node.Text()); text != "" {
			return text
		}
	}
	return ""
}
