package category

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"tech", "Technology"},
		{"TECH", "Technology"},
		{"headlines", "Headlines"},
		{"general_santos", "General Santos"},
		{"cebu", "Cebu"},
		{"metro manila news", "Metro Manila News"},
		{"  opinion  ", "Opinion"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestResolvePriority(t *testing.T) {
	// JSON-LD beats meta tags, breadcrumbs, and the URL.
	html := `<html><head>
		<script type="application/ld+json">{"@type":"NewsArticle","articleSection":"tech"}</script>
		<meta property="article:section" content="Sports">
	</head><body>
		<nav class="breadcrumb"><a href="/opinion">Opinion</a></nav>
	</body></html>`

	normalized, raw := Resolve("https://example.com/business/story-1", docFromHTML(t, html))
	if normalized != "Technology" {
		t.Errorf("normalized = %q, want Technology", normalized)
	}
	if raw != "tech" {
		t.Errorf("raw = %q, want tech", raw)
	}
}

func TestResolveMetaTag(t *testing.T) {
	html := `<html><head><meta property="article:section" content="Nation"></head><body></body></html>`

	normalized, raw := Resolve("https://example.com/2025/09/05/story", docFromHTML(t, html))
	if normalized != "Nation" || raw != "Nation" {
		t.Errorf("Resolve = (%q, %q), want (Nation, Nation)", normalized, raw)
	}
}

func TestResolveBreadcrumb(t *testing.T) {
	html := `<html><body><div class="breadcrumbs"><a href="/sports">Sports</a></div></body></html>`

	normalized, _ := Resolve("", docFromHTML(t, html))
	if normalized != "Sports" {
		t.Errorf("normalized = %q, want Sports", normalized)
	}
}

func TestResolveFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.sunstar.com.ph/cebu/some-story", "Cebu"},
		{"https://example.com/tag/business/story", "Business"},
		{"https://example.com/2025/03/01/nation/story", "Nation"},
		{"https://example.com/photos/headlines/story", "Headlines"},
	}

	for _, tt := range tests {
		normalized, _ := Resolve(tt.url, docFromHTML(t, "<html><body></body></html>"))
		if normalized != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.url, normalized, tt.want)
		}
	}
}

func TestResolveFallback(t *testing.T) {
	normalized, raw := Resolve("https://example.com/x9z/unknown-path", docFromHTML(t, "<html></html>"))
	if normalized != "General" {
		t.Errorf("normalized = %q, want General", normalized)
	}
	if raw != "" {
		t.Errorf("raw = %q, want empty", raw)
	}
}

func TestResolveNilDocument(t *testing.T) {
	normalized, _ := Resolve("https://example.com/opinion/column", nil)
	if normalized != "Opinion" {
		t.Errorf("normalized = %q, want Opinion", normalized)
	}
}
