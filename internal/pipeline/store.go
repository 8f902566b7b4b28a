// Package pipeline turns scraped articles into stored rows. It owns URL
// canonicalization, duplicate suppression, the inline is_funds decision,
// and best-effort publication date parsing.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pheye/internal/core"
	"pheye/internal/funds"
	"pheye/internal/logger"
	"pheye/internal/persistence"
	"pheye/internal/urlutil"
)

// Store persists normalized articles idempotently. Articles are keyed by
// canonical URL; re-storing the same URL is a no-op.
type Store struct {
	db         persistence.Database
	classifier *funds.Classifier
	log        *slog.Logger
}

// NewStore wires the storage stage. A nil classifier falls back to the
// pure rule classifier.
func NewStore(db persistence.Database, classifier *funds.Classifier) *Store {
	if classifier == nil {
		classifier = funds.NewClassifier()
	}
	return &Store{
		db:         db,
		classifier: classifier,
		log:        logger.Get(),
	}
}

// StoreArticles canonicalizes, deduplicates, classifies, and inserts a
// batch. Rows whose URL cannot be canonicalized are dropped and counted
// as failed. The returned result carries the IDs of newly inserted rows
// in input order.
func (s *Store) StoreArticles(ctx context.Context, articles []core.NormalizedArticle) (core.StoreResult, error) {
	var result core.StoreResult
	if len(articles) == 0 {
		return result, nil
	}

	type candidate struct {
		article core.NormalizedArticle
		url     string
	}
	var candidates []candidate
	seen := make(map[string]bool)
	for _, a := range articles {
		canonical, err := urlutil.Canonicalize(a.URL)
		if err != nil {
			result.Failed++
			s.log.Warn("dropping article with unusable URL", "url", a.URL, "error", err.Error())
			continue
		}
		if seen[canonical] {
			result.Duplicates++
			continue
		}
		seen[canonical] = true
		candidates = append(candidates, candidate{article: a, url: canonical})
	}
	if len(candidates) == 0 {
		return result, nil
	}

	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.url
	}
	existing, err := s.db.Articles().ExistingURLs(ctx, urls)
	if err != nil {
		return result, fmt.Errorf("checking existing URLs: %w", err)
	}

	var rows []core.Article
	var rowURLs []string
	for _, c := range candidates {
		if existing[c.url] {
			result.Duplicates++
			continue
		}
		rows = append(rows, s.buildRow(c.article, c.url))
		rowURLs = append(rowURLs, c.url)
	}
	if len(rows) == 0 {
		return result, nil
	}

	ids, err := s.db.Articles().InsertBatch(ctx, rows)
	if err != nil {
		return result, fmt.Errorf("inserting articles: %w", err)
	}

	// A repository that cannot surface IDs on insert still has the rows;
	// read them back by URL so downstream analysis gets a complete batch.
	if len(ids) == 0 && len(rows) > 0 {
		ids, err = s.db.Articles().IDsByURL(ctx, rowURLs)
		if err != nil {
			return result, fmt.Errorf("reading back inserted IDs: %w", err)
		}
	}

	result.InsertedIDs = ids
	result.Inserted = len(ids)
	// Rows lost to a concurrent insert of the same URL count as duplicates.
	result.Duplicates += len(rows) - len(ids)

	s.log.Info("stored article batch",
		"checked", len(articles),
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"failed", result.Failed)
	return result, nil
}

// buildRow converts one normalized article into a storable row.
func (s *Store) buildRow(a core.NormalizedArticle, canonicalURL string) core.Article {
	row := core.Article{
		Source:      strings.ToLower(strings.TrimSpace(a.Source)),
		Category:    a.Category,
		RawCategory: a.RawCategory,
		Title:       strings.TrimSpace(a.Title),
		URL:         canonicalURL,
		Content:     a.Content,
		IsFunds:     s.classifier.Classify(a.Title, a.Content),
	}
	if row.Category == "" {
		row.Category = "General"
	}
	if t := parsePublishedAt(a.PublishedAt); !t.IsZero() {
		row.PublishedAt = &t
	}
	return row
}

// publishedAtFormats covers the date shapes the supported sites emit.
var publishedAtFormats = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006 - 3:04pm",
	"January 2, 2006 - 3:04 PM",
	"January 2, 2006 3:04pm",
	"January 2, 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
}

// parsePublishedAt parses a site date string best-effort. Unparseable
// dates yield the zero time; the row is stored without a date.
func parsePublishedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, format := range publishedAtFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
