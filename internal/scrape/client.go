// Package scrape collects articles from Philippine news sites. Each site
// has an adapter that discovers article URLs; a shared fetcher and
// extractor turn those URLs into normalized articles.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"

	"pheye/internal/logger"
)

// userAgents is rotated per request so a run does not present a single
// fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// FetchOptions tunes the fetcher. Delays pace consecutive requests to the
// same run; the breaker opens per source after repeated blocks.
type FetchOptions struct {
	Timeout       time.Duration
	MinDelay      time.Duration
	MaxDelay      time.Duration
	UseAdvHeaders bool
	UseHumanDelay bool
}

// Fetcher retrieves pages with rotation, pacing, and a per-source circuit
// breaker.
type Fetcher struct {
	client   *http.Client
	opts     FetchOptions
	log      *slog.Logger
	rng      *rand.Rand
	rngMu    sync.Mutex
	breakers sync.Map // source -> *gobreaker.CircuitBreaker
}

// NewFetcher builds a fetcher. Zero option fields get safe defaults.
func NewFetcher(opts FetchOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MinDelay <= 0 {
		opts.MinDelay = 12 * time.Second
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		log:    logger.Get(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// blockedError marks responses that should trip the breaker.
type blockedError struct {
	status int
	url    string
}

func (e *blockedError) Error() string {
	return fmt.Sprintf("blocked with status %d fetching %s", e.status, e.url)
}

// Document fetches a URL under the source's breaker and parses it.
func (f *Fetcher) Document(ctx context.Context, source, url string) (*goquery.Document, error) {
	body, err := f.fetch(ctx, source, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}

// fetch retrieves a URL with one transient retry round. Block statuses
// (403, 429) count against the source's breaker and are not retried
// within the request.
func (f *Fetcher) fetch(ctx context.Context, source, url string) (string, error) {
	breaker := f.breaker(source)

	var body string
	backoff := retry.WithMaxRetries(2, retry.WithJitter(500*time.Millisecond, retry.NewExponential(time.Second)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result, err := breaker.Execute(func() (any, error) {
			return f.get(ctx, url)
		})
		if err != nil {
			if _, blocked := err.(*blockedError); blocked {
				return err // breaker handles it, retrying now makes it worse
			}
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return err
			}
			return retry.RetryableError(err)
		}
		body = result.(string)
		return nil
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

// get performs one HTTP request.
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	req.Header.Set("User-Agent", f.pickUserAgent())
	if f.opts.UseAdvHeaders {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Referer", "https://www.google.com/")
		req.Header.Set("Sec-Fetch-Dest", "document")
		req.Header.Set("Sec-Fetch-Mode", "navigate")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return "", &blockedError{status: resp.StatusCode, url: url}
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(data), nil
}

// Pause sleeps a randomized interval between requests. It returns early
// on cancellation.
func (f *Fetcher) Pause(ctx context.Context) error {
	if !f.opts.UseHumanDelay {
		return nil
	}
	delay := f.opts.MinDelay
	if spread := f.opts.MaxDelay - f.opts.MinDelay; spread > 0 {
		f.rngMu.Lock()
		delay += time.Duration(f.rng.Int63n(int64(spread)))
		f.rngMu.Unlock()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *Fetcher) pickUserAgent() string {
	f.rngMu.Lock()
	defer f.rngMu.Unlock()
	return userAgents[f.rng.Intn(len(userAgents))]
}

// breaker returns the source's circuit breaker, creating it on first use.
// Three consecutive blocks open the breaker for a cooldown.
func (f *Fetcher) breaker(source string) *gobreaker.CircuitBreaker {
	if cb, ok := f.breakers.Load(source); ok {
		return cb.(*gobreaker.CircuitBreaker)
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    source,
		Timeout: 5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Warn("scrape breaker state change", "source", name, "from", from.String(), "to", to.String())
		},
	})
	actual, _ := f.breakers.LoadOrStore(source, cb)
	return actual.(*gobreaker.CircuitBreaker)
}
