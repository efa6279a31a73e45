package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

// maxFeedBytes caps how much of a response body is read
const maxFeedBytes = 10 << 20

// FetcherService fetches feed sources and normalizes their entries
type FetcherService struct {
	client *http.Client
	logger *core.Logger
	config *models.FetcherConfig
	now    func() time.Time
}

// NewFetcherService creates a new fetcher service
func NewFetcherService(logger *core.Logger, config *models.FetcherConfig) *FetcherService {
	client := &http.Client{
		Timeout: config.Timeout,
	}

	return &FetcherService{
		client: client,
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// SetClock overrides the clock used for missing publish dates
func (f *FetcherService) SetClock(now func() time.Time) {
	f.now = now
}

// FetchSource returns the normalized entries of one source. Every
// failure is logged and yields an empty list.
func (f *FetcherService) FetchSource(ctx context.Context, source models.FeedSource) []models.Article {
	logger := f.logger.With("source", source.Source, "url", source.URL)

	body, err := f.download(ctx, source.URL)
	if err != nil {
		logger.Warn("Failed to fetch feed", "error", err)
		return []models.Article{}
	}

	entries, err := parseEntries(body)
	if err != nil {
		logger.Warn("Failed to parse feed", "error", err)
		return []models.Article{}
	}

	if limit := f.config.MaxEntriesPerFeed; limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	now := f.now()
	articles := make([]models.Article, 0, len(entries))
	for _, entry := range entries {
		articles = append(articles, NormalizeEntry(entry, source, now))
	}

	logger.Debug("Fetched feed", "articles", len(articles))
	return articles
}

// FetchAll fetches every source concurrently and waits for all of them
// to settle. Result i belongs to sources[i]. A positive
// MaxConcurrentFetches bounds the fan-out.
func (f *FetcherService) FetchAll(ctx context.Context, sources []models.FeedSource) [][]models.Article {
	results := make([][]models.Article, len(sources))

	var g errgroup.Group
	if f.config.MaxConcurrentFetches > 0 {
		g.SetLimit(f.config.MaxConcurrentFetches)
	}
	for i, source := range sources {
		g.Go(func() error {
			results[i] = f.FetchSource(ctx, source)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *FetcherService) download(ctx context.Context, feedURL string) ([]byte, error) {
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// parseEntries returns the item or entry elements of an RSS or Atom
// document in document order.
func parseEntries(body []byte) ([]*xmlNode, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(body)) {
	case gofeed.FeedTypeRSS, gofeed.FeedTypeAtom:
	default:
		return nil, fmt.Errorf("not an RSS or Atom document")
	}

	root, err := parseXMLTree(body)
	if err != nil {
		return nil, fmt.Errorf("malformed XML: %w", err)
	}

	switch root.name {
	case "rss":
		channel := root.child("channel")
		if channel == nil {
			return nil, fmt.Errorf("rss document has no channel")
		}
		if items := channel.childrenNamed("item"); len(items) > 0 {
			return items, nil
		}
		return channel.childrenNamed("entry"), nil
	case "feed":
		if entries := root.childrenNamed("item"); len(entries) > 0 {
			return entries, nil
		}
		return root.childrenNamed("entry"), nil
	default:
		return nil, fmt.Errorf("unsupported root element <%s>", root.name)
	}
}
