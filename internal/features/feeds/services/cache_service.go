package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore"
	"newsmarker/internal/features/feeds/models"
)

// CachedFeedsCollection holds one document per category
const CachedFeedsCollection = "cachedFeeds"

// FeedCacheService reads and writes the per-category article caches
type FeedCacheService struct {
	store  *docstore.Store
	logger *core.Logger
}

// NewFeedCacheService creates a new cache service
func NewFeedCacheService(store *docstore.Store, logger *core.Logger) *FeedCacheService {
	return &FeedCacheService{
		store:  store,
		logger: logger,
	}
}

func (s *FeedCacheService) collection() *docstore.CollectionRef {
	return s.store.Collection(CachedFeedsCollection)
}

// WriteCycle merge-writes every category in one atomic batch, stamping
// lastFetchedAt and updatedAt with now.
func (s *FeedCacheService) WriteCycle(ctx context.Context, byCategory map[models.Category][]models.Article, now time.Time) error {
	stamp := docstore.Timestamp(now)
	batch := s.store.Batch()

	for _, category := range models.Categories {
		articles, ok := byCategory[category]
		if !ok {
			continue
		}
		if articles == nil {
			articles = []models.Article{}
		}
		batch.Set(s.collection().Doc(string(category)), models.CachedFeedDocument{
			ID:            string(category),
			Category:      category.Label(),
			Articles:      articles,
			LastFetchedAt: stamp,
			UpdatedAt:     stamp,
		}, docstore.Merge())
	}

	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to write feed cache: %w", err)
	}

	s.logger.Info("Feed cache updated", "categories", batch.Len(), "last_fetched_at", stamp)
	return nil
}

// GetCategory returns one category's cached articles. A category that
// has never been written yields an empty list.
func (s *FeedCacheService) GetCategory(ctx context.Context, category models.Category) (*models.FeedResponse, bool, error) {
	snap, err := s.collection().Doc(string(category)).Get(ctx)
	if err != nil {
		return nil, false, err
	}
	if !snap.Exists() {
		return &models.FeedResponse{Articles: []models.Article{}}, false, nil
	}

	var doc models.CachedFeedDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached feed %s: %w", category, err)
	}
	if doc.Articles == nil {
		doc.Articles = []models.Article{}
	}
	return &models.FeedResponse{Articles: doc.Articles, LastFetchedAt: doc.LastFetchedAt}, true, nil
}

// GetAll merges every cached category, drops repeated articles and sorts
// newest first. lastFetchedAt comes from the last document that has one.
func (s *FeedCacheService) GetAll(ctx context.Context) (*models.FeedResponse, error) {
	snaps, err := s.collection().Documents(ctx)
	if err != nil {
		return nil, err
	}

	var articles []models.Article
	lastFetchedAt := ""
	for _, snap := range snaps {
		var doc models.CachedFeedDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode cached feed %s: %w", snap.ID, err)
		}
		articles = append(articles, doc.Articles...)
		if doc.LastFetchedAt != "" {
			lastFetchedAt = doc.LastFetchedAt
		}
	}

	articles = Dedupe(articles)
	SortByPubDateDesc(articles)

	return &models.FeedResponse{Articles: articles, LastFetchedAt: lastFetchedAt}, nil
}

// SortByPubDateDesc orders articles newest first. Dates that cannot be
// parsed sort as the zero time; ties keep their input order.
func SortByPubDateDesc(articles []models.Article) {
	parsed := make(map[string]time.Time, len(articles))
	for _, a := range articles {
		if _, ok := parsed[a.PubDate]; !ok {
			parsed[a.PubDate] = parseDate(a.PubDate)
		}
	}
	slices.SortStableFunc(articles, func(a, b models.Article) int {
		return parsed[b.PubDate].Compare(parsed[a.PubDate])
	})
}

// dateFormats covers the RFC 822 and ISO 8601 variants seen in feeds
var dateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 2006 15:04 -0700",
	"Mon, 02 Jan 2006 15:04 MST",
	time.RFC822Z,
	time.RFC822,
	"02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// rfc822Zones fixes the offsets of the zone names RFC 822 allows. time.Parse
// only knows an abbreviation when it matches the host's local zone and
// otherwise records it at UTC.
var rfc822Zones = map[string]int{
	"UT":  0,
	"UTC": 0,
	"GMT": 0,
	"Z":   0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// parseDate returns the zero time when no known format matches
func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if strings.HasSuffix(value, " UT") {
		value += "C"
	}
	for _, format := range dateFormats {
		t, err := time.Parse(format, value)
		if err != nil {
			continue
		}
		if !strings.Contains(format, "MST") {
			return t
		}
		name, _ := t.Zone()
		if offset, ok := rfc822Zones[name]; ok {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
				time.FixedZone(name, offset))
		}
		return t
	}
	return time.Time{}
}
