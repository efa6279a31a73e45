package models

// FeedSource is one configured RSS or Atom endpoint
type FeedSource struct {
	URL      string   `json:"url" yaml:"url" validate:"required,http_url"`
	Source   string   `json:"source" yaml:"source" validate:"required"`
	Category Category `json:"category" yaml:"category" validate:"required,oneof=tech world business science"`
}

// CachedFeedDocument is the persisted per-category article list
type CachedFeedDocument struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	Articles      []Article `json:"articles"`
	LastFetchedAt string    `json:"lastFetchedAt"`
	UpdatedAt     string    `json:"updatedAt"`
}

// FeedResponse is the payload of GET /feed
type FeedResponse struct {
	Articles      []Article `json:"articles"`
	LastFetchedAt string    `json:"lastFetchedAt"`
}

// CycleResult summarises one completed fetch cycle
type CycleResult struct {
	CycleID       string         `json:"-"`
	TotalArticles int            `json:"totalArticles"`
	Categories    []Category     `json:"categories"`
	Counts        map[string]int `json:"-"`
}
