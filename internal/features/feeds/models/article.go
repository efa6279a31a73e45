package models

import (
	"slices"
	"strings"
)

// Category is one of the topical buckets articles are grouped and cached by
type Category string

const (
	CategoryTech     Category = "tech"
	CategoryWorld    Category = "world"
	CategoryBusiness Category = "business"
	CategoryScience  Category = "science"

	// CategoryAll is accepted by the read API only; it is never stored
	CategoryAll Category = "all"
)

// Categories lists every storable category in pipeline order
var Categories = []Category{CategoryTech, CategoryWorld, CategoryBusiness, CategoryScience}

// Valid reports whether c is a storable category
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Label returns the display label stored alongside the cached feed
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Sentiment is the tone label the categorizer assigns
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment maps anything outside the closed set to neutral
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s)
	default:
		return SentimentNeutral
	}
}

// MaxTags is the most AI tags an article may carry
const MaxTags = 3

// TagVocabulary is the closed set of AI tags
var TagVocabulary = []string{
	"AI/ML", "Cybersecurity", "Startups", "Climate", "Politics",
	"Health", "Science", "Entertainment", "Sports", "Finance", "Space", "Education",
}

// IsValidTag reports whether tag belongs to TagVocabulary
func IsValidTag(tag string) bool {
	return slices.Contains(TagVocabulary, tag)
}

// Article is the canonical record produced from any feed entry
type Article struct {
	ArticleID   string    `json:"articleId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	Source      string    `json:"source"`
	Category    Category  `json:"category"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	PubDate     string    `json:"pubDate"`
	AITags      []string  `json:"aiTags,omitempty"`
	Sentiment   Sentiment `json:"sentiment,omitempty"`
}

// Clone returns a copy that shares no memory with a
func (a Article) Clone() Article {
	if a.AITags != nil {
		a.AITags = slices.Clone(a.AITags)
	}
	return a
}

// CloneArticles deep-copies a slice of articles
func CloneArticles(articles []Article) []Article {
	if articles == nil {
		return nil
	}
	out := make([]Article, len(articles))
	for i, a := range articles {
		out[i] = a.Clone()
	}
	return out
}
