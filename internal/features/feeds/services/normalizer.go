package services

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"newsmarker/internal/docstore"
	"newsmarker/internal/features/feeds/models"
)

// MaxDescriptionLength bounds the stored description, in characters
const MaxDescriptionLength = 300

var (
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	entityPattern = regexp.MustCompile(`&[^;]+;`)
	imgPattern    = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
)

const mediaContent, mediaThumbnail = "media:content", "media:thumbnail"

// valueStrategy extracts a field value from one element. ok is false
// when the strategy does not apply and the next one should be tried.
type valueStrategy func(n *xmlNode) (value string, ok bool)

// plainValue matches elements that carry nothing but text
func plainValue(n *xmlNode) (string, bool) {
	if !n.isPlain() {
		return "", false
	}
	return n.innerText(), true
}

func hrefValue(n *xmlNode) (string, bool) {
	href := strings.TrimSpace(n.attr("href"))
	return href, href != ""
}

func textValue(n *xmlNode) (string, bool) {
	text := n.innerText()
	return text, text != ""
}

var (
	textStrategies = []valueStrategy{plainValue, textValue}
	linkStrategies = []valueStrategy{plainValue, hrefValue, textValue}
)

// extract runs strategies in order against the first element called name
func extract(entry *xmlNode, name string, strategies []valueStrategy) (string, bool) {
	n := entry.child(name)
	if n == nil {
		return "", false
	}
	for _, strategy := range strategies {
		if value, ok := strategy(n); ok {
			return value, true
		}
	}
	return "", false
}

// extractLink prefers the alternate link when an entry carries several
func extractLink(entry *xmlNode) string {
	links := entry.childrenNamed("link")
	if len(links) == 0 {
		return ""
	}

	chosen := links[0]
	if len(links) > 1 {
		for _, l := range links {
			if rel := l.attr("rel"); rel == "" || rel == "alternate" {
				chosen = l
				break
			}
		}
	}

	for _, strategy := range linkStrategies {
		if value, ok := strategy(chosen); ok {
			return value
		}
	}
	return ""
}

// extractTitle falls back to "Untitled" when no title text exists
func extractTitle(entry *xmlNode) string {
	if title, ok := extract(entry, "title", textStrategies); ok && title != "" {
		return title
	}
	return "Untitled"
}

// extractDescription returns the raw description markup and whether it
// was a plain string value, which is the only case scanned for images.
func extractDescription(entry *xmlNode) (raw string, plain bool) {
	if n := entry.child("description"); n != nil {
		if value, ok := plainValue(n); ok {
			return value, true
		}
		if value, ok := textValue(n); ok {
			return value, false
		}
	}
	if value, ok := extract(entry, "summary", textStrategies); ok {
		return value, false
	}
	return "", false
}

func extractImageURL(entry *xmlNode, rawDescription string, plainDescription bool) string {
	for _, name := range []string{mediaContent, mediaThumbnail} {
		for _, n := range entry.childrenNamed(name) {
			if url := strings.TrimSpace(n.attr("url")); url != "" {
				return url
			}
		}
	}

	for _, n := range entry.childrenNamed("enclosure") {
		url := strings.TrimSpace(n.attr("url"))
		if url != "" && strings.HasPrefix(n.attr("type"), "image") {
			return url
		}
	}

	if plainDescription {
		if m := imgPattern.FindStringSubmatch(rawDescription); m != nil {
			return m[1]
		}
	}
	return ""
}

func extractPubDate(entry *xmlNode, now time.Time) string {
	for _, name := range []string{"pubDate", "published", "updated"} {
		if value, ok := extract(entry, name, textStrategies); ok && value != "" {
			return value
		}
	}
	return docstore.Timestamp(now)
}

// ArticleID derives the stable article identifier from its link
func ArticleID(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

// StripHTML removes tags, replaces entity references with a space and trims
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = entityPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// NormalizeEntry converts an RSS item or Atom entry into an Article
func NormalizeEntry(entry *xmlNode, source models.FeedSource, now time.Time) models.Article {
	link := extractLink(entry)
	rawDescription, plain := extractDescription(entry)

	return models.Article{
		ArticleID:   ArticleID(link),
		Title:       StripHTML(extractTitle(entry)),
		Description: truncate(StripHTML(rawDescription), MaxDescriptionLength),
		Link:        link,
		Source:      source.Source,
		Category:    source.Category,
		ImageURL:    extractImageURL(entry, rawDescription, plain),
		PubDate:     extractPubDate(entry, now),
	}
}
