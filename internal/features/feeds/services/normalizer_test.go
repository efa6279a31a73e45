package services

import (
	"strings"
	"testing"
	"time"

	"newsmarker/internal/features/feeds/models"
)

var testSource = models.FeedSource{URL: "https://example.com/rss", Source: "Example", Category: models.CategoryTech}

func mustEntries(t *testing.T, doc string) []*xmlNode {
	t.Helper()
	entries, err := parseEntries([]byte(doc))
	if err != nil {
		t.Fatalf("parseEntries failed: %v", err)
	}
	return entries
}

func rssDoc(items ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel><title>Example</title>` + strings.Join(items, "\n") + `</channel></rss>`
}

func TestArticleIDIsStable(t *testing.T) {
	link := "https://example.com/a?x=1"
	first := ArticleID(link)
	if first != ArticleID(link) {
		t.Fatal("Expected identical ids for the same link")
	}
	if len(first) != 32 {
		t.Errorf("Expected 32 hex characters, got %q", first)
	}
	if first == ArticleID("https://example.com/b") {
		t.Error("Expected different links to produce different ids")
	}
	if ArticleID("") != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("Unexpected id for empty link: %s", ArticleID(""))
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"Fish &amp; chips", "Fish   chips"},
		{"  padded  ", "padded"},
		{"<img src=\"x.png\"/>", ""},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRSSItem(t *testing.T) {
	doc := rssDoc(`<item>
  <title>Rockets &amp; &lt;b&gt;robots&lt;/b&gt;</title>
  <link>https://example.com/rockets</link>
  <description><![CDATA[<p>Launch <img src="https://img.example.com/inline.jpg"> day</p>]]></description>
  <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
</item>`)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	article := NormalizeEntry(mustEntries(t, doc)[0], testSource, now)

	if article.Link != "https://example.com/rockets" {
		t.Errorf("Unexpected link %q", article.Link)
	}
	if article.ArticleID != ArticleID(article.Link) {
		t.Error("Expected articleId derived from link")
	}
	if article.Title != "Rockets & robots" {
		t.Errorf("Unexpected title %q", article.Title)
	}
	if article.Description != "Launch  day" {
		t.Errorf("Unexpected description %q", article.Description)
	}
	if article.ImageURL != "https://img.example.com/inline.jpg" {
		t.Errorf("Expected inline image, got %q", article.ImageURL)
	}
	if article.PubDate != "Mon, 02 Jan 2006 15:04:05 GMT" {
		t.Errorf("Expected feed pubDate verbatim, got %q", article.PubDate)
	}
	if article.Source != "Example" || article.Category != models.CategoryTech {
		t.Errorf("Expected source fields copied, got %s/%s", article.Source, article.Category)
	}
	if article.AITags != nil || article.Sentiment != "" {
		t.Error("Expected no AI fields from normalization")
	}
}

func TestNormalizeAtomEntry(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom</title>
  <entry>
    <title type="html">Atom &lt;i&gt;title&lt;/i&gt;</title>
    <link rel="self" href="https://example.com/self"/>
    <link rel="alternate" href="https://example.com/atom-story"/>
    <summary>Summary text</summary>
    <published>2024-05-01T10:00:00Z</published>
    <updated>2024-05-02T10:00:00Z</updated>
  </entry>
  <entry>
    <link href="https://example.com/only"/>
    <updated>2024-05-03T10:00:00Z</updated>
  </entry>
</feed>`

	entries := mustEntries(t, doc)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := NormalizeEntry(entries[0], testSource, now)
	if first.Link != "https://example.com/atom-story" {
		t.Errorf("Expected alternate link, got %q", first.Link)
	}
	if first.Title != "Atom title" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if first.Description != "Summary text" {
		t.Errorf("Expected summary fallback, got %q", first.Description)
	}
	if first.PubDate != "2024-05-01T10:00:00Z" {
		t.Errorf("Expected published date, got %q", first.PubDate)
	}

	second := NormalizeEntry(entries[1], testSource, now)
	if second.Link != "https://example.com/only" {
		t.Errorf("Expected href link, got %q", second.Link)
	}
	if second.Title != "Untitled" {
		t.Errorf("Expected Untitled, got %q", second.Title)
	}
	if second.Description != "" {
		t.Errorf("Expected empty description, got %q", second.Description)
	}
	if second.PubDate != "2024-05-03T10:00:00Z" {
		t.Errorf("Expected updated date, got %q", second.PubDate)
	}
}

func TestNormalizeImagePrecedence(t *testing.T) {
	tests := []struct {
		name string
		item string
		want string
	}{
		{
			name: "media content first",
			item: `<item><link>https://e.com/1</link>
<enclosure url="https://e.com/enc.jpg" type="image/jpeg"/>
<media:thumbnail url="https://e.com/thumb.jpg"/>
<media:content url="https://e.com/content.jpg"/></item>`,
			want: "https://e.com/content.jpg",
		},
		{
			name: "thumbnail before enclosure",
			item: `<item><link>https://e.com/2</link>
<enclosure url="https://e.com/enc.jpg" type="image/jpeg"/>
<media:thumbnail url="https://e.com/thumb.jpg"/></item>`,
			want: "https://e.com/thumb.jpg",
		},
		{
			name: "image enclosure",
			item: `<item><link>https://e.com/3</link><enclosure url="https://e.com/enc.png" type="image/png"/></item>`,
			want: "https://e.com/enc.png",
		},
		{
			name: "audio enclosure ignored",
			item: `<item><link>https://e.com/4</link><enclosure url="https://e.com/pod.mp3" type="audio/mpeg"/>
<description>&lt;img src='https://e.com/desc.gif'&gt;</description></item>`,
			want: "https://e.com/desc.gif",
		},
		{
			name: "no image",
			item: `<item><link>https://e.com/5</link><description>Plain words</description></item>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article := NormalizeEntry(mustEntries(t, rssDoc(tt.item))[0], testSource, time.Now())
			if article.ImageURL != tt.want {
				t.Errorf("Expected image %q, got %q", tt.want, article.ImageURL)
			}
		})
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	long := strings.Repeat("é", MaxDescriptionLength+50)
	doc := rssDoc(`<item><title></title><description>` + long + `</description></item>`)

	now := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	article := NormalizeEntry(mustEntries(t, doc)[0], testSource, now)

	if article.Link != "" {
		t.Errorf("Expected empty link, got %q", article.Link)
	}
	if article.Title != "Untitled" {
		t.Errorf("Expected Untitled, got %q", article.Title)
	}
	if got := len([]rune(article.Description)); got != MaxDescriptionLength {
		t.Errorf("Expected description cut to %d characters, got %d", MaxDescriptionLength, got)
	}
	if article.PubDate != "2026-03-04T05:06:07.008Z" {
		t.Errorf("Expected fetch time as pubDate, got %q", article.PubDate)
	}
}

func TestDedupeKeepsFirst(t *testing.T) {
	articles := []models.Article{
		{ArticleID: "a", Source: "first"},
		{ArticleID: "b", Source: "first"},
		{ArticleID: "a", Source: "second"},
		{ArticleID: "c", Source: "first"},
		{ArticleID: "b", Source: "second"},
	}

	got := Dedupe(articles)
	if len(got) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ArticleID != want || got[i].Source != "first" {
			t.Errorf("Position %d: got %+v", i, got[i])
		}
	}
}
