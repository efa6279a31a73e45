package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"newsmarker/internal/ai"
	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

// promptDescriptionLength bounds each description in a category prompt
const promptDescriptionLength = 150

var (
	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	jsonArrayPattern  = regexp.MustCompile(`\[[\s\S]*\]`)
)

const articlePromptTemplate = `You are a news article classifier. For the given article, return a JSON object with:
- "tags": array of 1-3 tags from this list: {vocabulary}
- "sentiment": one of "positive", "negative", or "neutral"

Article Title: {title}
Article Description: {description}

Respond ONLY with valid JSON. No explanation, no markdown formatting like ` + "```json" + `. Just the raw JSON object.`

// classification is a validated model answer for one article
type classification struct {
	tags      []string
	sentiment models.Sentiment
}

// Categorizer attaches AI tags and a sentiment to articles. It never
// fails: anything that goes wrong leaves the affected articles untagged.
type Categorizer struct {
	generator ai.Generator
	logger    *core.Logger
	config    *models.CategorizerConfig
}

// NewCategorizer creates a categorizer. generator may be nil, in which
// case articles always pass through untagged.
func NewCategorizer(generator ai.Generator, logger *core.Logger, config *models.CategorizerConfig) *Categorizer {
	return &Categorizer{
		generator: generator,
		logger:    logger,
		config:    config,
	}
}

// Enabled reports whether a generator is configured
func (c *Categorizer) Enabled() bool {
	return c != nil && c.generator != nil
}

// Categorize returns a tagged copy of articles. The input is never mutated.
func (c *Categorizer) Categorize(ctx context.Context, articles []models.Article) []models.Article {
	out := models.CloneArticles(articles)
	if !c.Enabled() || len(out) == 0 {
		return out
	}

	if checker, ok := c.generator.(ai.HealthChecker); ok && !checker.Available(ctx) {
		c.logger.Warn("AI backend unavailable, skipping categorization", "backend", c.generator.Name())
		return out
	}

	var tagged int
	switch c.config.Strategy {
	case core.StrategyPerArticle:
		tagged = c.categorizePerArticle(ctx, out)
	default:
		tagged = c.categorizeBatch(ctx, out)
	}

	c.logger.Info("AI categorization complete", "backend", c.generator.Name(), "tagged", tagged, "articles", len(out))
	return out
}

// categorizePerArticle sends one request per article. Requests inside a
// window run concurrently; windows are paced by a limiter.
func (c *Categorizer) categorizePerArticle(ctx context.Context, articles []models.Article) int {
	size := c.config.BatchSize
	if size < 1 {
		size = len(articles)
	}

	limit := rate.Inf
	if c.config.BatchDelay > 0 {
		limit = rate.Every(c.config.BatchDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	tagged := 0
	for start := 0; start < len(articles); start += size {
		if err := limiter.Wait(ctx); err != nil {
			c.logger.Warn("Categorization interrupted", "error", err, "remaining", len(articles)-start)
			return tagged
		}

		window := articles[start:min(start+size, len(articles))]
		results := make([]*classification, len(window))

		var g errgroup.Group
		for i := range window {
			g.Go(func() error {
				results[i] = c.classifyArticle(ctx, window[i])
				return nil
			})
		}
		_ = g.Wait()

		for i, result := range results {
			if result == nil {
				continue
			}
			window[i].AITags = result.tags
			window[i].Sentiment = result.sentiment
			tagged++
		}
	}
	return tagged
}

func (c *Categorizer) classifyArticle(ctx context.Context, article models.Article) *classification {
	prompt := strings.NewReplacer(
		"{vocabulary}", vocabularyJSON(),
		"{title}", article.Title,
		"{description}", article.Description,
	).Replace(articlePromptTemplate)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("AI request failed", "article_id", article.ArticleID, "error", err)
		return nil
	}

	match := jsonObjectPattern.FindString(text)
	if match == "" {
		c.logger.Warn("No JSON object in AI response", "article_id", article.ArticleID)
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		c.logger.Warn("Failed to parse AI response", "article_id", article.ArticleID, "error", err)
		return nil
	}

	result, ok := sanitizeClassification(raw)
	if !ok {
		c.logger.Warn("Unexpected AI response shape", "article_id", article.ArticleID)
		return nil
	}
	return result
}

// categorizeBatch classifies every article with a single indexed prompt
func (c *Categorizer) categorizeBatch(ctx context.Context, articles []models.Article) int {
	text, err := c.generate(ctx, batchPrompt(articles))
	if err != nil {
		c.logger.Warn("AI categorization failed", "error", err)
		return 0
	}

	match := jsonArrayPattern.FindString(text)
	if match == "" {
		c.logger.Warn("No JSON array in AI response")
		return 0
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		c.logger.Warn("Failed to parse AI response", "error", err)
		return 0
	}

	tagged := 0
	for _, item := range items {
		index, ok := indexOf(item["index"], len(articles))
		if !ok {
			continue
		}
		result, ok := sanitizeClassification(item)
		if !ok {
			continue
		}
		articles[index].AITags = result.tags
		articles[index].Sentiment = result.sentiment
		tagged++
	}
	return tagged
}

func (c *Categorizer) generate(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	return c.generator.Generate(ctx, prompt)
}

func batchPrompt(articles []models.Article) string {
	var lines strings.Builder
	for i, a := range articles {
		if i > 0 {
			lines.WriteByte('\n')
		}
		fmt.Fprintf(&lines, "[%d] \"%s\" — %s", i, a.Title, truncate(a.Description, promptDescriptionLength))
	}

	return `You are a news article classifier. For each article below, assign:
- "tags": 1-3 tags from ONLY this list: ` + vocabularyJSON() + `
- "sentiment": exactly one of "positive", "negative", or "neutral"

Articles:
` + lines.String() + `

Respond with a JSON array like:
[{"index":0,"tags":["AI/ML"],"sentiment":"positive"},{"index":1,"tags":["Politics","Climate"],"sentiment":"negative"}]

ONLY return valid JSON array. No markdown, no explanation.`
}

func vocabularyJSON() string {
	encoded, _ := json.Marshal(models.TagVocabulary)
	return string(encoded)
}

// indexOf accepts only whole numbers inside [0, n)
func indexOf(v any, n int) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f < 0 || f >= float64(n) {
		return 0, false
	}
	return int(f), true
}

// sanitizeClassification keeps vocabulary tags only, at most MaxTags of
// them, and coerces unknown sentiments to neutral. A tags value that is
// not a list makes the whole answer unusable.
func sanitizeClassification(raw map[string]any) (*classification, bool) {
	var tags []string
	switch v := raw["tags"].(type) {
	case nil:
	case []any:
		for _, t := range v {
			tag, ok := t.(string)
			if !ok || !models.IsValidTag(tag) {
				continue
			}
			tags = append(tags, tag)
			if len(tags) == models.MaxTags {
				break
			}
		}
	default:
		return nil, false
	}

	sentiment, _ := raw["sentiment"].(string)
	return &classification{
		tags:      tags,
		sentiment: models.ParseSentiment(sentiment),
	}, true
}
