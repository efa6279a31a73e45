package services

import "newsmarker/internal/features/feeds/models"

// Dedupe keeps the first article seen for each articleId, in order
func Dedupe(articles []models.Article) []models.Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if _, dup := seen[a.ArticleID]; dup {
			continue
		}
		seen[a.ArticleID] = struct{}{}
		out = append(out, a)
	}
	return out
}
