package bookmarks

import (
	"newsmarker/internal/features/feeds/models"
)

// Bookmark is a user's saved copy of an article. Its id is the articleId,
// so a user can hold at most one bookmark per article.
type Bookmark struct {
	ID          string          `json:"id"`
	ArticleID   string          `json:"articleId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Link        string          `json:"link"`
	Source      string          `json:"source"`
	Category    models.Category `json:"category"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	PubDate     string          `json:"pubDate"`
	UserID      string          `json:"userId"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// AddBookmarkRequest is the body of POST /bookmarks
type AddBookmarkRequest struct {
	ArticleID   string          `json:"articleId" validate:"required,excludesall=/\\"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Link        string          `json:"link" validate:"required,url"`
	Source      string          `json:"source" validate:"required"`
	Category    models.Category `json:"category" validate:"required,oneof=tech world business science"`
	// Feeds carry protocol-relative and relative image paths as written
	ImageURL    string          `json:"imageUrl"`
	PubDate     string          `json:"pubDate"`
}

// AddBookmarkResponse is returned after a successful add
type AddBookmarkResponse struct {
	BookmarkID string `json:"bookmarkId"`
}

// ListResult is the payload of GET /bookmarks
type ListResult struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	Total     int        `json:"total"`
}

// List limits
const (
	DefaultLimit = 50
	MaxLimit     = 100
)
