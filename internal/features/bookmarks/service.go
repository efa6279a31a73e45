package bookmarks

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore"
	"newsmarker/internal/features/feeds/models"
)

// Service manages the bookmarks stored under users/{uid}/bookmarks
type Service struct {
	store  *docstore.Store
	logger *core.Logger
	now    func() time.Time
}

// NewService creates a new bookmark service
func NewService(store *docstore.Store, logger *core.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the clock used for createdAt and updatedAt
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) collection(userID string) *docstore.CollectionRef {
	return s.store.Collection("users").Doc(userID).Collection("bookmarks")
}

// Add saves an article for userID. An existing bookmark for the same
// article is reported as ALREADY_EXISTS and left untouched.
func (s *Service) Add(ctx context.Context, userID string, req AddBookmarkRequest) (*Bookmark, error) {
	if err := core.ValidateStruct(req); err != nil {
		return nil, err
	}

	ref := s.collection(userID).Doc(req.ArticleID)
	existing, err := ref.Get(ctx)
	if err != nil {
		return nil, core.NewAddFailedError("Failed to add bookmark", err)
	}
	if existing.Exists() {
		return nil, core.NewAlreadyExistsError("Already bookmarked", nil)
	}

	now := docstore.Timestamp(s.now())
	bookmark := &Bookmark{
		ID:          req.ArticleID,
		ArticleID:   req.ArticleID,
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		Source:      req.Source,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		PubDate:     req.PubDate,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := ref.Create(ctx, bookmark); err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return nil, core.NewAlreadyExistsError("Already bookmarked", err)
		}
		return nil, core.NewAddFailedError("Failed to add bookmark", err)
	}

	s.logger.WithUser(userID).Info("Bookmark added", "article_id", req.ArticleID)
	return bookmark, nil
}

// Remove deletes the bookmark for articleID
func (s *Service) Remove(ctx context.Context, userID, articleID string) error {
	if articleID == "" || strings.ContainsAny(articleID, `/\`) {
		return core.NewInvalidInputError("Valid articleId required", nil)
	}

	ref := s.collection(userID).Doc(articleID)
	existing, err := ref.Get(ctx)
	if err != nil {
		return core.NewRemoveFailedError("Failed to remove bookmark", err)
	}
	if !existing.Exists() {
		return core.NewNotFoundError("Bookmark not found", nil)
	}

	if err := ref.Delete(ctx); err != nil {
		return core.NewRemoveFailedError("Failed to remove bookmark", err)
	}

	s.logger.WithUser(userID).Info("Bookmark removed", "article_id", articleID)
	return nil
}

// List returns the user's bookmarks, newest first. category may be empty
// or "all" for no filter.
func (s *Service) List(ctx context.Context, userID string, category models.Category, limit int) (*ListResult, error) {
	if category == "" {
		category = models.CategoryAll
	}
	if category != models.CategoryAll && !category.Valid() {
		return nil, core.NewInvalidInputError("category must be one of: tech world business science all", nil)
	}

	query := s.collection(userID).Query()
	if category != models.CategoryAll {
		query = query.Where("category", "==", string(category))
	}
	snaps, err := query.OrderBy("createdAt", docstore.Desc).Limit(ClampLimit(limit)).Documents(ctx)
	if err != nil {
		return nil, core.NewFetchFailedError("Failed to fetch bookmarks", err)
	}

	bookmarks := make([]Bookmark, 0, len(snaps))
	for _, snap := range snaps {
		var b Bookmark
		if err := snap.DataTo(&b); err != nil {
			return nil, core.NewFetchFailedError("Failed to fetch bookmarks", err)
		}
		bookmarks = append(bookmarks, b)
	}

	return &ListResult{Bookmarks: bookmarks, Total: len(bookmarks)}, nil
}

// ClampLimit bounds limit to [1, MaxLimit]; zero selects DefaultLimit
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// ParseLimit reads a limit query value, falling back to DefaultLimit
// when it is missing or not a number.
func ParseLimit(raw string) int {
	if raw == "" {
		return DefaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	if n == 0 {
		return 1
	}
	return ClampLimit(n)
}
