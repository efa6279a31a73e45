package bookmarks

import (
	"encoding/json"
	"errors"
	"net/http"

	"newsmarker/internal/auth"
	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

const maxBodyBytes = 1 << 20

// Handler provides bookmark HTTP handlers
type Handler struct {
	service *Service
	logger  *core.Logger
}

// NewHandler creates a new bookmark handler
func NewHandler(service *Service, logger *core.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ListBookmarks handles GET /bookmarks?category=&limit=
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	query := r.URL.Query()

	result, err := h.service.List(r.Context(), userID, models.Category(query.Get("category")), ParseLimit(query.Get("limit")))
	if err != nil {
		h.logFailure(r, userID, "List bookmarks failed", err)
		core.HandleError(w, err)
		return
	}

	core.WriteSuccess(w, http.StatusOK, result, "Bookmarks fetched")
}

// AddBookmark handles POST /bookmarks
func (h *Handler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req AddBookmarkRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.HandleError(w, core.NewInvalidInputError("Request body too large", err))
			return
		}
		core.HandleError(w, core.NewInvalidInputError("Invalid request body", err))
		return
	}

	bookmark, err := h.service.Add(r.Context(), userID, req)
	if err != nil {
		h.logFailure(r, userID, "Add bookmark failed", err)
		core.HandleError(w, err)
		return
	}

	core.WriteSuccess(w, http.StatusCreated, AddBookmarkResponse{BookmarkID: bookmark.ID}, "Bookmarked successfully")
}

// RemoveBookmark handles DELETE /bookmarks?articleId=
func (h *Handler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.service.Remove(r.Context(), userID, r.URL.Query().Get("articleId")); err != nil {
		h.logFailure(r, userID, "Remove bookmark failed", err)
		core.HandleError(w, err)
		return
	}

	core.WriteSuccess(w, http.StatusOK, nil, "Bookmark removed")
}

// logFailure logs only unexpected errors; client mistakes stay quiet
func (h *Handler) logFailure(r *http.Request, userID, msg string, err error) {
	if core.GetHTTPStatusCode(asAppError(err)) < http.StatusInternalServerError {
		return
	}
	h.logger.WithContext(r.Context()).WithUser(userID).Error(msg, "error", err)
}

func asAppError(err error) *core.AppError {
	var appErr *core.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return core.NewInternalError("", err)
}
