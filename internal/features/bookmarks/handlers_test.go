package bookmarks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newsmarker/internal/auth"
	"newsmarker/internal/core"
	"newsmarker/internal/features/feeds/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Message string          `json:"message"`
}

func serve(h http.HandlerFunc, method, target, body, userID string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	_ = json.NewDecoder(rec.Body).Decode(&env)
	return rec, env
}

func TestBookmarkHandlers(t *testing.T) {
	service, _ := newTestService(t)
	h := NewHandler(service, core.NewLoggerWithLevel("error"))

	body := `{"articleId":"abc","title":"Hello","link":"https://example.com/abc","source":"Example","category":"tech","pubDate":"2024-01-01T00:00:00Z"}`

	rec, env := serve(h.AddBookmark, http.MethodPost, "/bookmarks", body, "user-1")
	if rec.Code != http.StatusCreated || env.Message != "Bookmarked successfully" {
		t.Fatalf("Unexpected add response %d %+v", rec.Code, env)
	}
	var added AddBookmarkResponse
	if err := json.Unmarshal(env.Data, &added); err != nil || added.BookmarkID != "abc" {
		t.Errorf("Unexpected add data %s", env.Data)
	}

	rec, env = serve(h.AddBookmark, http.MethodPost, "/bookmarks", body, "user-1")
	if rec.Code != http.StatusConflict || env.Error == nil || *env.Error != core.ErrCodeAlreadyExists {
		t.Errorf("Expected ALREADY_EXISTS, got %d %+v", rec.Code, env)
	}

	rec, env = serve(h.AddBookmark, http.MethodPost, "/bookmarks", `{"articleId":`, "user-1")
	if rec.Code != http.StatusBadRequest || *env.Error != core.ErrCodeInvalidInput {
		t.Errorf("Expected INVALID_INPUT for bad JSON, got %d %+v", rec.Code, env)
	}

	rec, env = serve(h.ListBookmarks, http.MethodGet, "/bookmarks?category=tech&limit=10", "", "user-1")
	if rec.Code != http.StatusOK || env.Message != "Bookmarks fetched" {
		t.Fatalf("Unexpected list response %d %+v", rec.Code, env)
	}
	var listed ListResult
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if listed.Total != 1 || listed.Bookmarks[0].Category != models.CategoryTech || listed.Bookmarks[0].UserID != "user-1" {
		t.Errorf("Unexpected list %+v", listed)
	}

	rec, env = serve(h.RemoveBookmark, http.MethodDelete, "/bookmarks?articleId=missing", "", "user-1")
	if rec.Code != http.StatusNotFound || *env.Error != core.ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND, got %d %+v", rec.Code, env)
	}

	rec, env = serve(h.RemoveBookmark, http.MethodDelete, "/bookmarks?articleId=abc", "", "user-1")
	if rec.Code != http.StatusOK || env.Message != "Bookmark removed" || string(env.Data) != "null" || env.Error != nil {
		t.Errorf("Unexpected remove response %d %+v", rec.Code, env)
	}
}

func TestAddBookmarkRejectsOversizedBody(t *testing.T) {
	service, _ := newTestService(t)
	h := NewHandler(service, core.NewLoggerWithLevel("error"))

	body := `{"articleId":"big","title":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec, env := serve(h.AddBookmark, http.MethodPost, "/bookmarks", body, "user-1")
	if rec.Code != http.StatusBadRequest || env.Error == nil || *env.Error != core.ErrCodeInvalidInput {
		t.Fatalf("Expected INVALID_INPUT, got %d %+v", rec.Code, env)
	}
	if env.Message != "Request body too large" {
		t.Errorf("Unexpected message %q", env.Message)
	}
}
