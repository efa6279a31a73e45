package docstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsmarker/internal/docstore"
	"newsmarker/internal/docstore/docstoretest"
)

type note struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Category string            `json:"category"`
	Tags     []string          `json:"tags,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
	Created  string            `json:"createdAt"`
}

func TestDocumentGetMissing(t *testing.T) {
	store := docstoretest.New(t)

	snap, err := store.Collection("notes").Doc("nope").Get(context.Background())
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if snap.Exists() {
		t.Error("Expected missing document")
	}

	var n note
	if err := snap.DataTo(&n); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDocumentCreateIsExclusive(t *testing.T) {
	store := docstoretest.New(t)
	ctx := context.Background()
	ref := store.Collection("users/u1/notes").Doc("a")

	if err := ref.Create(ctx, note{ID: "a", Title: "first"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := ref.Create(ctx, note{ID: "a", Title: "second"})
	if !errors.Is(err, docstore.ErrAlreadyExists) {
		t.Fatalf("Expected ErrAlreadyExists, got %v", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var got note
	if err := snap.DataTo(&got); err != nil {
		t.Fatalf("DataTo failed: %v", err)
	}
	if got.Title != "first" {
		t.Errorf("Expected original document to survive, got %q", got.Title)
	}
}

func TestDocumentSetMerge(t *testing.T) {
	store := docstoretest.New(t)
	ctx := context.Background()
	ref := store.Collection("notes").Doc("m")

	initial := map[string]any{
		"title": "old",
		"tags":  []string{"x", "y"},
		"meta":  map[string]any{"a": "1", "b": "2"},
		"keep":  true,
	}
	if err := ref.Set(ctx, initial); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	update := map[string]any{
		"title": "new",
		"tags":  []string{"z"},
		"meta":  map[string]any{"b": "3"},
	}
	if err := ref.Set(ctx, update, docstore.Merge()); err != nil {
		t.Fatalf("Merge set failed: %v", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	data := snap.Data()

	if data["title"] != "new" {
		t.Errorf("Expected title replaced, got %v", data["title"])
	}
	if data["keep"] != true {
		t.Error("Expected untouched field to survive merge")
	}
	if tags := data["tags"].([]any); len(tags) != 1 || tags[0] != "z" {
		t.Errorf("Expected arrays to be replaced, got %v", tags)
	}
	meta := data["meta"].(map[string]any)
	if meta["a"] != "1" || meta["b"] != "3" {
		t.Errorf("Expected nested maps to merge, got %v", meta)
	}

	// Without merge the document is replaced
	if err := ref.Set(ctx, map[string]any{"title": "only"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	snap, _ = ref.Get(ctx)
	if _, ok := snap.Data()["keep"]; ok {
		t.Error("Expected plain Set to replace the document")
	}
}

func TestDocumentPathValidation(t *testing.T) {
	store := docstoretest.New(t)
	ctx := context.Background()

	for _, id := range []string{"", "a/b", `a\b`} {
		err := store.Collection("notes").Doc(id).Set(ctx, note{})
		if !errors.Is(err, docstore.ErrInvalidPath) {
			t.Errorf("Expected ErrInvalidPath for %q, got %v", id, err)
		}
	}
}

func TestQueryWhereOrderLimit(t *testing.T) {
	store := docstoretest.New(t)
	ctx := context.Background()
	col := store.Collection("users/u1/notes")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	notes := []note{
		{ID: "n1", Category: "tech", Created: docstore.Timestamp(base)},
		{ID: "n2", Category: "world", Created: docstore.Timestamp(base.Add(time.Minute))},
		{ID: "n3", Category: "tech", Created: docstore.Timestamp(base.Add(2 * time.Minute))},
		{ID: "n4", Category: "tech", Created: docstore.Timestamp(base.Add(3 * time.Minute))},
	}
	for _, n := range notes {
		if err := col.Doc(n.ID).Create(ctx, n); err != nil {
			t.Fatalf("Create %s failed: %v", n.ID, err)
		}
	}

	// A sibling collection never leaks into results
	if err := store.Collection("users/u2/notes").Doc("other").Create(ctx, note{ID: "other", Category: "tech"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	snaps, err := col.Where("category", "==", "tech").OrderBy("createdAt", docstore.Desc).Limit(2).Documents(ctx)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != "n4" || snaps[1].ID != "n3" {
		t.Fatalf("Unexpected query result: %v", ids(snaps))
	}

	all, err := col.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if got := ids(all); len(got) != 4 || got[0] != "n1" || got[3] != "n4" {
		t.Errorf("Expected id ordering, got %v", got)
	}

	if _, err := col.Where("category", ">", "a").Documents(ctx); err == nil {
		t.Error("Expected unsupported operator error")
	}
	if _, err := col.Where("category'; DROP TABLE documents; --", "==", "a").Documents(ctx); err == nil {
		t.Error("Expected invalid field error")
	}
}

func TestBatchCommitIsAtomic(t *testing.T) {
	store := docstoretest.New(t)
	ctx := context.Background()
	col := store.Collection("cachedFeeds")

	batch := store.Batch()
	batch.Set(col.Doc("tech"), map[string]any{"id": "tech"}, docstore.Merge())
	batch.Set(col.Doc("world"), map[string]any{"id": "world"}, docstore.Merge())
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	snaps, err := col.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(snaps))
	}

	// A batch with one invalid write commits nothing
	bad := store.Batch()
	bad.Set(col.Doc("science"), map[string]any{"id": "science"})
	bad.Set(col.Doc("broken"), []string{"not", "an", "object"})
	if err := bad.Commit(ctx); err == nil {
		t.Fatal("Expected commit to fail")
	}

	snap, err := col.Doc("science").Get(ctx)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if snap.Exists() {
		t.Error("Expected failed batch to roll back every write")
	}
}

func TestStoreClockStampsDocuments(t *testing.T) {
	store := docstoretest.New(t)
	clock := docstoretest.NewClock(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))
	store.SetClock(clock.Now)
	ctx := context.Background()
	ref := store.Collection("notes").Doc("c")

	if err := ref.Set(ctx, note{ID: "c"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	clock.Advance(time.Hour)
	if err := ref.Set(ctx, note{ID: "c", Title: "later"}, docstore.Merge()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	snap, _ := ref.Get(ctx)
	if snap.CreatedAt != "2024-05-06T07:08:09.000Z" {
		t.Errorf("Unexpected created_at %s", snap.CreatedAt)
	}
	if snap.UpdatedAt != "2024-05-06T08:08:09.000Z" {
		t.Errorf("Unexpected updated_at %s", snap.UpdatedAt)
	}
}

func ids(snaps []*docstore.Snapshot) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.ID)
	}
	return out
}
