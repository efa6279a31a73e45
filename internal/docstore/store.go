// Package docstore is a small document store layered over the SQL database.
//
// Documents are JSON objects addressed by a slash separated collection path
// and an id, e.g. users/{uid}/bookmarks/{articleId}. The API mirrors the
// subset of a hosted document database the application relies on: point
// reads, create-if-absent, merge writes, equality queries with ordering and
// limits, and atomic write batches.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore/migrations"
)

// TimestampLayout is the fixed-width UTC layout used for every stored
// timestamp, so lexical order matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrAlreadyExists = errors.New("docstore: document already exists")
	ErrInvalidPath   = errors.New("docstore: invalid path")
)

// Store is the entry point for collection and document references
type Store struct {
	db     *core.Database
	logger *core.Logger
	now    func() time.Time
}

// New creates a store on top of an already migrated database
func New(db *core.Database, logger *core.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the clock used for bookkeeping timestamps
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Timestamp formats t with TimestampLayout
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Collection returns a reference to the collection at path
func (s *Store) Collection(path string) *CollectionRef {
	return &CollectionRef{store: s, path: strings.Trim(path, "/")}
}

// CollectionRef addresses every document under one collection path
type CollectionRef struct {
	store *Store
	path  string
}

// Path returns the slash separated collection path
func (c *CollectionRef) Path() string {
	return c.path
}

// Doc returns a reference to the document with the given id
func (c *CollectionRef) Doc(id string) *DocumentRef {
	return &DocumentRef{store: c.store, collection: c.path, id: id}
}

// Query starts a query over the collection
func (c *CollectionRef) Query() Query {
	return Query{collection: c}
}

// Where is shorthand for Query().Where
func (c *CollectionRef) Where(field, op string, value string) Query {
	return c.Query().Where(field, op, value)
}

// OrderBy is shorthand for Query().OrderBy
func (c *CollectionRef) OrderBy(field string, dir Direction) Query {
	return c.Query().OrderBy(field, dir)
}

// Documents returns every document of the collection ordered by id
func (c *CollectionRef) Documents(ctx context.Context) ([]*Snapshot, error) {
	return c.Query().Documents(ctx)
}

// DocumentRef addresses a single document
type DocumentRef struct {
	store      *Store
	collection string
	id         string
}

// ID returns the document id
func (d *DocumentRef) ID() string {
	return d.id
}

// Path returns collection/id
func (d *DocumentRef) Path() string {
	return d.collection + "/" + d.id
}

// Collection returns a subcollection nested under this document
func (d *DocumentRef) Collection(name string) *CollectionRef {
	return d.store.Collection(d.Path() + "/" + name)
}

func (d *DocumentRef) validate() error {
	if d.collection == "" || d.id == "" || strings.ContainsAny(d.id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, d.Path())
	}
	return nil
}

// Snapshot is the state of a document at read time
type Snapshot struct {
	ID        string
	CreatedAt string
	UpdatedAt string
	data      []byte
	exists    bool
}

// Exists reports whether the document was present
func (s *Snapshot) Exists() bool {
	return s != nil && s.exists
}

// DataTo decodes the document into v
func (s *Snapshot) DataTo(v any) error {
	if !s.Exists() {
		return ErrNotFound
	}
	return json.Unmarshal(s.data, v)
}

// Data returns the document as a generic map
func (s *Snapshot) Data() map[string]any {
	m := map[string]any{}
	if s.Exists() {
		_ = json.Unmarshal(s.data, &m)
	}
	return m
}

// SetOption tweaks Set behaviour
type SetOption func(*setOptions)

type setOptions struct {
	merge bool
}

// Merge deep-merges the written fields into the stored document instead
// of replacing it. Nested objects merge, arrays and scalars replace.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get reads the document. A missing document is not an error; check Exists.
func (d *DocumentRef) Get(ctx context.Context) (*Snapshot, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d.store.get(ctx, d.store.db, d)
}

// Create writes the document only if it does not exist yet
func (d *DocumentRef) Create(ctx context.Context, data any) error {
	if err := d.validate(); err != nil {
		return err
	}

	encoded, err := encodeObject(data)
	if err != nil {
		return err
	}

	now := Timestamp(d.store.now())
	query := d.store.db.Rebind(`
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO NOTHING`)

	result, err := d.store.db.ExecContext(ctx, query, d.collection, d.id, string(encoded), now, now)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", d.Path(), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", d.Path(), err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, d.Path())
	}
	return nil
}

// Set writes the document, creating it when absent
func (d *DocumentRef) Set(ctx context.Context, data any, opts ...SetOption) error {
	if err := d.validate(); err != nil {
		return err
	}

	var options setOptions
	for _, opt := range opts {
		opt(&options)
	}

	return d.store.db.Transaction(ctx, func(tx *sql.Tx) error {
		return d.store.set(ctx, tx, d, data, options)
	})
}

// Delete removes the document. Deleting a missing document succeeds.
func (d *DocumentRef) Delete(ctx context.Context) error {
	if err := d.validate(); err != nil {
		return err
	}
	return d.store.delete(ctx, d.store.db, d)
}

func (s *Store) get(ctx context.Context, q queryer, d *DocumentRef) (*Snapshot, error) {
	query := s.db.Rebind(`SELECT data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`)

	snap := &Snapshot{ID: d.id}
	var data string
	err := q.QueryRowContext(ctx, query, d.collection, d.id).Scan(&data, &snap.CreatedAt, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.Path(), err)
	}

	snap.data = []byte(data)
	snap.exists = true
	return snap, nil
}

func (s *Store) set(ctx context.Context, q queryer, d *DocumentRef, data any, options setOptions) error {
	encoded, err := encodeObject(data)
	if err != nil {
		return err
	}

	if options.merge {
		current, err := s.get(ctx, q, d)
		if err != nil {
			return err
		}
		if current.Exists() {
			encoded, err = mergeObjects(current.data, encoded)
			if err != nil {
				return fmt.Errorf("failed to merge %s: %w", d.Path(), err)
			}
		}
	}

	now := Timestamp(s.now())
	query := s.db.Rebind(`
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)

	if _, err := q.ExecContext(ctx, query, d.collection, d.id, string(encoded), now, now); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.Path(), err)
	}
	return nil
}

func (s *Store) delete(ctx context.Context, q queryer, d *DocumentRef) error {
	query := s.db.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`)
	if _, err := q.ExecContext(ctx, query, d.collection, d.id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", d.Path(), err)
	}
	return nil
}

// encodeObject marshals data and checks it is a JSON object
func encodeObject(data any) ([]byte, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if len(encoded) == 0 || encoded[0] != '{' {
		return nil, fmt.Errorf("document data must be an object, got %s", encoded)
	}
	return encoded, nil
}

func mergeObjects(current, update []byte) ([]byte, error) {
	var dst, src map[string]any
	if err := json.Unmarshal(current, &dst); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(update, &src); err != nil {
		return nil, err
	}
	return json.Marshal(deepMerge(dst, src))
}

func deepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = deepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
	return dst
}

// Open migrates the database schema and returns a ready store
func Open(ctx context.Context, db *core.Database, logger *core.Logger) (*Store, error) {
	if err := migrations.NewManager(db, logger).Migrate(ctx); err != nil {
		return nil, err
	}
	return New(db, logger), nil
}
