package docstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"newsmarker/internal/core"
)

// Direction is a query sort direction
type Direction int

const (
	Asc Direction = iota
	Desc
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type filter struct {
	field string
	op    string
	value string
}

// Query is an immutable query builder over one collection
type Query struct {
	collection *CollectionRef
	filters    []filter
	orderField string
	orderDir   Direction
	limit      int
}

// Where adds an equality filter on a top-level string field
func (q Query) Where(field, op string, value string) Query {
	q.filters = append(append([]filter(nil), q.filters...), filter{field: field, op: op, value: value})
	return q
}

// OrderBy sorts results by a top-level field, then by document id
func (q Query) OrderBy(field string, dir Direction) Query {
	q.orderField = field
	q.orderDir = dir
	return q
}

// Limit caps the number of returned documents; zero means no limit
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// Documents runs the query and returns every matching snapshot
func (q Query) Documents(ctx context.Context) ([]*Snapshot, error) {
	store := q.collection.store

	query, args, err := q.build(store.db.Driver())
	if err != nil {
		return nil, err
	}

	rows, err := store.db.QueryContext(ctx, store.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.collection.path, err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap := &Snapshot{exists: true}
		var data string
		if err := rows.Scan(&snap.ID, &data, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", q.collection.path, err)
		}
		snap.data = []byte(data)
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", q.collection.path, err)
	}
	return snapshots, nil
}

func (q Query) build(driver string) (string, []any, error) {
	var b strings.Builder
	args := []any{q.collection.path}

	b.WriteString(`SELECT id, data, created_at, updated_at FROM documents WHERE collection = ?`)

	for _, f := range q.filters {
		if f.op != "==" {
			return "", nil, fmt.Errorf("docstore: unsupported operator %q", f.op)
		}
		expr, err := fieldExpr(driver, f.field)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" AND ")
		b.WriteString(expr)
		b.WriteString(" = ?")
		args = append(args, f.value)
	}

	b.WriteString(" ORDER BY ")
	if q.orderField != "" {
		expr, err := fieldExpr(driver, q.orderField)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(expr)
		if q.orderDir == Desc {
			b.WriteString(" DESC")
		}
		b.WriteString(", ")
	}
	b.WriteString("id")

	if q.limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.limit)
	}

	return b.String(), args, nil
}

func fieldExpr(driver, field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("docstore: invalid field name %q", field)
	}
	if driver == core.DriverPostgres {
		return fmt.Sprintf("(data::jsonb ->> '%s')", field), nil
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field), nil
}
