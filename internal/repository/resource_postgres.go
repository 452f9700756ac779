package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/encanta/encanta/internal/domain"
)

// change is one column assignment of a sparse update
type change struct {
	column string
	value  interface{}
}

// tableMapping describes how an entity maps onto its table
type tableMapping[T any, P any] struct {
	entity  string
	table   string
	columns []string // "id" first, in the order values and scan use
	scope   string   // column FindMany restricts on
	filters map[string]string
	values  func(item *T) []interface{}
	scan    func(row rowScanner) (*T, error)
	changes func(patch P) []change
}

// pgResource implements domain.ResourceStore for a single table
type pgResource[T any, P any] struct {
	db      *sql.DB
	mapping tableMapping[T, P]
}

func newPGResource[T any, P any](db *sql.DB, mapping tableMapping[T, P]) *pgResource[T, P] {
	return &pgResource[T, P]{db: db, mapping: mapping}
}

func (r *pgResource[T, P]) notFound(id string) error {
	return &domain.ErrNotFound{Entity: r.mapping.entity, ID: id}
}

func (r *pgResource[T, P]) Insert(ctx context.Context, item *T) error {
	return r.insert(ctx, r.db, item)
}

func (r *pgResource[T, P]) insert(ctx context.Context, exec executor, item *T) error {
	query, args, err := psql.Insert(r.mapping.table).
		Columns(r.mapping.columns...).
		Values(r.mapping.values(item)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return writeError("create", r.mapping.entity, err)
	}
	return nil
}

func (r *pgResource[T, P]) FindOne(ctx context.Context, id string) (*T, error) {
	return r.findOne(ctx, r.db, id)
}

func (r *pgResource[T, P]) findOne(ctx context.Context, exec executor, id string) (*T, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, r.notFound(id)
	}

	query, args, err := psql.Select(r.mapping.columns...).
		From(r.mapping.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := r.mapping.scan(exec.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", r.mapping.entity, err)
	}
	return item, nil
}

// FindMany returns the rows of one scope, newest first. Filter keys without a
// column mapping are ignored.
func (r *pgResource[T, P]) FindMany(ctx context.Context, q domain.ListQuery) ([]*T, error) {
	builder := psql.Select(r.mapping.columns...).
		From(r.mapping.table).
		Where(sq.Eq{r.mapping.scope: q.ScopeID})

	keys := make([]string, 0, len(q.Filters))
	for key := range q.Filters {
		if _, ok := r.mapping.filters[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		builder = builder.Where(sq.Eq{r.mapping.filters[key]: q.Filters[key]})
	}

	query, args, err := builder.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.mapping.table, err)
	}
	defer rows.Close()

	items := make([]*T, 0)
	for rows.Next() {
		item, err := r.mapping.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.mapping.entity, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", r.mapping.table, err)
	}
	return items, nil
}

func (r *pgResource[T, P]) Update(ctx context.Context, id string, patch P) (*T, error) {
	return r.update(ctx, r.db, id, patch)
}

// update applies the non-nil fields of patch and returns the stored row.
// An empty patch reads the row back unchanged.
func (r *pgResource[T, P]) update(ctx context.Context, exec executor, id string, patch P) (*T, error) {
	changes := r.mapping.changes(patch)
	if len(changes) == 0 {
		return r.findOne(ctx, exec, id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, r.notFound(id)
	}

	builder := psql.Update(r.mapping.table).Set("updated_at", time.Now().UTC())
	for _, c := range changes {
		builder = builder.Set(c.column, c.value)
	}

	query, args, err := builder.
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(r.mapping.columns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := r.mapping.scan(exec.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.notFound(id)
	}
	if err != nil {
		return nil, writeError("update", r.mapping.entity, err)
	}
	return item, nil
}

func (r *pgResource[T, P]) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return r.notFound(id)
	}

	query, args, err := psql.Delete(r.mapping.table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.mapping.entity, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return r.notFound(id)
	}
	return nil
}
