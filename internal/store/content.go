package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nova-jack/novafusion/types"
)

const coreColumns = `c.id, c.title, c.slug, c.content, c.excerpt, c.status, c.meta_title, c.meta_description,
		COALESCE(c.author_id::text, ''), c.created_at, c.updated_at,
		COALESCE(u.id::text, ''), COALESCE(u.name, ''), COALESCE(u.email, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

// contentTable implements the persistence shared by every publishable
// resource. Each resource adds its own columns through extra, dest and values.
type contentTable[T any] struct {
	db      *sql.DB
	table   string
	extra   []string
	orderBy string

	// core exposes the embedded Content of an item.
	core func(item *T) *types.Content
	// dest returns scan destinations for the extra columns.
	dest func(item *T) []any
	// values returns driver values for the extra columns.
	values func(item T) []any
}

func (t *contentTable[T]) selectClause() string {
	cols := coreColumns
	for _, col := range t.extra {
		cols += ", c." + col
	}
	return fmt.Sprintf("SELECT %s\n\t\tFROM %s c\n\t\tLEFT JOIN users u ON u.id = c.author_id", cols, t.table)
}

func (t *contentTable[T]) scan(row rowScanner) (T, error) {
	var item T
	c := t.core(&item)
	var author types.Author
	dest := []any{
		&c.ID,
		&c.Title,
		&c.Slug,
		&c.Body,
		&c.Excerpt,
		&c.Status,
		&c.MetaTitle,
		&c.MetaDescription,
		&c.AuthorID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&author.ID,
		&author.Name,
		&author.Email,
	}
	dest = append(dest, t.dest(&item)...)
	if err := row.Scan(dest...); err != nil {
		return item, err
	}
	if author.ID != "" {
		c.Author = &author
	}
	return item, nil
}

func (t *contentTable[T]) List(ctx context.Context, filter types.ListFilter) ([]T, int, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(1) FROM %s c WHERE ($1 = '' OR c.status = $1)`, t.table)
	var total int
	if err := t.db.QueryRowContext(ctx, countQuery, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := t.selectClause() + `
		WHERE ($1 = '' OR c.status = $1)
		ORDER BY ` + t.orderBy + `
		OFFSET $2 LIMIT $3`
	rows, err := t.db.QueryContext(ctx, listQuery, filter.Status, filter.Offset(), limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]T, 0, limit)
	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (t *contentTable[T]) GetByID(ctx context.Context, id string) (T, error) {
	if _, err := uuid.Parse(id); err != nil {
		var zero T
		return zero, ErrNotFound
	}
	return t.getOne(ctx, t.selectClause()+"\n\t\tWHERE c.id = $1", id)
}

func (t *contentTable[T]) GetBySlug(ctx context.Context, slug string) (T, error) {
	return t.getOne(ctx, t.selectClause()+"\n\t\tWHERE c.slug = $1", slug)
}

func (t *contentTable[T]) getOne(ctx context.Context, query string, arg any) (T, error) {
	item, err := t.scan(t.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return item, nil
}

func (t *contentTable[T]) Create(ctx context.Context, item T) (T, error) {
	c := t.core(&item)
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	cols := []string{"id", "title", "slug", "content", "excerpt", "status", "meta_title", "meta_description", "author_id", "created_at", "updated_at"}
	cols = append(cols, t.extra...)
	args := []any{c.ID, c.Title, c.Slug, c.Body, c.Excerpt, c.Status, c.MetaTitle, c.MetaDescription, nullUUID(c.AuthorID), c.CreatedAt, c.UpdatedAt}
	args = append(args, t.values(item)...)

	query := fmt.Sprintf("INSERT INTO %s (%s)\n\t\tVALUES (%s)", t.table, strings.Join(cols, ", "), placeholders(1, len(cols)))
	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		var zero T
		return zero, mapError(err)
	}
	return t.GetByID(ctx, c.ID)
}

// Update overwrites every column of the stored row with item.
func (t *contentTable[T]) Update(ctx context.Context, item T) (T, error) {
	c := t.core(&item)
	c.UpdatedAt = time.Now().UTC()

	cols := []string{"title", "slug", "content", "excerpt", "status", "meta_title", "meta_description", "updated_at"}
	cols = append(cols, t.extra...)
	args := []any{c.Title, c.Slug, c.Body, c.Excerpt, c.Status, c.MetaTitle, c.MetaDescription, c.UpdatedAt}
	args = append(args, t.values(item)...)

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, c.ID)
	query := fmt.Sprintf("UPDATE %s\n\t\tSET %s\n\t\tWHERE id = $%d", t.table, strings.Join(sets, ",\n\t\t\t"), len(args))

	var zero T
	result, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return zero, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return zero, err
	}
	if affected == 0 {
		return zero, ErrNotFound
	}
	return t.GetByID(ctx, c.ID)
}

func (t *contentTable[T]) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.table)
	result, err := t.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

func nullUUID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}
