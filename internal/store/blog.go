package store

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/nova-jack/novafusion/types"
)

// BlogRepository handles persistence for blog posts.
type BlogRepository struct {
	contentTable[types.Blog]
}

func NewBlogRepository(db *sql.DB) *BlogRepository {
	return &BlogRepository{contentTable[types.Blog]{
		db:      db,
		table:   "blogs",
		extra:   []string{"cover_image", "featured", "keywords"},
		orderBy: "c.created_at DESC, c.id",
		core:    func(b *types.Blog) *types.Content { return &b.Content },
		dest: func(b *types.Blog) []any {
			return []any{&b.CoverImage, &b.Featured, pq.Array(&b.Keywords)}
		},
		values: func(b types.Blog) []any {
			return []any{b.CoverImage, b.Featured, pq.Array(nonNil(b.Keywords))}
		},
	}}
}
