package store

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/nova-jack/novafusion/types"
)

// ServiceRepository handles persistence for service listings.
// Listings are ordered by their display order first.
type ServiceRepository struct {
	contentTable[types.Service]
}

func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{contentTable[types.Service]{
		db:      db,
		table:   "services",
		extra:   []string{"icon", "cover_image", "features", "sort_order"},
		orderBy: "c.sort_order ASC, c.created_at DESC, c.id",
		core:    func(s *types.Service) *types.Content { return &s.Content },
		dest: func(s *types.Service) []any {
			return []any{&s.Icon, &s.CoverImage, pq.Array(&s.Features), &s.Order}
		},
		values: func(s types.Service) []any {
			return []any{s.Icon, s.CoverImage, pq.Array(nonNil(s.Features)), s.Order}
		},
	}}
}
