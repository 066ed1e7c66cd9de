package store

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/nova-jack/novafusion/types"
)

// PortfolioRepository handles persistence for portfolio projects.
type PortfolioRepository struct {
	contentTable[types.Portfolio]
}

func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{contentTable[types.Portfolio]{
		db:      db,
		table:   "portfolios",
		extra:   []string{"cover_image", "images", "client_name", "project_url", "tech_stack", "category", "featured"},
		orderBy: "c.created_at DESC, c.id",
		core:    func(p *types.Portfolio) *types.Content { return &p.Content },
		dest: func(p *types.Portfolio) []any {
			return []any{
				&p.CoverImage,
				pq.Array(&p.Images),
				&p.ClientName,
				&p.ProjectURL,
				pq.Array(&p.TechStack),
				&p.Category,
				&p.Featured,
			}
		},
		values: func(p types.Portfolio) []any {
			return []any{
				p.CoverImage,
				pq.Array(nonNil(p.Images)),
				p.ClientName,
				p.ProjectURL,
				pq.Array(nonNil(p.TechStack)),
				p.Category,
				p.Featured,
			}
		},
	}}
}
