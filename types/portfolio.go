package types

// Portfolio is a showcased client project.
type Portfolio struct {
	Content

	CoverImage string `json:"coverImage" db:"cover_image"`

	// Images is the project gallery, in display order.
	Images []string `json:"images" db:"images"`

	ClientName string `json:"clientName" db:"client_name"`
	ProjectURL string `json:"projectUrl" db:"project_url"`

	// TechStack lists the technologies used, e.g. "Next.js", "Postgres".
	TechStack []string `json:"techStack" db:"tech_stack"`

	Category string `json:"category" db:"category"`
	Featured bool   `json:"featured" db:"featured"`
}

func (p Portfolio) Core() Content { return p.Content }

func (p Portfolio) WithCore(c Content) Portfolio {
	p.Content = c
	return p
}

// PortfolioPatch is a partial update of a Portfolio.
type PortfolioPatch struct {
	ContentPatch
	CoverImage Optional[string]   `json:"coverImage"`
	Images     Optional[[]string] `json:"images"`
	ClientName Optional[string]   `json:"clientName"`
	ProjectURL Optional[string]   `json:"projectUrl"`
	TechStack  Optional[[]string] `json:"techStack"`
	Category   Optional[string]   `json:"category"`
	Featured   Optional[bool]     `json:"featured"`
}

func (p PortfolioPatch) Core() ContentPatch { return p.ContentPatch }

func (p PortfolioPatch) Apply(item Portfolio) Portfolio {
	item.Content = p.ContentPatch.ApplyTo(item.Content)
	apply(&item.CoverImage, p.CoverImage)
	apply(&item.Images, p.Images)
	apply(&item.ClientName, p.ClientName)
	apply(&item.ProjectURL, p.ProjectURL)
	apply(&item.TechStack, p.TechStack)
	apply(&item.Category, p.Category)
	apply(&item.Featured, p.Featured)
	return item
}
