package types

// Blog is a blog post.
type Blog struct {
	Content

	// CoverImage is a URL, typically returned by the media upload endpoint.
	CoverImage string `json:"coverImage" db:"cover_image"`

	// Featured posts are pinned on the home page.
	Featured bool `json:"featured" db:"featured"`

	// Keywords are free-form SEO keywords.
	Keywords []string `json:"keywords" db:"keywords"`
}

func (b Blog) Core() Content { return b.Content }

func (b Blog) WithCore(c Content) Blog {
	b.Content = c
	return b
}

// BlogPatch is a partial update of a Blog.
type BlogPatch struct {
	ContentPatch
	CoverImage Optional[string]   `json:"coverImage"`
	Featured   Optional[bool]     `json:"featured"`
	Keywords   Optional[[]string] `json:"keywords"`
}

func (p BlogPatch) Core() ContentPatch { return p.ContentPatch }

func (p BlogPatch) Apply(b Blog) Blog {
	b.Content = p.ContentPatch.ApplyTo(b.Content)
	apply(&b.CoverImage, p.CoverImage)
	apply(&b.Featured, p.Featured)
	apply(&b.Keywords, p.Keywords)
	return b
}
