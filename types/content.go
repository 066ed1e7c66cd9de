package types

import "time"

// Status is the publication state of a content resource.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known publication state.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Content holds the fields shared by every publishable resource
// (blog posts, portfolio projects and service listings).
type Content struct {
	// ID is the unique identifier of the record.
	ID string `json:"id" db:"id"`

	// Title is the human-readable headline, 3 to 200 characters.
	Title string `json:"title" db:"title"`

	// Slug is the URL-safe identifier, unique per resource type.
	Slug string `json:"slug" db:"slug"`

	// Body is the sanitized HTML body.
	Body string `json:"content" db:"content"`

	// Excerpt is a plain-text summary, derived from Body when not supplied.
	Excerpt string `json:"excerpt" db:"excerpt"`

	// Status is either draft or published.
	Status Status `json:"status" db:"status"`

	// MetaTitle and MetaDescription feed the public page's SEO tags.
	MetaTitle       string `json:"metaTitle" db:"meta_title"`
	MetaDescription string `json:"metaDescription" db:"meta_description"`

	// AuthorID references the admin that created the record.
	AuthorID string `json:"authorId" db:"author_id"`

	// Author is populated on reads and never carries a password hash.
	Author *Author `json:"author,omitempty" db:"-"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ContentPatch carries a partial update of the shared fields.
// Only fields present in the request body are applied.
type ContentPatch struct {
	Title           Optional[string] `json:"title"`
	Slug            Optional[string] `json:"slug"`
	Body            Optional[string] `json:"content"`
	Excerpt         Optional[string] `json:"excerpt"`
	Status          Optional[Status] `json:"status"`
	MetaTitle       Optional[string] `json:"metaTitle"`
	MetaDescription Optional[string] `json:"metaDescription"`
}

// ApplyTo returns c with every supplied field of p written over it.
func (p ContentPatch) ApplyTo(c Content) Content {
	apply(&c.Title, p.Title)
	apply(&c.Slug, p.Slug)
	apply(&c.Body, p.Body)
	apply(&c.Excerpt, p.Excerpt)
	apply(&c.Status, p.Status)
	apply(&c.MetaTitle, p.MetaTitle)
	apply(&c.MetaDescription, p.MetaDescription)
	return c
}

// Resource is implemented by value types that embed Content.
type Resource[T any] interface {
	Core() Content
	WithCore(Content) T
}

// Patch is implemented by the partial-update payload of a Resource.
type Patch[T any] interface {
	Core() ContentPatch
	Apply(T) T
}

// ListFilter selects a page of records.
type ListFilter struct {
	// Status restricts results to one status; empty means all.
	Status string
	Page   int
	Limit  int
}

// Offset returns the number of records to skip for the filter's page.
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
