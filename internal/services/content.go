package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nova-jack/novafusion/internal/store"
	"github.com/nova-jack/novafusion/internal/util"
	"github.com/nova-jack/novafusion/types"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	MinTitleLength   = 3
	MaxTitleLength   = 200
	MinContentLength = 10
	MaxExcerptLength = 500
)

// ContentRepository defines persistence operations for one kind of
// publishable resource.
type ContentRepository[T any] interface {
	List(ctx context.Context, filter types.ListFilter) ([]T, int, error)
	GetByID(ctx context.Context, id string) (T, error)
	GetBySlug(ctx context.Context, slug string) (T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Kind names a resource type in client-facing messages.
type Kind struct {
	// Label is the capitalized name, e.g. "Blog" or "Project".
	Label string
	// Noun is the lowercase name used mid-sentence and as the response key
	// of a single record.
	Noun string
	// Plural keys list responses.
	Plural string
}

var (
	BlogKind      = Kind{Label: "Blog", Noun: "blog", Plural: "blogs"}
	PortfolioKind = Kind{Label: "Project", Noun: "project", Plural: "projects"}
	ServiceKind   = Kind{Label: "Service", Noun: "service", Plural: "services"}
)

// ContentService implements the create, read, update and delete rules
// shared by blogs, portfolio projects and services.
type ContentService[T types.Resource[T], P types.Patch[T]] struct {
	repo ContentRepository[T]
	kind Kind
}

func NewContentService[T types.Resource[T], P types.Patch[T]](repo ContentRepository[T], kind Kind) *ContentService[T, P] {
	return &ContentService[T, P]{repo: repo, kind: kind}
}

type (
	BlogService      = ContentService[types.Blog, types.BlogPatch]
	PortfolioService = ContentService[types.Portfolio, types.PortfolioPatch]
	ServiceService   = ContentService[types.Service, types.ServicePatch]
)

func NewBlogService(repo ContentRepository[types.Blog]) *BlogService {
	return NewContentService[types.Blog, types.BlogPatch](repo, BlogKind)
}

func NewPortfolioService(repo ContentRepository[types.Portfolio]) *PortfolioService {
	return NewContentService[types.Portfolio, types.PortfolioPatch](repo, PortfolioKind)
}

func NewServiceService(repo ContentRepository[types.Service]) *ServiceService {
	return NewContentService[types.Service, types.ServicePatch](repo, ServiceKind)
}

// Kind returns the resource naming used in messages.
func (s *ContentService[T, P]) Kind() Kind {
	return s.kind
}

// NormalizePage floors page at 1 and clamps limit to [1, MaxLimit],
// substituting defaults for non-positive values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// List returns one page of records, newest first.
func (s *ContentService[T, P]) List(ctx context.Context, filter types.ListFilter) ([]T, types.Pagination, error) {
	if filter.Status != "" && !types.Status(filter.Status).Valid() {
		return nil, types.Pagination{}, invalid("Invalid status filter")
	}
	filter.Page, filter.Limit = NormalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return items, types.NewPagination(total, filter.Page, filter.Limit), nil
}

func (s *ContentService[T, P]) Get(ctx context.Context, id string) (T, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *ContentService[T, P]) GetBySlug(ctx context.Context, slug string) (T, error) {
	return s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
}

// GetPublished returns the record only when it is published; drafts are
// reported as not found.
func (s *ContentService[T, P]) GetPublished(ctx context.Context, slug string) (T, error) {
	item, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return item, err
	}
	if item.Core().Status != types.StatusPublished {
		var zero T
		return zero, store.ErrNotFound
	}
	return item, nil
}

// Create validates item, derives its slug, excerpt and SEO defaults, and
// stores it with user as author.
func (s *ContentService[T, P]) Create(ctx context.Context, user types.AdminUser, item T) (T, error) {
	var zero T
	c := item.Core()

	c.Title = strings.TrimSpace(c.Title)
	c.Body = util.SanitizeHTML(strings.TrimSpace(c.Body))
	if c.Title == "" || c.Body == "" {
		return zero, invalid("Title and content are required")
	}
	if err := validateTitle(c.Title); err != nil {
		return zero, err
	}
	if err := validateBody(c.Body); err != nil {
		return zero, err
	}

	source := c.Title
	if strings.TrimSpace(c.Slug) != "" {
		source = c.Slug
	}
	c.Slug = util.GenerateSlug(source)
	if c.Slug == "" {
		return zero, invalid("Slug could not be generated; please provide a slug")
	}
	if err := s.ensureSlugFree(ctx, c.Slug); err != nil {
		return zero, err
	}

	if c.Status == "" {
		c.Status = types.StatusDraft
	}
	if !c.Status.Valid() {
		return zero, invalid("Invalid status")
	}

	c.Excerpt = util.Clean(util.StripTags(c.Excerpt), MaxExcerptLength)
	if c.Excerpt == "" {
		c.Excerpt = util.CreateExcerpt(c.Body, util.DefaultExcerptLength)
	}
	c.MetaTitle = strings.TrimSpace(c.MetaTitle)
	if c.MetaTitle == "" {
		c.MetaTitle = c.Title
	}
	c.MetaDescription = strings.TrimSpace(c.MetaDescription)
	if c.MetaDescription == "" {
		c.MetaDescription = c.Excerpt
	}

	c.ID = ""
	c.AuthorID = user.ID
	c.Author = nil

	created, err := s.repo.Create(ctx, item.WithCore(c))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return zero, s.slugConflict()
		}
		return zero, err
	}
	return created, nil
}

// Update applies the fields present in patch to the record with id.
// Only the author or a SUPER_ADMIN may update.
func (s *ContentService[T, P]) Update(ctx context.Context, user types.AdminUser, id string, patch P) (T, error) {
	var zero T
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, s.idRequired()
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	prev := existing.Core()
	if !canModify(user, prev.AuthorID) {
		return zero, ErrForbidden
	}

	pc := patch.Core()
	updated := patch.Apply(existing)
	c := updated.Core()

	if pc.Slug.Set {
		c.Slug = util.GenerateSlug(pc.Slug.Value)
		if c.Slug == "" {
			return zero, invalid("Invalid slug")
		}
		if c.Slug != prev.Slug {
			if err := s.ensureSlugFree(ctx, c.Slug); err != nil {
				return zero, err
			}
		}
	}
	if pc.Title.Set {
		c.Title = strings.TrimSpace(c.Title)
		if err := validateTitle(c.Title); err != nil {
			return zero, err
		}
	}
	if pc.Body.Set {
		c.Body = util.SanitizeHTML(strings.TrimSpace(c.Body))
		if err := validateBody(c.Body); err != nil {
			return zero, err
		}
	}
	if pc.Excerpt.Set {
		c.Excerpt = util.Clean(util.StripTags(c.Excerpt), MaxExcerptLength)
		if c.Excerpt == "" {
			c.Excerpt = util.CreateExcerpt(c.Body, util.DefaultExcerptLength)
		}
	}
	if pc.Status.Set && !c.Status.Valid() {
		return zero, invalid("Invalid status")
	}
	if pc.MetaTitle.Set {
		c.MetaTitle = strings.TrimSpace(c.MetaTitle)
	}
	if pc.MetaDescription.Set {
		c.MetaDescription = strings.TrimSpace(c.MetaDescription)
	}

	c.ID = prev.ID
	c.AuthorID = prev.AuthorID
	c.CreatedAt = prev.CreatedAt
	c.Author = nil

	saved, err := s.repo.Update(ctx, updated.WithCore(c))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return zero, s.slugConflict()
		}
		return zero, err
	}
	return saved, nil
}

// Delete permanently removes the record with id. Only the author or a
// SUPER_ADMIN may delete.
func (s *ContentService[T, P]) Delete(ctx context.Context, user types.AdminUser, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return s.idRequired()
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(user, existing.Core().AuthorID) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

func (s *ContentService[T, P]) ensureSlugFree(ctx context.Context, slug string) error {
	_, err := s.repo.GetBySlug(ctx, slug)
	switch {
	case err == nil:
		return s.slugConflict()
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return err
	}
}

func (s *ContentService[T, P]) slugConflict() error {
	return &ConflictError{Message: "A " + s.kind.Noun + " with this slug already exists"}
}

func (s *ContentService[T, P]) idRequired() error {
	return invalid("%s ID is required", s.kind.Label)
}

func canModify(user types.AdminUser, authorID string) bool {
	return user.Role == types.RoleSuperAdmin || (user.ID != "" && user.ID == authorID)
}

func validateTitle(title string) error {
	n := util.RuneLen(title)
	if n < MinTitleLength || n > MaxTitleLength {
		return invalid("Title must be between %d and %d characters", MinTitleLength, MaxTitleLength)
	}
	return nil
}

func validateBody(body string) error {
	if util.RuneLen(body) < MinContentLength {
		return invalid("Content must be at least %d characters", MinContentLength)
	}
	return nil
}
