// Package memory implements the store repositories in process memory,
// for local development (DB_DRIVER=memory) and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nova-jack/novafusion/internal/store"
	"github.com/nova-jack/novafusion/types"
)

// DB holds every repository. All repositories share one lock.
type DB struct {
	mu  sync.Mutex
	seq int64

	Users      *UserRepository
	Blogs      *ContentRepository[types.Blog]
	Portfolios *ContentRepository[types.Portfolio]
	Services   *ContentRepository[types.Service]
	Enquiries  *EnquiryRepository
}

// New creates an empty in-memory database.
func New() *DB {
	db := &DB{}
	db.Users = &UserRepository{db: db, users: make(map[string]types.User)}
	db.Blogs = newContentRepository(db, func(b *types.Blog) *types.Content { return &b.Content }, nil)
	db.Portfolios = newContentRepository(db, func(p *types.Portfolio) *types.Content { return &p.Content }, nil)
	db.Services = newContentRepository(db, func(s *types.Service) *types.Content { return &s.Content },
		func(a, b types.Service) int { return a.Order - b.Order })
	db.Enquiries = &EnquiryRepository{db: db, items: make(map[string]entry[types.Enquiry])}
	return db
}

func (db *DB) next() int64 {
	db.seq++
	return db.seq
}

type entry[T any] struct {
	seq  int64
	item T
}

// --- UserRepository ---

// UserRepository stores admin accounts keyed by id.
type UserRepository struct {
	db    *DB
	users map[string]types.User
}

func (r *UserRepository) GetByID(_ context.Context, id string) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *UserRepository) Upsert(_ context.Context, user types.User) (types.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for id, existing := range r.users {
		if existing.Email == user.Email {
			existing.Name = user.Name
			existing.Role = user.Role
			existing.PasswordHash = user.PasswordHash
			existing.UpdatedAt = now
			r.users[id] = existing
			return existing, nil
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

// author must be called with db.mu held.
func (r *UserRepository) author(id string) *types.Author {
	user, ok := r.users[id]
	if !ok {
		return nil
	}
	return &types.Author{ID: user.ID, Name: user.Name, Email: user.Email}
}

// --- ContentRepository ---

// ContentRepository stores one kind of publishable resource.
type ContentRepository[T any] struct {
	db    *DB
	items map[string]entry[T]
	core  func(*T) *types.Content
	// order sorts ahead of recency when set; negative means a comes first.
	order func(a, b T) int
}

func newContentRepository[T any](db *DB, core func(*T) *types.Content, order func(a, b T) int) *ContentRepository[T] {
	return &ContentRepository[T]{
		db:    db,
		items: make(map[string]entry[T]),
		core:  core,
		order: order,
	}
}

func (r *ContentRepository[T]) List(_ context.Context, filter types.ListFilter) ([]T, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	matched := make([]entry[T], 0, len(r.items))
	for _, e := range r.items {
		if filter.Status != "" && string(r.core(&e.item).Status) != filter.Status {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if r.order != nil {
			if c := r.order(matched[i].item, matched[j].item); c != 0 {
				return c < 0
			}
		}
		return matched[i].seq > matched[j].seq
	})

	total := len(matched)
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	start := min(filter.Offset(), total)
	end := min(start+limit, total)

	items := make([]T, 0, end-start)
	for _, e := range matched[start:end] {
		items = append(items, r.withAuthor(e.item))
	}
	return items, total, nil
}

func (r *ContentRepository[T]) GetByID(_ context.Context, id string) (T, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		var zero T
		return zero, store.ErrNotFound
	}
	return r.withAuthor(e.item), nil
}

func (r *ContentRepository[T]) GetBySlug(_ context.Context, slug string) (T, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, e := range r.items {
		if r.core(&e.item).Slug == slug {
			return r.withAuthor(e.item), nil
		}
	}
	var zero T
	return zero, store.ErrNotFound
}

func (r *ContentRepository[T]) Create(_ context.Context, item T) (T, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c := r.core(&item)
	if r.slugTaken(c.Slug, "") {
		var zero T
		return zero, store.ErrConflict
	}

	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Author = nil
	r.items[c.ID] = entry[T]{seq: r.db.next(), item: item}
	return r.withAuthor(item), nil
}

func (r *ContentRepository[T]) Update(_ context.Context, item T) (T, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var zero T
	c := r.core(&item)
	existing, ok := r.items[c.ID]
	if !ok {
		return zero, store.ErrNotFound
	}
	if r.slugTaken(c.Slug, c.ID) {
		return zero, store.ErrConflict
	}

	prev := r.core(&existing.item)
	c.AuthorID = prev.AuthorID
	c.CreatedAt = prev.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	c.Author = nil
	r.items[c.ID] = entry[T]{seq: existing.seq, item: item}
	return r.withAuthor(item), nil
}

func (r *ContentRepository[T]) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ContentRepository[T]) slugTaken(slug, exceptID string) bool {
	for id, e := range r.items {
		if id != exceptID && r.core(&e.item).Slug == slug {
			return true
		}
	}
	return false
}

func (r *ContentRepository[T]) withAuthor(item T) T {
	c := r.core(&item)
	c.Author = r.db.Users.author(c.AuthorID)
	return item
}

// --- EnquiryRepository ---

// EnquiryRepository stores contact enquiries.
type EnquiryRepository struct {
	db    *DB
	items map[string]entry[types.Enquiry]
}

func (r *EnquiryRepository) List(_ context.Context, filter types.ListFilter) ([]types.Enquiry, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	matched := make([]entry[types.Enquiry], 0, len(r.items))
	for _, e := range r.items {
		if filter.Status != "" && string(e.item.Status) != filter.Status {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	total := len(matched)
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}
	start := min(filter.Offset(), total)
	end := min(start+limit, total)

	enquiries := make([]types.Enquiry, 0, end-start)
	for _, e := range matched[start:end] {
		enquiries = append(enquiries, e.item)
	}
	return enquiries, total, nil
}

func (r *EnquiryRepository) GetByID(_ context.Context, id string) (types.Enquiry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		return types.Enquiry{}, store.ErrNotFound
	}
	return e.item, nil
}

func (r *EnquiryRepository) Create(_ context.Context, enquiry types.Enquiry) (types.Enquiry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now().UTC()
	enquiry.ID = uuid.NewString()
	enquiry.CreatedAt = now
	enquiry.UpdatedAt = now
	r.items[enquiry.ID] = entry[types.Enquiry]{seq: r.db.next(), item: enquiry}
	return enquiry, nil
}

func (r *EnquiryRepository) UpdateStatus(_ context.Context, id string, status types.EnquiryStatus) (types.Enquiry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		return types.Enquiry{}, store.ErrNotFound
	}
	e.item.Status = status
	e.item.UpdatedAt = time.Now().UTC()
	r.items[id] = e
	return e.item, nil
}

func (r *EnquiryRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
