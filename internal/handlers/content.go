package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nova-jack/novafusion/internal/services"
	"github.com/nova-jack/novafusion/types"
)

// ContentService is the part of services.ContentService the handlers use.
type ContentService[T any, P any] interface {
	Kind() services.Kind
	List(ctx context.Context, filter types.ListFilter) ([]T, types.Pagination, error)
	Get(ctx context.Context, id string) (T, error)
	GetBySlug(ctx context.Context, slug string) (T, error)
	GetPublished(ctx context.Context, slug string) (T, error)
	Create(ctx context.Context, user types.AdminUser, item T) (T, error)
	Update(ctx context.Context, user types.AdminUser, id string, patch P) (T, error)
	Delete(ctx context.Context, user types.AdminUser, id string) error
}

// ContentHandler serves one publishable resource type. Admin routes take
// the record id from the query string (GET), the body (PUT) or either (DELETE).
type ContentHandler[T any, P any] struct {
	service ContentService[T, P]
	kind    services.Kind
}

func NewContentHandler[T any, P any](service ContentService[T, P]) *ContentHandler[T, P] {
	return &ContentHandler[T, P]{service: service, kind: service.Kind()}
}

// ContentRouter registers the admin CRUD routes. The caller mounts it
// behind RequireAuth.
func ContentRouter[T any, P any](r chi.Router, h *ContentHandler[T, P]) {
	r.Get("/", h.Get)
	r.Post("/", h.Create)
	r.Put("/", h.Update)
	r.Delete("/", h.Delete)
}

// PublicContentRouter registers read-only routes for published records.
func PublicContentRouter[T any, P any](r chi.Router, h *ContentHandler[T, P]) {
	r.Get("/", h.ListPublished)
	r.Get("/{slug}", h.GetPublished)
}

// Get returns one record when id or slug is given, otherwise a page.
func (h *ContentHandler[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if id := strings.TrimSpace(query.Get("id")); id != "" {
		item, err := h.service.Get(r.Context(), id)
		h.writeOne(w, r, item, err)
		return
	}
	if slug := strings.TrimSpace(query.Get("slug")); slug != "" {
		item, err := h.service.GetBySlug(r.Context(), slug)
		h.writeOne(w, r, item, err)
		return
	}
	h.writeList(w, r, listFilter(r))
}

func (h *ContentHandler[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	var item T
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	created, err := h.service.Create(r.Context(), user, item)
	if err != nil {
		writeServiceError(w, r, err, h.notFound())
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{h.kind.Noun: created}, h.kind.Label+" created successfully")
}

// Update applies a partial update. Fields absent from the body are kept.
func (h *ContentHandler[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	var target struct {
		ID string `json:"id"`
	}
	var patch P
	if err := json.Unmarshal(body, &target); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := json.Unmarshal(body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if target.ID == "" {
		target.ID = r.URL.Query().Get("id")
	}

	updated, err := h.service.Update(r.Context(), user, target.ID, patch)
	if err != nil {
		writeServiceError(w, r, err, h.notFound())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{h.kind.Noun: updated}, h.kind.Label+" updated successfully")
}

func (h *ContentHandler[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	if err := h.service.Delete(r.Context(), user, targetID(w, r)); err != nil {
		writeServiceError(w, r, err, h.notFound())
		return
	}
	writeSuccess(w, http.StatusOK, nil, h.kind.Label+" deleted successfully")
}

// ListPublished returns a page of published records.
func (h *ContentHandler[T, P]) ListPublished(w http.ResponseWriter, r *http.Request) {
	filter := listFilter(r)
	filter.Status = string(types.StatusPublished)
	h.writeList(w, r, filter)
}

func (h *ContentHandler[T, P]) GetPublished(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetPublished(r.Context(), chi.URLParam(r, "slug"))
	h.writeOne(w, r, item, err)
}

func (h *ContentHandler[T, P]) writeOne(w http.ResponseWriter, r *http.Request, item T, err error) {
	if err != nil {
		writeServiceError(w, r, err, h.notFound())
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{h.kind.Noun: item}, "")
}

func (h *ContentHandler[T, P]) writeList(w http.ResponseWriter, r *http.Request, filter types.ListFilter) {
	items, page, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, h.notFound())
		return
	}
	if items == nil {
		items = []T{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{h.kind.Plural: items, "pagination": page}, "")
}

func (h *ContentHandler[T, P]) notFound() string {
	return h.kind.Label + " not found"
}
