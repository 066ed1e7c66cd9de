package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/nova-jack/novafusion/internal/services"
	"github.com/nova-jack/novafusion/internal/storage"
	"github.com/nova-jack/novafusion/types"
)

const formFieldFile = "file"

// MediaService is the part of services.MediaService the handlers use.
type MediaService interface {
	Upload(ctx context.Context, r io.Reader) (types.Media, error)
	Open(ctx context.Context, key string) (storage.Object, error)
	Delete(ctx context.Context, user types.AdminUser, key string) error
}

type MediaHandler struct {
	service MediaService
}

func NewMediaHandler(service MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// MediaRouter registers the admin upload routes. Deleting requires a
// SUPER_ADMIN session.
func MediaRouter(r chi.Router, h *MediaHandler, tokens TokenVerifier) {
	r.Post("/", h.Upload)
	r.With(RequireAuth(tokens, GateOptions{RequiredRole: types.RoleSuperAdmin})).Delete("/", h.Delete)
}

// Upload stores the multipart field "file".
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+1<<20)
	file, _, err := r.FormFile(formFieldFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File must be at most 10 MB")
			return
		}
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	media, err := h.service.Upload(r.Context(), file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("key", media.Key).Int64("size", media.Size).Msg("media uploaded")
	writeSuccess(w, http.StatusCreated, map[string]any{"media": media}, "File uploaded successfully")
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	if err := h.service.Delete(r.Context(), user, r.URL.Query().Get("key")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "File deleted successfully")
}

// Serve streams an uploaded object. It is mounted at /media/*.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.Open(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("stream media")
	}
}

func (h *MediaHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, services.ErrMediaDisabled):
		writeError(w, http.StatusServiceUnavailable, "Media storage is not configured")
	default:
		writeServiceError(w, r, err, "File not found")
	}
}
