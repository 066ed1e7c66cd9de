package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nova-jack/novafusion/internal/storage"
	"github.com/nova-jack/novafusion/types"
)

// MaxUploadSize caps a single media upload.
const MaxUploadSize = 10 << 20

// ErrMediaDisabled is returned when no object store is configured.
var ErrMediaDisabled = errors.New("media storage is not configured")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaService stores admin image uploads in object storage.
type MediaService struct {
	store   storage.ObjectStore
	baseURL string
	now     func() time.Time
}

func NewMediaService(store storage.ObjectStore, baseURL string) *MediaService {
	return &MediaService{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Enabled reports whether uploads can be served.
func (s *MediaService) Enabled() bool {
	return s != nil && s.store != nil
}

// Upload sniffs r, rejects anything that is not a supported image or is
// larger than MaxUploadSize, and stores it under a fresh dated key.
func (s *MediaService) Upload(ctx context.Context, r io.Reader) (types.Media, error) {
	if !s.Enabled() {
		return types.Media{}, ErrMediaDisabled
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return types.Media{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return types.Media{}, invalid("File is required")
	}
	if len(data) > MaxUploadSize {
		return types.Media{}, invalid("File must be at most %d MB", MaxUploadSize>>20)
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return types.Media{}, invalid("Unsupported file type; use JPEG, PNG, GIF or WebP")
	}

	key := fmt.Sprintf("uploads/%s/%s%s", s.now().UTC().Format("2006/01"), uuid.NewString(), ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Media{}, fmt.Errorf("storing %s: %w", key, err)
	}

	return types.Media{
		Key:         key,
		URL:         s.URL(key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// URL is the public address the site serves key from.
func (s *MediaService) URL(key string) string {
	return s.baseURL + "/media/" + key
}

// Open returns the stored object for key. Only keys under uploads/ are served.
func (s *MediaService) Open(ctx context.Context, key string) (storage.Object, error) {
	if !s.Enabled() {
		return storage.Object{}, ErrMediaDisabled
	}
	if !validKey(key) {
		return storage.Object{}, storage.ErrObjectNotFound
	}
	return s.store.Get(ctx, key)
}

// Delete removes key. Only a SUPER_ADMIN may delete media.
func (s *MediaService) Delete(ctx context.Context, user types.AdminUser, key string) error {
	if !s.Enabled() {
		return ErrMediaDisabled
	}
	if user.Role != types.RoleSuperAdmin {
		return ErrForbidden
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return invalid("Media key is required")
	}
	if !validKey(key) {
		return storage.ErrObjectNotFound
	}
	return s.store.Delete(ctx, key)
}

func validKey(key string) bool {
	return strings.HasPrefix(key, "uploads/") && !strings.Contains(key, "..")
}
