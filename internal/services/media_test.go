package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-jack/novafusion/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newMediaService(store storage.ObjectStore) *MediaService {
	svc := NewMediaService(store, "https://novafusion.test/")
	svc.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestMediaService_Upload(t *testing.T) {
	objects := storage.NewMemory("media")
	svc := newMediaService(objects)
	ctx := context.Background()

	media, err := svc.Upload(ctx, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", media.ContentType)
	assert.True(t, strings.HasPrefix(media.Key, "uploads/2026/03/"))
	assert.True(t, strings.HasSuffix(media.Key, ".png"))
	assert.Equal(t, "https://novafusion.test/media/"+media.Key, media.URL)

	obj, err := svc.Open(ctx, media.Key)
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestMediaService_UploadRejects(t *testing.T) {
	svc := newMediaService(storage.NewMemory("media"))
	ctx := context.Background()
	var verr *ValidationError

	_, err := svc.Upload(ctx, strings.NewReader(""))
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Upload(ctx, strings.NewReader("<html><body>not an image</body></html>"))
	assert.ErrorAs(t, err, &verr)

	big := append(append([]byte{}, pngHeader...), make([]byte, MaxUploadSize)...)
	_, err = svc.Upload(ctx, bytes.NewReader(big))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "File must be at most 10 MB", verr.Message)
}

func TestMediaService_Delete(t *testing.T) {
	objects := storage.NewMemory("media")
	svc := newMediaService(objects)
	ctx := context.Background()

	media, err := svc.Upload(ctx, bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, author, media.Key), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, superAdmin, "../etc/passwd"), storage.ErrObjectNotFound)
	require.NoError(t, svc.Delete(ctx, superAdmin, media.Key))
	assert.Equal(t, 0, objects.Len())
}

func TestMediaService_Disabled(t *testing.T) {
	svc := NewMediaService(nil, "")
	assert.False(t, svc.Enabled())
	_, err := svc.Upload(context.Background(), strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrMediaDisabled)
}
